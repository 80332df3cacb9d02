package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/fjglira/bugzero/internal/domain"
)

// Console prints a per-step summary of rep to w. Colors are only emitted
// when w is a terminal.
func Console(w io.Writer, rep *domain.Report) error {
	r := lipgloss.NewRenderer(w)
	passStyle := r.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}).
		Bold(true)
	failStyle := r.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).
		Bold(true)
	dimStyle := r.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"})
	headerStyle := r.NewStyle().Bold(true)

	title := rep.Name
	if title == "" {
		title = rep.Source
	}
	if _, err := fmt.Fprintln(w, headerStyle.Render(title)); err != nil {
		return err
	}

	for _, e := range rep.Entries {
		status := passStyle.Render("PASS")
		if !e.Result.Passed() {
			status = failStyle.Render("FAIL")
		}
		line := fmt.Sprintf("%3d  %s  %s", e.Index, status, e.Action.Text)
		if !e.Result.Passed() {
			line += "\n     " + failStyle.Render(e.Result.Message)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for _, s := range rep.Skipped {
		if _, err := fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  -  SKIP  step %d: %s (not in translation table)", s.Number, s.Command))); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("Total: %d  Passed: %d  Failed: %d  (%.2fs)",
		rep.Summary.Total, rep.Summary.Passed, rep.Summary.Failed, rep.Duration.Seconds())
	if rep.Succeeded() {
		summary = passStyle.Render(summary)
	} else {
		summary = failStyle.Render(summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}
