package render

import (
	"encoding/json"
	"io"
	"time"

	"github.com/fjglira/bugzero/internal/domain"
)

// JSONReport is the JSON shape of a report.
type JSONReport struct {
	RunID       string            `json:"run_id"`
	Name        string            `json:"name,omitempty"`
	Source      string            `json:"source,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	DurationMS  int64             `json:"duration_ms"`
	Summary     domain.Summary    `json:"summary"`
	Steps       []JSONStep        `json:"steps"`
	Skipped     []domain.TestStep `json:"skipped,omitempty"`
}

// JSONStep is one executed action.
type JSONStep struct {
	Index      int    `json:"index"`
	Step       int    `json:"step"`
	Command    string `json:"command"`
	Action     string `json:"action"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// ToJSON converts rep to its JSON shape.
func ToJSON(rep *domain.Report) JSONReport {
	out := JSONReport{
		RunID:       rep.RunID,
		Name:        rep.Name,
		Source:      rep.Source,
		GeneratedAt: rep.GeneratedAt,
		DurationMS:  rep.Duration.Milliseconds(),
		Summary:     rep.Summary,
		Steps:       make([]JSONStep, 0, len(rep.Entries)),
		Skipped:     rep.Skipped,
	}
	for _, e := range rep.Entries {
		out.Steps = append(out.Steps, JSONStep{
			Index:      e.Index,
			Step:       e.Action.StepNumber,
			Command:    e.Action.Command,
			Action:     e.Action.Text,
			Status:     string(e.Result.Status),
			Message:    e.Result.Message,
			DurationMS: e.Result.Duration.Milliseconds(),
		})
	}
	return out
}

// RenderJSON writes rep as indented JSON.
func RenderJSON(w io.Writer, rep *domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToJSON(rep)); err != nil {
		return domain.NewError("render", rep.Source, 0, "failed to encode JSON report", err)
	}
	return nil
}
