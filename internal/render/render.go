// Package render serializes reports to files and opens them.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/browser"

	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
)

// RenderFunc writes one report format.
type RenderFunc func(w io.Writer, rep *domain.Report) error

type format struct {
	ext    string
	render RenderFunc
}

// Writer renders reports in the configured formats.
type Writer struct {
	dir     string
	formats []string
	byName  map[string]format
	open    func(path string) error
}

// NewWriter creates a Writer from the report configuration.
func NewWriter(cfg config.ReportConfig) (*Writer, error) {
	engine, err := NewEngine(cfg.TemplatesDir, cfg.Title)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		dir:     cfg.Directory,
		formats: cfg.Formats,
		byName: map[string]format{
			"html":     {ext: "html", render: engine.RenderHTML},
			"markdown": {ext: "md", render: engine.RenderMarkdown},
			"json":     {ext: "json", render: RenderJSON},
			"junit":    {ext: "xml", render: RenderJUnit},
		},
		open: browser.OpenFile,
	}
	for _, f := range w.formats {
		if _, ok := w.byName[f]; !ok {
			return nil, domain.NewError("render", "", 0,
				fmt.Sprintf("unknown report format %q (available: %v)", f, w.Formats()), nil)
		}
	}
	return w, nil
}

// Formats lists the known format names.
func (w *Writer) Formats() []string {
	names := make([]string, 0, len(w.byName))
	for name := range w.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render writes rep in the named format to out.
func (w *Writer) Render(out io.Writer, name string, rep *domain.Report) error {
	f, ok := w.byName[name]
	if !ok {
		return domain.NewError("render", "", 0, fmt.Sprintf("unknown report format %q", name), nil)
	}
	return f.render(out, rep)
}

// FileName returns the report file name for rep in the given extension.
// The leading part of the run id keeps runs finished within the same
// second apart.
func FileName(rep *domain.Report, ext string) string {
	name := "test_report_" + rep.GeneratedAt.Format("2006-01-02_15-04-05")
	if id := shortID(rep.RunID); id != "" {
		name += "_" + id
	}
	return name + "." + ext
}

// shortID returns up to eight file-name-safe characters of a run id.
func shortID(runID string) string {
	var b strings.Builder
	for _, r := range runID {
		if b.Len() == 8 {
			break
		}
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Write renders rep in every configured format into the report directory
// and returns the written paths in format order.
func (w *Writer) Write(rep *domain.Report) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, domain.NewError("render", w.dir, 0, "failed to create report directory", err)
	}

	var paths []string
	for _, name := range w.formats {
		f := w.byName[name]
		path := filepath.Join(w.dir, FileName(rep, f.ext))
		if err := writeFile(path, rep, f.render); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, rep *domain.Report, render RenderFunc) error {
	file, err := os.Create(path)
	if err != nil {
		return domain.NewError("render", path, 0, "failed to create report file", err)
	}
	if err := render(file, rep); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return domain.NewError("render", path, 0, "failed to write report file", err)
	}
	return nil
}

// Open shows a written report in the system viewer.
func (w *Writer) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.open(abs); err != nil {
		return domain.NewError("render", path, 0, "failed to open report", err)
	}
	return nil
}
