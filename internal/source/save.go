package source

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/fjglira/bugzero/internal/domain"
)

// SaveTestCase writes tc to path in the format implied by its extension
// (.xlsx, .yaml/.yml or .csv). Steps are renumbered 1..N.
func SaveTestCase(path string, tc *domain.TestCase) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.NewError("source", path, 0, "failed to create directory", err)
		}
	}
	switch normalizeExt(filepath.Ext(path)) {
	case "xlsx":
		return saveExcel(path, tc)
	case "yaml", "yml":
		return saveYAML(path, tc)
	case "csv":
		return saveCSV(path, tc)
	}
	return domain.NewErrorWithSuggestion("source", path, 0, "unsupported output format",
		"use .xlsx, .yaml or .csv", nil)
}

func saveCSV(path string, tc *domain.TestCase) error {
	f, err := os.Create(path)
	if err != nil {
		return domain.NewError("source", path, 0, "failed to create file", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(stepHeader); err != nil {
		f.Close()
		return domain.NewError("source", path, 0, "failed to write CSV", err)
	}
	for _, s := range renumber(tc.Steps) {
		if err := w.Write(stepRow(s)); err != nil {
			f.Close()
			return domain.NewError("source", path, s.Number, "failed to write CSV", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return domain.NewError("source", path, 0, "failed to write CSV", err)
	}
	return f.Close()
}
