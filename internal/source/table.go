package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/translation"
)

// LoadTable reads the translation table described by cfg. Spreadsheet
// and CSV tables take the command from cfg.CommandColumn and the template
// from the first of cfg.TemplateColumns present in the header. YAML tables
// are a plain command to template mapping.
func LoadTable(cfg config.TranslationConfig) (*translation.Table, error) {
	path := cfg.Path
	if err := checkExists(path, "translation table"); err != nil {
		return nil, err
	}

	var entries map[string]string
	var err error
	switch normalizeExt(filepath.Ext(path)) {
	case "xlsx", "xlsm":
		var rows [][]string
		if rows, err = readSheet(path, cfg.Sheet); err == nil {
			entries, err = tableFromRows(path, rows, cfg)
		}
	case "csv":
		var rows [][]string
		if rows, err = readCSV(path); err == nil {
			entries, err = tableFromRows(path, rows, cfg)
		}
	case "yaml", "yml":
		entries, err = tableFromYAML(path)
	default:
		err = domain.NewErrorWithSuggestion("source", path, 0, "unsupported translation table format",
			"use .xlsx, .csv or .yaml", nil)
	}
	if err != nil {
		return nil, err
	}
	return translation.New(entries), nil
}

func tableFromRows(path string, rows [][]string, cfg config.TranslationConfig) (map[string]string, error) {
	for len(rows) > 0 && isBlank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, domain.NewError("source", path, 0, "translation table is empty", nil)
	}

	h := parseHeader(rows[0])
	commandCol, ok := h.find(cfg.CommandColumn)
	if !ok {
		return nil, domain.NewError("source", path, 0,
			fmt.Sprintf("translation table has no %q column", cfg.CommandColumn), nil)
	}
	templateCol, ok := h.find(cfg.TemplateColumns...)
	if !ok {
		return nil, domain.NewErrorWithSuggestion("source", path, 0,
			fmt.Sprintf("translation table has none of the template columns %s", strings.Join(cfg.TemplateColumns, ", ")),
			"set translation.template_columns in bugzero.yaml", nil)
	}

	// Command keys are kept verbatim: lookups are exact matches.
	entries := make(map[string]string)
	for i, row := range rows[1:] {
		command := cell(row, commandCol)
		tmpl := cell(row, templateCol)
		if strings.TrimSpace(command) == "" || strings.TrimSpace(tmpl) == "" {
			continue
		}
		if _, dup := entries[command]; dup {
			return nil, domain.NewError("source", path, i+2, fmt.Sprintf("duplicate command %q", command), nil)
		}
		entries[command] = tmpl
	}
	return entries, nil
}

func tableFromYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError("source", path, 0, "failed to read translation table", err)
	}
	entries := make(map[string]string)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, domain.NewError("source", path, 0, "failed to parse translation table", err)
	}
	for command, tmpl := range entries {
		if strings.TrimSpace(tmpl) == "" {
			delete(entries, command)
		}
	}
	return entries, nil
}
