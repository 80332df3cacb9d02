package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fjglira/bugzero/internal/domain"
)

// Validate checks the Config for required fields and valid values.
func Validate(cfg *Config) error {
	var errs []string

	// Translation table
	if cfg.Translation.Path == "" {
		errs = append(errs, "translation.path must not be empty")
	}
	if cfg.Translation.CommandColumn == "" {
		errs = append(errs, "translation.command_column must not be empty")
	}
	if len(cfg.Translation.TemplateColumns) == 0 {
		errs = append(errs, "translation.template_columns must not be empty")
	}

	// Input validation
	if len(cfg.Input.Include) == 0 {
		errs = append(errs, "input.include must not be empty")
	}

	// Browser
	if !slices.Contains(Drivers, cfg.Browser.Driver) {
		errs = append(errs, fmt.Sprintf("browser.driver must be one of: %s (got %q)", strings.Join(Drivers, ", "), cfg.Browser.Driver))
	}
	if d, err := time.ParseDuration(cfg.Browser.ImplicitWait); err != nil || d <= 0 {
		errs = append(errs, fmt.Sprintf("browser.implicit_wait must be a positive duration (got %q)", cfg.Browser.ImplicitWait))
	}
	if cfg.Browser.WindowWidth < 0 || cfg.Browser.WindowHeight < 0 {
		errs = append(errs, "browser.window_width and browser.window_height must not be negative")
	}

	// Report
	if cfg.Report.Directory == "" {
		errs = append(errs, "report.directory must not be empty")
	}
	for _, f := range cfg.Report.Formats {
		if !slices.Contains(ReportFormats, f) {
			errs = append(errs, fmt.Sprintf("report.formats: unknown format %q (known: %s)", f, strings.Join(ReportFormats, ", ")))
		}
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		errs = append(errs, "history.path must not be empty when history is enabled")
	}

	// Validate logging level
	if cfg.Logging.Level != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[cfg.Logging.Level] {
			errs = append(errs, fmt.Sprintf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
		}
	}

	if len(errs) > 0 {
		return domain.NewError("config", "", 0, fmt.Sprintf("validation failed: %s", strings.Join(errs, "; ")), nil)
	}

	return nil
}
