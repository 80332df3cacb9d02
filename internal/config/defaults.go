package config

import "time"

const defaultImplicitWait = 10 * time.Second

// Supported values for browser.driver and report.formats.
var (
	Drivers       = []string{"chrome", "static"}
	ReportFormats = []string{"html", "markdown", "json", "junit"}
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	recursive := true
	return &Config{
		Translation: TranslationConfig{
			Path:            "config/translation_table.xlsx",
			CommandColumn:   "Command",
			TemplateColumns: []string{"Selenium Code", "Action", "Template"},
		},
		Input: InputConfig{
			Directories: []string{"test_cases"},
			Include:     []string{"*.xlsx", "*.yaml", "*.yml", "*.csv", "*.md"},
			Exclude:     []string{"~$*", ".git/**"},
			Recursive:   &recursive,
		},
		Compiler: CompilerConfig{
			WarnOnSkip: false,
		},
		Browser: BrowserConfig{
			Driver:       "chrome",
			Headless:     false,
			ImplicitWait: defaultImplicitWait.String(),
			WindowWidth:  1280,
			WindowHeight: 800,
		},
		Execution: ExecutionConfig{
			BlockedPatterns: []string{
				"javascript:",
				"file://",
			},
		},
		Report: ReportConfig{
			Directory: "reports",
			Formats:   []string{"html"},
			Title:     "Test Execution Report",
			Open:      true,
			Console:   true,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "reports/history.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
