package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fjglira/bugzero/internal/domain"
)

// Config is the top-level configuration struct.
type Config struct {
	Translation TranslationConfig `yaml:"translation"`
	Input       InputConfig       `yaml:"input"`
	Compiler    CompilerConfig    `yaml:"compiler"`
	Browser     BrowserConfig     `yaml:"browser"`
	Execution   ExecutionConfig   `yaml:"execution"`
	Report      ReportConfig      `yaml:"report"`
	History     HistoryConfig     `yaml:"history"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Tracing     TracingConfig     `yaml:"tracing"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type TranslationConfig struct {
	Path            string   `yaml:"path"`
	Sheet           string   `yaml:"sheet"`
	CommandColumn   string   `yaml:"command_column"`
	TemplateColumns []string `yaml:"template_columns"`
}

type InputConfig struct {
	Directories []string `yaml:"directories"`
	Include     []string `yaml:"include"`
	Exclude     []string `yaml:"exclude"`
	Recursive   *bool    `yaml:"recursive"` // pointer to distinguish unset from false
	Sheet       string   `yaml:"sheet"`
}

type CompilerConfig struct {
	WarnOnSkip bool `yaml:"warn_on_skip"`
}

type BrowserConfig struct {
	Driver       string `yaml:"driver"`
	Headless     bool   `yaml:"headless"`
	ImplicitWait string `yaml:"implicit_wait"`
	ExecPath     string `yaml:"exec_path"`
	RemoteURL    string `yaml:"remote_url"`
	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
	UserAgent    string `yaml:"user_agent"`
}

// Wait returns the parsed implicit wait, falling back to the default on bad input.
func (b BrowserConfig) Wait() time.Duration {
	d, err := time.ParseDuration(b.ImplicitWait)
	if err != nil || d <= 0 {
		return defaultImplicitWait
	}
	return d
}

type ExecutionConfig struct {
	BlockedPatterns []string `yaml:"blocked_patterns"`
}

type ReportConfig struct {
	Directory    string   `yaml:"directory"`
	Formats      []string `yaml:"formats"`
	TemplatesDir string   `yaml:"templates_dir"`
	Title        string   `yaml:"title"`
	Open         bool     `yaml:"open"`
	Console      bool     `yaml:"console"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

type TracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads a YAML configuration file and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError("config", path, 0, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.NewError("config", path, 0, "failed to parse config file", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but returns DefaultConfig when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(path)
}
