package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fjglira/bugzero/internal/config"
)

var (
	cfgFile string
	verbose bool
	log     *logrus.Logger
	logFile *os.File
)

// rootCmd is the base command for bugzero.
var rootCmd = &cobra.Command{
	Use:   "bugzero",
	Short: "Run browser test cases described as tables",
	Long: `BugZero reads test cases (spreadsheets, YAML, CSV or Markdown tables),
translates each step through a translation table into a browser action,
runs the actions against a live browser and writes a pass/fail report.

Everything is driven by a YAML configuration file (bugzero.yaml).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = newLogger(cmd.ErrOrStderr(), verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "bugzero.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Initialize default logger (overridden in PersistentPreRun)
	log = newLogger(os.Stderr, false)
}

func newLogger(out io.Writer, debug bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist, applies the overrides, validates the result and applies its
// logging section.
func loadConfig(overrides ...func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := applyLogging(cfg.Logging); err != nil {
		return nil, err
	}
	log.Debugf("Loaded config from %s", cfgFile)
	return cfg, nil
}

// applyLogging honours logging.level unless --verbose was given, and
// redirects output to logging.file when set.
func applyLogging(cfg config.LoggingConfig) error {
	if !verbose && cfg.Level != "" {
		level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return fmt.Errorf("invalid logging level: %w", err)
		}
		log.SetLevel(level)
	}
	if cfg.File != "" && logFile == nil {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		log.SetOutput(f)
	}
	return nil
}

// Execute runs the root command. Cancelling ctx stops running and
// watching commands.
func Execute(ctx context.Context) error {
	defer closeLogFile()
	return rootCmd.ExecuteContext(ctx)
}

// closeLogFile releases logging.file, whether or not the command failed.
func closeLogFile() {
	if logFile != nil {
		log.SetOutput(os.Stderr)
		logFile.Close()
		logFile = nil
	}
}
