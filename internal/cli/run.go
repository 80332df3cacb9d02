package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/history"
	"github.com/fjglira/bugzero/internal/metrics"
	"github.com/fjglira/bugzero/internal/runner"
	"github.com/fjglira/bugzero/internal/session"
	"github.com/fjglira/bugzero/internal/telemetry"
)

var (
	watch    bool
	driver   string
	headless bool
	noOpen   bool
	formats  []string
)

var runCmd = &cobra.Command{
	Use:   "run [case...]",
	Short: "Run test cases and write reports",
	Long: `Compiles each test case through the translation table, runs the actions
against a browser and writes a report. Without arguments every test case
found in the input directories is run, one after another.

The command fails when any step failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(func(cfg *config.Config) { applyRunFlags(cmd, cfg) })
		if err != nil {
			return err
		}

		shutdown, err := telemetry.Setup(cfg.Tracing)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.WithError(err).Warn("Failed to flush traces")
			}
		}()

		r, cleanup, err := buildRunner(cfg, true)
		if err != nil {
			return err
		}
		defer cleanup()

		runOnce := func(ctx context.Context) error {
			var reports []*domain.Report
			var err error
			if len(args) > 0 {
				reports, err = r.RunFiles(ctx, args)
			} else {
				reports, err = r.RunAll(ctx)
			}
			if err != nil {
				return err
			}
			if failed := runner.Failed(reports); failed > 0 {
				return fmt.Errorf("%d step(s) failed", failed)
			}
			return nil
		}

		if !watch {
			return runOnce(cmd.Context())
		}

		w, err := newWatcher(cfg, args, log)
		if err != nil {
			return err
		}
		if err := runOnce(cmd.Context()); err != nil {
			log.WithError(err).Error("Run failed")
		}
		log.Info("Watching for changes, press Ctrl+C to stop")
		return w.Run(cmd.Context(), func(ctx context.Context) {
			if err := runOnce(ctx); err != nil {
				log.WithError(err).Error("Run failed")
			}
		})
	},
}

// applyRunFlags overrides config values with the flags given on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Browser.Driver = driver
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if flags.Changed("format") {
		cfg.Report.Formats = formats
	}
	// Watch mode never opens reports.
	if noOpen || watch {
		cfg.Report.Open = false
	}
}

// buildRunner wires a Runner from cfg. Without execute no browser opener
// is created and nothing is recorded; the runner can then only load and
// compile. The returned cleanup releases the history store.
func buildRunner(cfg *config.Config, execute bool) (*runner.Runner, func(), error) {
	cleanup := func() {}
	if !execute {
		r, err := runner.NewRunner(cfg, nil, nil, nil, log)
		return r, cleanup, err
	}

	opener, err := session.NewOpener(cfg.Browser)
	if err != nil {
		return nil, cleanup, err
	}

	var store *history.Store
	if cfg.History.Enabled {
		if store, err = history.Open(cfg.History.Path); err != nil {
			return nil, cleanup, err
		}
		cleanup = func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("Failed to close history")
			}
		}
	}

	r, err := runner.NewRunner(cfg, opener, store, metrics.New(), log)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return r, cleanup, nil
}

func init() {
	runCmd.Flags().BoolVarP(&watch, "watch", "w", false, "rerun when a test case or the translation table changes")
	runCmd.Flags().StringVar(&driver, "driver", "", "browser driver (chrome, static)")
	runCmd.Flags().BoolVar(&headless, "headless", false, "run Chrome without a window")
	runCmd.Flags().BoolVar(&noOpen, "no-open", false, "do not open the HTML report")
	runCmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "report formats (html, markdown, json, junit)")
	rootCmd.AddCommand(runCmd)
}
