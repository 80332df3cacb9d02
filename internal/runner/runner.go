// Package runner wires the pipeline: load, compile, execute, report.
package runner

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fjglira/bugzero/internal/compiler"
	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/executor"
	"github.com/fjglira/bugzero/internal/history"
	"github.com/fjglira/bugzero/internal/metrics"
	"github.com/fjglira/bugzero/internal/render"
	"github.com/fjglira/bugzero/internal/report"
	"github.com/fjglira/bugzero/internal/scanner"
	"github.com/fjglira/bugzero/internal/session"
	"github.com/fjglira/bugzero/internal/source"
	"github.com/fjglira/bugzero/internal/telemetry"
	"github.com/fjglira/bugzero/internal/translation"
)

// Plan is a compiled test case ready to execute.
type Plan struct {
	Case    *domain.TestCase
	Table   *translation.Table
	Actions []domain.CompiledAction
	Skipped []domain.TestStep
}

// Runner is the top-level orchestrator. It owns no browser state between
// runs: each Run acquires and releases its own session.
type Runner struct {
	cfg      *config.Config
	registry *source.Registry
	compiler compiler.Compiler
	executor *executor.Executor
	opener   session.Opener
	builder  *report.Builder
	writer   *render.Writer
	history  *history.Store
	metrics  *metrics.Recorder
	console  io.Writer
	tracer   trace.Tracer
	log      *logrus.Logger
}

// NewRunner creates a Runner. store and rec may be nil.
func NewRunner(cfg *config.Config, opener session.Opener, store *history.Store, rec *metrics.Recorder, log *logrus.Logger) (*Runner, error) {
	writer, err := render.NewWriter(cfg.Report)
	if err != nil {
		return nil, err
	}
	var console io.Writer
	if cfg.Report.Console {
		console = os.Stdout
	}
	return &Runner{
		cfg:      cfg,
		registry: source.DefaultRegistry(cfg.Input.Sheet),
		compiler: compiler.NewCompiler(log, cfg.Compiler.WarnOnSkip),
		executor: executor.New(log, cfg.Execution, rec),
		opener:   opener,
		builder:  report.NewBuilder(),
		writer:   writer,
		history:  store,
		metrics:  rec,
		console:  console,
		tracer:   telemetry.Tracer(),
		log:      log,
	}, nil
}

// SetConsole redirects the console summary; nil disables it.
func (r *Runner) SetConsole(w io.Writer) {
	r.console = w
}

// Writer returns the report writer.
func (r *Runner) Writer() *render.Writer {
	return r.writer
}

// LoadTable reads the configured translation table.
func (r *Runner) LoadTable() (*translation.Table, error) {
	table, err := source.LoadTable(r.cfg.Translation)
	if err != nil {
		return nil, err
	}
	r.log.Debugf("Loaded %d command(s) from %s", table.Len(), r.cfg.Translation.Path)
	return table, nil
}

// LoadCase reads one test case file.
func (r *Runner) LoadCase(path string) (*domain.TestCase, error) {
	return r.registry.Load(path)
}

// Prepare loads and compiles a test case against table.
func (r *Runner) Prepare(table *translation.Table, casePath string) (*Plan, error) {
	tc, err := r.registry.Load(casePath)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Case:    tc,
		Table:   table,
		Actions: r.compiler.Compile(tc.Steps, table),
		Skipped: compiler.Unresolved(tc.Steps, table),
	}, nil
}

// Run executes one test case and returns its report. Failed steps do not
// make Run fail; setup problems (sources, session) do.
func (r *Runner) Run(ctx context.Context, casePath string) (*domain.Report, error) {
	table, err := r.LoadTable()
	if err != nil {
		return nil, err
	}
	return r.run(ctx, table, casePath)
}

// RunAll discovers test cases in the input directories and runs them one
// after another. It stops at the first setup failure.
func (r *Runner) RunAll(ctx context.Context) ([]*domain.Report, error) {
	files, err := scanner.FromConfig(r.cfg.Input).ScanInput(r.cfg.Input)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		r.log.Warn("No test cases found")
		return nil, nil
	}
	r.log.Infof("Found %d test case(s)", len(files))

	return r.RunFiles(ctx, files)
}

// RunFiles runs the given test cases in order with one translation table load.
func (r *Runner) RunFiles(ctx context.Context, files []string) ([]*domain.Report, error) {
	table, err := r.LoadTable()
	if err != nil {
		return nil, err
	}
	var reports []*domain.Report
	for _, path := range files {
		rep, err := r.run(ctx, table, path)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (r *Runner) run(ctx context.Context, table *translation.Table, casePath string) (*domain.Report, error) {
	ctx, span := r.tracer.Start(ctx, "run", trace.WithAttributes(telemetry.AttrCase.String(casePath)))
	defer span.End()

	plan, err := r.Prepare(table, casePath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	r.log.Infof("Running %s: %d action(s), %d skipped", plan.Case.Name, len(plan.Actions), len(plan.Skipped))

	results, err := r.executor.Run(ctx, plan.Actions, r.opener)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rep, err := r.builder.Build(plan.Case, plan.Actions, results, plan.Skipped)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.AttrRunID.String(rep.RunID))
	if !rep.Succeeded() {
		span.SetStatus(codes.Error, "steps failed")
	}

	r.record(ctx, rep)
	if err := r.publish(rep); err != nil {
		return rep, err
	}
	return rep, nil
}

// record feeds metrics and history. Failures here are logged, not returned.
func (r *Runner) record(ctx context.Context, rep *domain.Report) {
	r.metrics.ObserveRun(rep)
	if err := r.metrics.WriteTextfile(r.cfg.Metrics.Textfile); err != nil {
		r.log.WithError(err).Warn("Failed to write metrics")
	}
	if r.history != nil {
		if err := r.history.Save(ctx, rep); err != nil {
			r.log.WithError(err).Warn("Failed to save run history")
		}
	}
}

// publish writes report files, prints the console summary and opens the
// HTML report when configured.
func (r *Runner) publish(rep *domain.Report) error {
	paths, err := r.writer.Write(rep)
	if err != nil {
		return err
	}
	for _, p := range paths {
		r.log.Infof("Report generated at: %s", p)
	}

	if r.console != nil {
		if err := render.Console(r.console, rep); err != nil {
			r.log.WithError(err).Warn("Failed to print summary")
		}
	}

	if r.cfg.Report.Open {
		for _, p := range paths {
			if filepath.Ext(p) == ".html" {
				if err := r.writer.Open(p); err != nil {
					r.log.WithError(err).Warn("Failed to open report")
				}
				break
			}
		}
	}
	return nil
}

// Failed counts failed actions across reports.
func Failed(reports []*domain.Report) int {
	n := 0
	for _, rep := range reports {
		if rep != nil {
			n += rep.Summary.Failed
		}
	}
	return n
}
