// Package executor runs compiled actions against a browser session.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/metrics"
	"github.com/fjglira/bugzero/internal/session"
	"github.com/fjglira/bugzero/internal/telemetry"
)

// Executor runs actions one at a time and never stops on a failed action.
type Executor struct {
	log     *logrus.Logger
	blocked []string
	metrics *metrics.Recorder
	tracer  trace.Tracer
}

// New creates an Executor. rec may be nil.
func New(log *logrus.Logger, cfg config.ExecutionConfig, rec *metrics.Recorder) *Executor {
	if log == nil {
		log = logrus.New()
	}
	return &Executor{
		log:     log,
		blocked: cfg.BlockedPatterns,
		metrics: rec,
		tracer:  telemetry.Tracer(),
	}
}

// Run acquires a session from opener, executes actions and releases the
// session exactly once. A setup failure is returned as an error wrapping
// domain.ErrSessionSetup; a partially acquired session is still closed.
func (e *Executor) Run(ctx context.Context, actions []domain.CompiledAction, opener session.Opener) ([]domain.ExecutionResult, error) {
	sess, err := opener.Open(ctx)
	if sess != nil {
		defer func() {
			if cerr := sess.Close(); cerr != nil {
				e.log.WithError(cerr).Warn("Failed to close browser session")
			}
		}()
	}
	if err != nil {
		if errors.Is(err, domain.ErrSessionSetup) {
			return nil, err
		}
		return nil, domain.NewErrorWithSuggestion("session", "", 0, "failed to acquire browser session",
			"check the browser section of bugzero.yaml", fmt.Errorf("%w: %w", domain.ErrSessionSetup, err))
	}
	if sess == nil {
		return nil, domain.NewError("session", "", 0, "opener returned no session", domain.ErrSessionSetup)
	}

	return e.Execute(ctx, actions, sess), nil
}

// Execute runs every action against sess in order and returns one result
// per action, in the same order.
func (e *Executor) Execute(ctx context.Context, actions []domain.CompiledAction, sess session.Session) []domain.ExecutionResult {
	results := make([]domain.ExecutionResult, 0, len(actions))
	for i, a := range actions {
		e.log.Infof("Executing: %s", a.Text)

		stepCtx, span := e.tracer.Start(ctx, "step", trace.WithAttributes(
			telemetry.AttrStep.Int(a.StepNumber),
			telemetry.AttrCommand.String(a.Command),
		))
		res := e.runOne(stepCtx, sess, a)
		span.SetAttributes(telemetry.AttrStatus.String(string(res.Status)))
		if !res.Passed() {
			span.SetStatus(codes.Error, res.Message)
		}
		span.End()

		entry := e.log.WithFields(logrus.Fields{
			"index":    i + 1,
			"step":     a.StepNumber,
			"command":  a.Command,
			"duration": res.Duration,
		})
		if res.Passed() {
			entry.Debug("Action passed")
		} else {
			entry.WithField("error", res.Message).Warn("Action failed")
		}

		e.metrics.ObserveStep(res)
		results = append(results, res)
	}
	return results
}

// runOne converts every failure of a single action, panics included, into
// a Fail result.
func (e *Executor) runOne(ctx context.Context, sess session.Session, a domain.CompiledAction) (res domain.ExecutionResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = domain.Fail(fmt.Sprintf("panic: %v", r), time.Since(start))
		}
	}()

	if err := CheckPolicy(a.Text, e.blocked); err != nil {
		return domain.Fail(err.Error(), time.Since(start))
	}
	if err := ctx.Err(); err != nil {
		return domain.Fail(err.Error(), time.Since(start))
	}
	if err := sess.Run(ctx, a); err != nil {
		return domain.Fail(err.Error(), time.Since(start))
	}
	return domain.Pass(time.Since(start))
}
