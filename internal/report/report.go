// Package report aggregates compiled actions and their results.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fjglira/bugzero/internal/domain"
)

// Build pairs actions with results by position and computes the summary.
// Mismatched lengths are a caller bug and yield an error wrapping
// domain.ErrReportBuild.
func Build(actions []domain.CompiledAction, results []domain.ExecutionResult, generatedAt time.Time) (*domain.Report, error) {
	if len(actions) != len(results) {
		return nil, domain.NewError("report", "", 0,
			fmt.Sprintf("%d actions but %d results", len(actions), len(results)), domain.ErrReportBuild)
	}

	rep := &domain.Report{
		Entries:     make([]domain.ReportEntry, len(results)),
		GeneratedAt: generatedAt,
	}
	for i, res := range results {
		rep.Entries[i] = domain.ReportEntry{Index: i + 1, Action: actions[i], Result: res}
		rep.Duration += res.Duration
		if res.Passed() {
			rep.Summary.Passed++
		} else {
			rep.Summary.Failed++
		}
	}
	rep.Summary.Total = len(results)
	return rep, nil
}

// Builder fills in run metadata around Build.
type Builder struct {
	now   func() time.Time
	newID func() string
}

// NewBuilder creates a Builder stamping reports with the wall clock and a
// random UUID.
func NewBuilder() *Builder {
	return NewBuilderWith(time.Now, uuid.NewString)
}

// NewBuilderWith creates a Builder with explicit clock and ID sources.
func NewBuilderWith(now func() time.Time, newID func() string) *Builder {
	return &Builder{now: now, newID: newID}
}

// Build creates the report for one test case run.
func (b *Builder) Build(tc *domain.TestCase, actions []domain.CompiledAction, results []domain.ExecutionResult, skipped []domain.TestStep) (*domain.Report, error) {
	rep, err := Build(actions, results, b.now())
	if err != nil {
		var bzErr *domain.BugZeroError
		if tc != nil && errors.As(err, &bzErr) {
			bzErr.File = tc.Source
		}
		return nil, err
	}
	rep.RunID = b.newID()
	if tc != nil {
		rep.Name = tc.Name
		rep.Source = tc.Source
	}
	rep.Skipped = skipped
	return rep, nil
}
