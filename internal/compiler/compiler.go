package compiler

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/translation"
)

// Compiler turns test steps into compiled actions.
type Compiler interface {
	Compile(steps []domain.TestStep, table *translation.Table) []domain.CompiledAction
}

// DefaultCompiler implements Compiler by template substitution.
type DefaultCompiler struct {
	log        *logrus.Logger
	warnOnSkip bool
}

// NewCompiler creates a new DefaultCompiler. When warnOnSkip is set, every
// step dropped for an unresolved command is logged at warn level instead of debug.
func NewCompiler(log *logrus.Logger, warnOnSkip bool) *DefaultCompiler {
	return &DefaultCompiler{log: log, warnOnSkip: warnOnSkip}
}

// Compile resolves each step against the table and substitutes its
// parameters. Steps whose command does not resolve are dropped, so the
// output is an order-preserving subsequence of the input.
func (c *DefaultCompiler) Compile(steps []domain.TestStep, table *translation.Table) []domain.CompiledAction {
	actions := make([]domain.CompiledAction, 0, len(steps))
	for _, step := range steps {
		tmpl, err := table.Resolve(step.Command)
		if err != nil {
			c.logSkip(step)
			continue
		}
		actions = append(actions, domain.CompiledAction{
			StepNumber: step.Number,
			Command:    step.Command,
			Text:       Substitute(tmpl, step),
			Locator:    step.Locator,
			Value:      step.Value,
		})
	}
	return actions
}

func (c *DefaultCompiler) logSkip(step domain.TestStep) {
	if c.log == nil {
		return
	}
	entry := c.log.WithFields(logrus.Fields{"step": step.Number, "command": step.Command})
	if c.warnOnSkip {
		entry.Warn("Skipping step: command not in translation table")
		return
	}
	entry.Debug("Skipping step: command not in translation table")
}

// Substitute fills the {locator}, {value} and {url} placeholders of tmpl
// from step. {url} and {value} both read the step's value field; absent
// fields substitute as the empty string.
func Substitute(tmpl string, step domain.TestStep) string {
	line := tmpl
	if strings.Contains(line, translation.PlaceholderLocator) {
		line = strings.ReplaceAll(line, translation.PlaceholderLocator, step.Locator)
	}
	if strings.Contains(line, translation.PlaceholderValue) {
		line = strings.ReplaceAll(line, translation.PlaceholderValue, step.Value)
	}
	if strings.Contains(line, translation.PlaceholderURL) {
		line = strings.ReplaceAll(line, translation.PlaceholderURL, step.Value)
	}
	return line
}

// Unresolved returns the steps Compile would drop, in order.
func Unresolved(steps []domain.TestStep, table *translation.Table) []domain.TestStep {
	var skipped []domain.TestStep
	for _, step := range steps {
		if !table.Has(step.Command) {
			skipped = append(skipped, step)
		}
	}
	return skipped
}
