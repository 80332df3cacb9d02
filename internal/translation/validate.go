package translation

import (
	"fmt"
	"strings"

	"github.com/fjglira/bugzero/internal/domain"
)

// ValidateStep applies the authoring rules to one step: the command must
// resolve, a locator is required when the template uses {locator}, and a
// value is required when it uses {value} or {url} unless the command is Click.
func ValidateStep(step domain.TestStep, table *Table) error {
	tmpl, err := table.Resolve(step.Command)
	if err != nil {
		return domain.NewError("translation", "", step.Number, "unknown command", err)
	}

	p := Scan(tmpl)
	if p.Locator && strings.TrimSpace(step.Locator) == "" {
		return domain.NewError("translation", "", step.Number,
			fmt.Sprintf("locator is required for command %q", step.Command), domain.ErrInvalidStep)
	}
	if p.NeedsValue() && step.Value == "" && step.Command != ClickCommand {
		return domain.NewError("translation", "", step.Number,
			fmt.Sprintf("value is required for command %q", step.Command), domain.ErrInvalidStep)
	}
	return nil
}

// ValidateCase runs ValidateStep over every step and returns all problems.
func ValidateCase(tc *domain.TestCase, table *Table) []error {
	var errs []error
	for _, step := range tc.Steps {
		if err := ValidateStep(step, table); err != nil {
			if e, ok := err.(*domain.BugZeroError); ok {
				e.File = tc.Source
			}
			errs = append(errs, err)
		}
	}
	return errs
}
