package domain

import (
	"errors"
	"fmt"
)

// Error kinds. A BugZeroError matches one of these through errors.Is when its
// Cause chain contains it.
var (
	ErrNotFound            = errors.New("not found")
	ErrTranslationNotFound = errors.New("translation not found")
	ErrInvalidStep         = errors.New("invalid step")
	ErrSessionSetup        = errors.New("browser session setup failed")
	ErrReportBuild         = errors.New("report build failed")
)

// BugZeroError is the base error type with context.
type BugZeroError struct {
	Phase      string // "config", "scan", "source", "translation", "session", "report", "render", "history", "metrics", "tracing", "watch"
	File       string
	Step       int
	Message    string
	Suggestion string
	Cause      error
}

func (e *BugZeroError) Error() string {
	s := fmt.Sprintf("[%s]", e.Phase)
	if e.File != "" {
		s += fmt.Sprintf(" %s", e.File)
	}
	if e.Step > 0 {
		s += fmt.Sprintf(" step %d", e.Step)
	}
	s += fmt.Sprintf(": %s", e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(": %v", e.Cause)
	}
	if e.Suggestion != "" {
		s += fmt.Sprintf(" (hint: %s)", e.Suggestion)
	}
	return s
}

func (e *BugZeroError) Unwrap() error {
	return e.Cause
}

// NewError creates a new BugZeroError.
func NewError(phase, file string, step int, message string, cause error) *BugZeroError {
	return &BugZeroError{
		Phase:   phase,
		File:    file,
		Step:    step,
		Message: message,
		Cause:   cause,
	}
}

// NewErrorWithSuggestion creates a BugZeroError carrying a hint for the user.
func NewErrorWithSuggestion(phase, file string, step int, message, suggestion string, cause error) *BugZeroError {
	e := NewError(phase, file, step, message, cause)
	e.Suggestion = suggestion
	return e
}
