package domain

import "time"

// TestStep is one row of a test case.
type TestStep struct {
	Number  int    `yaml:"step" json:"step"`                           // Ordering hint, informational only
	Command string `yaml:"command" json:"command"`                     // Translation table key
	Locator string `yaml:"locator,omitempty" json:"locator,omitempty"` // Needed when the template has {locator}
	Value   string `yaml:"value,omitempty" json:"value,omitempty"`     // Fills {value} and {url}
}

// TestCase is an ordered sequence of steps loaded from one source file.
type TestCase struct {
	Name   string
	Source string
	Steps  []TestStep
}

// CompiledAction is the placeholder-free action derived from exactly one step.
type CompiledAction struct {
	StepNumber int
	Command    string
	Text       string // Template with every placeholder substituted
	Locator    string
	Value      string
}

// Status is the outcome of running a single compiled action.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// ExecutionResult is the outcome of one compiled action.
type ExecutionResult struct {
	Status   Status
	Message  string // Diagnostic from the driver, empty on pass
	Duration time.Duration
}

// Passed reports whether the action succeeded.
func (r ExecutionResult) Passed() bool {
	return r.Status == StatusPass
}

// String renders the result the way the console and legacy reports show it.
func (r ExecutionResult) String() string {
	if r.Status == StatusFail {
		return "FAIL: " + r.Message
	}
	return string(r.Status)
}

// Pass returns a passing result.
func Pass(d time.Duration) ExecutionResult {
	return ExecutionResult{Status: StatusPass, Duration: d}
}

// Fail returns a failing result carrying the driver diagnostic.
func Fail(message string, d time.Duration) ExecutionResult {
	return ExecutionResult{Status: StatusFail, Message: message, Duration: d}
}

// ReportEntry pairs a compiled action with its result.
type ReportEntry struct {
	Index  int // 1-based position in the executed sequence
	Action CompiledAction
	Result ExecutionResult
}

// Summary holds the aggregate counts of a run. Passed + Failed == Total.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Report is the read-only aggregate handed to renderers.
type Report struct {
	RunID       string
	Name        string
	Source      string
	Entries     []ReportEntry
	Summary     Summary
	Skipped     []TestStep // Steps dropped because their command did not resolve
	GeneratedAt time.Time
	Duration    time.Duration
}

// Succeeded reports whether every executed action passed.
func (r *Report) Succeeded() bool {
	return r.Summary.Failed == 0
}
