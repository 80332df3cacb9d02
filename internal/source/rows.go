package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fjglira/bugzero/internal/domain"
)

const (
	colStep    = "step"
	colCommand = "command"
	colLocator = "locator"
	colValue   = "value"
)

// header maps lower-cased column names to their index.
type header map[string]int

func parseHeader(row []string) header {
	h := make(header)
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := h[key]; key != "" && !dup {
			h[key] = i
		}
	}
	return h
}

// find returns the index of the first candidate column present.
func (h header) find(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := h[strings.ToLower(strings.TrimSpace(n))]; ok {
			return i, true
		}
	}
	return -1, false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// stepsFromRows converts a header row plus data rows into steps. Step and
// Command columns are required; Locator and Value default to "".
func stepsFromRows(path string, rows [][]string) ([]domain.TestStep, error) {
	for len(rows) > 0 && isBlank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, domain.NewError("source", path, 0, "test case is empty", domain.ErrInvalidStep)
	}

	h := parseHeader(rows[0])
	stepCol, hasStep := h.find(colStep)
	commandCol, hasCommand := h.find(colCommand)
	if !hasStep || !hasCommand {
		return nil, domain.NewErrorWithSuggestion("source", path, 0,
			"test case file must contain columns: Step, Command",
			"add a header row with Step, Command, Locator and Value", domain.ErrInvalidStep)
	}
	locatorCol, _ := h.find(colLocator)
	valueCol, _ := h.find(colValue)

	var steps []domain.TestStep
	for i, row := range rows[1:] {
		command := strings.TrimSpace(cell(row, commandCol))
		if command == "" {
			continue
		}
		steps = append(steps, domain.TestStep{
			Number:  stepNumber(cell(row, stepCol), i+1),
			Command: command,
			Locator: cell(row, locatorCol),
			Value:   cell(row, valueCol),
		})
	}
	return steps, nil
}

// stepNumber parses a Step cell, falling back to the row position.
func stepNumber(s string, position int) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f == float64(int(f)) {
		return int(f)
	}
	return position
}

// normalizeSteps drops blank commands and numbers unnumbered steps by position.
func normalizeSteps(steps []domain.TestStep) []domain.TestStep {
	out := make([]domain.TestStep, 0, len(steps))
	for i, s := range steps {
		s.Command = strings.TrimSpace(s.Command)
		if s.Command == "" {
			continue
		}
		if s.Number <= 0 {
			s.Number = i + 1
		}
		out = append(out, s)
	}
	return out
}

// renumber returns a copy of steps numbered 1..N.
func renumber(steps []domain.TestStep) []domain.TestStep {
	out := make([]domain.TestStep, len(steps))
	for i, s := range steps {
		s.Number = i + 1
		out[i] = s
	}
	return out
}

func stepRow(s domain.TestStep) []string {
	return []string{fmt.Sprint(s.Number), s.Command, s.Locator, s.Value}
}

var stepHeader = []string{"Step", "Command", "Locator", "Value"}
