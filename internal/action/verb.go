package action

import (
	"fmt"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

type verbSpec struct {
	op      Op
	locator bool
	value   bool
}

var verbs = map[string]verbSpec{
	"open":           {op: OpNavigate, value: true},
	"navigate":       {op: OpNavigate, value: true},
	"get":            {op: OpNavigate, value: true},
	"goto":           {op: OpNavigate, value: true},
	"click":          {op: OpClick, locator: true},
	"type":           {op: OpType, locator: true, value: true},
	"send_keys":      {op: OpType, locator: true, value: true},
	"fill":           {op: OpType, locator: true, value: true},
	"clear":          {op: OpClear, locator: true},
	"submit":         {op: OpSubmit, locator: true},
	"assert_text":    {op: OpAssertText, locator: true, value: true},
	"assert_title":   {op: OpAssertTitle, value: true},
	"assert_present": {op: OpAssertPresent, locator: true},
	"wait_visible":   {op: OpWaitVisible, locator: true},
	"sleep":          {op: OpSleep, value: true},
	"wait":           {op: OpSleep, value: true},
	"back":           {op: OpBack},
	"forward":        {op: OpForward},
	"refresh":        {op: OpRefresh},
}

func parseVerb(text string) (Instruction, error) {
	words, err := shellwords.Parse(text)
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(words) == 0 {
		return Instruction{}, fmt.Errorf("%w: empty action", ErrSyntax)
	}

	verb := strings.ToLower(words[0])
	spec, ok := verbs[verb]
	if !ok {
		return Instruction{}, fmt.Errorf("%w: %q", ErrUnknownAction, words[0])
	}

	args := words[1:]
	want := 0
	if spec.locator {
		want++
	}
	if spec.value {
		want++
	}
	// A trailing empty value (e.g. `click "#go" ""`) is tolerated.
	if len(args) == want+1 && args[want] == "" {
		args = args[:want]
	}
	if len(args) != want {
		return Instruction{}, fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrSyntax, verb, want, len(args))
	}

	in := Instruction{Op: spec.op}
	if spec.locator {
		in.By, in.Locator = ParseLocator(args[0])
		args = args[1:]
	}
	if spec.value {
		in.Value = args[0]
	}
	if in.Op == OpSleep {
		if _, err := in.Duration(); err != nil {
			return Instruction{}, err
		}
	}
	return in, nil
}
