// Package action turns compiled action text into a structured Instruction.
//
// Two surface forms are accepted. The call-chain form reads like a Selenium
// script line:
//
//	driver.get("https://example.com")
//	driver.find_element(By.ID, "q").send_keys("hello")
//
// The verb form is a shell-like command line:
//
//	open https://example.com
//	type id=q "hello"
//
// Nothing is evaluated; sessions interpret the returned Instruction.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrSyntax        = errors.New("action syntax error")
	ErrUnknownAction = errors.New("unknown action")
)

// Op identifies what a session must do.
type Op string

const (
	OpNavigate      Op = "navigate"
	OpClick         Op = "click"
	OpType          Op = "type"
	OpClear         Op = "clear"
	OpSubmit        Op = "submit"
	OpAssertText    Op = "assert_text"
	OpAssertTitle   Op = "assert_title"
	OpAssertPresent Op = "assert_present"
	OpWaitVisible   Op = "wait_visible"
	OpSleep         Op = "sleep"
	OpBack          Op = "back"
	OpForward       Op = "forward"
	OpRefresh       Op = "refresh"
)

// By is an element location strategy.
type By string

const (
	ByCSS       By = "css"
	ByID        By = "id"
	ByName      By = "name"
	ByXPath     By = "xpath"
	ByLinkText  By = "link_text"
	ByClassName By = "class_name"
	ByTagName   By = "tag_name"
)

// Instruction is the structured form of one compiled action.
type Instruction struct {
	Op      Op
	By      By     // Empty for ops without an element target
	Locator string // Element locator, interpreted according to By
	Value   string // URL, text to type, expected text or sleep duration
}

// Targeted reports whether the instruction addresses an element.
func (i Instruction) Targeted() bool {
	return i.By != ""
}

// Duration parses Value for sleep instructions. Bare numbers are seconds.
func (i Instruction) Duration() (time.Duration, error) {
	if secs, err := strconv.ParseFloat(i.Value, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("%w: negative sleep %q", ErrSyntax, i.Value)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(i.Value)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: invalid sleep duration %q", ErrSyntax, i.Value)
	}
	return d, nil
}

func (i Instruction) String() string {
	var b strings.Builder
	b.WriteString(string(i.Op))
	if i.Targeted() {
		fmt.Fprintf(&b, " %s=%s", i.By, i.Locator)
	}
	if i.Value != "" {
		fmt.Fprintf(&b, " %q", i.Value)
	}
	return b.String()
}

// Parse converts action text into an Instruction.
func Parse(text string) (Instruction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Instruction{}, fmt.Errorf("%w: empty action", ErrSyntax)
	}
	if isCallChain(text) {
		return parseChain(text)
	}
	return parseVerb(text)
}

// isCallChain reports whether text starts with an identifier directly
// followed by a dot or an opening parenthesis. A known verb followed by
// whitespace always starts a verb form, so `click .btn` stays a verb.
func isCallChain(text string) bool {
	i := 0
	for i < len(text) && isIdentChar(text[i], i == 0) {
		i++
	}
	if i == 0 || i == len(text) {
		return false
	}
	if _, ok := verbs[strings.ToLower(text[:i])]; ok && isBlank(text[i]) {
		return false
	}
	for i < len(text) && isBlank(text[i]) {
		i++
	}
	return i < len(text) && (text[i] == '.' || text[i] == '(')
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isIdentChar(c byte, first bool) bool {
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	return !first && c >= '0' && c <= '9'
}
