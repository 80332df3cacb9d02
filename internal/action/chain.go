package action

import (
	"fmt"
	"strings"
)

// call is one segment of a call chain. Bare segments (receivers like
// "driver") have called == false.
type call struct {
	name   string
	args   []arg
	called bool
}

type argKind int

const (
	argString argKind = iota
	argNumber
	argIdent
)

type arg struct {
	kind argKind
	text string
}

// receivers are bare leading segments that carry no meaning.
var receivers = map[string]bool{
	"driver":  true,
	"browser": true,
	"self":    true,
	"page":    true,
	"time":    true,
}

type chainParser struct {
	lex *lexer
	tok token
}

func (p *chainParser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *chainParser) expect(kind tokenKind, what string) error {
	if p.tok.kind != kind {
		return fmt.Errorf("%w: expected %s at offset %d", ErrSyntax, what, p.tok.pos)
	}
	return p.advance()
}

func (p *chainParser) parse() ([]call, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var calls []call
	for {
		c, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
		if p.tok.kind == tokEOF {
			break
		}
		if err := p.expect(tokDot, "'.'"); err != nil {
			return nil, err
		}
	}
	return calls, nil
}

func (p *chainParser) parseCall() (call, error) {
	if p.tok.kind != tokIdent {
		return call{}, fmt.Errorf("%w: expected identifier at offset %d", ErrSyntax, p.tok.pos)
	}
	c := call{name: p.tok.text}
	if err := p.advance(); err != nil {
		return call{}, err
	}
	if p.tok.kind != tokLParen {
		return c, nil
	}
	c.called = true
	if err := p.advance(); err != nil {
		return call{}, err
	}
	for p.tok.kind != tokRParen {
		a, err := p.parseArg()
		if err != nil {
			return call{}, err
		}
		c.args = append(c.args, a)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return call{}, err
			}
			continue
		}
		if p.tok.kind != tokRParen {
			return call{}, fmt.Errorf("%w: expected ',' or ')' at offset %d", ErrSyntax, p.tok.pos)
		}
	}
	return c, p.advance()
}

func (p *chainParser) parseArg() (arg, error) {
	switch p.tok.kind {
	case tokString:
		a := arg{kind: argString, text: p.tok.text}
		return a, p.advance()
	case tokNumber:
		a := arg{kind: argNumber, text: p.tok.text}
		return a, p.advance()
	case tokIdent:
		parts := []string{p.tok.text}
		if err := p.advance(); err != nil {
			return arg{}, err
		}
		for p.tok.kind == tokDot {
			if err := p.advance(); err != nil {
				return arg{}, err
			}
			if p.tok.kind != tokIdent {
				return arg{}, fmt.Errorf("%w: expected identifier after '.' at offset %d", ErrSyntax, p.tok.pos)
			}
			parts = append(parts, p.tok.text)
			if err := p.advance(); err != nil {
				return arg{}, err
			}
		}
		return arg{kind: argIdent, text: strings.Join(parts, ".")}, nil
	}
	return arg{}, fmt.Errorf("%w: unexpected argument at offset %d", ErrSyntax, p.tok.pos)
}

func parseChain(text string) (Instruction, error) {
	p := &chainParser{lex: &lexer{src: text}}
	calls, err := p.parse()
	if err != nil {
		return Instruction{}, err
	}

	// Drop leading receivers such as "driver" or "self.driver".
	for len(calls) > 0 && !calls[0].called && receivers[calls[0].name] {
		calls = calls[1:]
	}
	if len(calls) == 0 {
		return Instruction{}, fmt.Errorf("%w: no call in %q", ErrSyntax, text)
	}
	for _, c := range calls {
		if !c.called {
			return Instruction{}, fmt.Errorf("%w: %q is not a call", ErrSyntax, c.name)
		}
	}
	return decodeChain(calls)
}

func decodeChain(calls []call) (Instruction, error) {
	first := calls[0]
	name := strings.ToLower(first.name)

	if op, ok := pageCalls[name]; ok {
		if len(calls) > 1 {
			return Instruction{}, fmt.Errorf("%w: %s() cannot be chained", ErrSyntax, first.name)
		}
		return decodePageCall(op, first)
	}

	by, locator, ok, err := decodeFind(name, first.args)
	if err != nil {
		return Instruction{}, err
	}
	if !ok {
		return Instruction{}, fmt.Errorf("%w: %s()", ErrUnknownAction, first.name)
	}

	in := Instruction{Op: OpAssertPresent, By: by, Locator: locator}
	switch len(calls) {
	case 1:
		return in, nil
	case 2:
	default:
		return Instruction{}, fmt.Errorf("%w: too many chained calls after %s()", ErrSyntax, first.name)
	}

	method := calls[1]
	spec, ok := elementCalls[strings.ToLower(method.name)]
	if !ok {
		return Instruction{}, fmt.Errorf("%w: element method %s()", ErrUnknownAction, method.name)
	}
	in.Op = spec.op
	if spec.value {
		if len(method.args) != 1 {
			return Instruction{}, fmt.Errorf("%w: %s() takes one argument", ErrSyntax, method.name)
		}
		in.Value = method.args[0].text
	} else if len(method.args) != 0 {
		return Instruction{}, fmt.Errorf("%w: %s() takes no arguments", ErrSyntax, method.name)
	}
	return in, nil
}

// pageCalls are calls that act on the page rather than an element.
var pageCalls = map[string]Op{
	"get":          OpNavigate,
	"open":         OpNavigate,
	"navigate":     OpNavigate,
	"navigate_to":  OpNavigate,
	"goto":         OpNavigate,
	"back":         OpBack,
	"forward":      OpForward,
	"refresh":      OpRefresh,
	"reload":       OpRefresh,
	"sleep":        OpSleep,
	"wait":         OpSleep,
	"assert_title": OpAssertTitle,
}

func decodePageCall(op Op, c call) (Instruction, error) {
	switch op {
	case OpBack, OpForward, OpRefresh:
		if len(c.args) != 0 {
			return Instruction{}, fmt.Errorf("%w: %s() takes no arguments", ErrSyntax, c.name)
		}
		return Instruction{Op: op}, nil
	}
	if len(c.args) != 1 || c.args[0].kind == argIdent {
		return Instruction{}, fmt.Errorf("%w: %s() takes one literal argument", ErrSyntax, c.name)
	}
	in := Instruction{Op: op, Value: c.args[0].text}
	if op == OpSleep {
		if _, err := in.Duration(); err != nil {
			return Instruction{}, err
		}
	}
	return in, nil
}

// decodeFind recognises element lookups: find(sel), find_element(sel),
// find_element(By.X, sel) and find_element_by_<strategy>(sel).
func decodeFind(name string, args []arg) (By, string, bool, error) {
	switch {
	case name == "find" || name == "find_element" || name == "element":
		switch len(args) {
		case 1:
			if args[0].kind != argString {
				return "", "", true, fmt.Errorf("%w: %s() locator must be a string", ErrSyntax, name)
			}
			by, loc := ParseLocator(args[0].text)
			return by, loc, true, nil
		case 2:
			by, ok := lookupBy(args[0].text)
			if !ok {
				return "", "", true, fmt.Errorf("%w: unknown locator strategy %q", ErrSyntax, args[0].text)
			}
			return by, args[1].text, true, nil
		}
		return "", "", true, fmt.Errorf("%w: %s() takes a locator", ErrSyntax, name)
	case strings.HasPrefix(name, "find_element_by_"):
		by, ok := findSuffixes[strings.TrimPrefix(name, "find_element_by_")]
		if !ok {
			return "", "", false, nil
		}
		if len(args) != 1 {
			return "", "", true, fmt.Errorf("%w: %s() takes one argument", ErrSyntax, name)
		}
		return by, args[0].text, true, nil
	}
	return "", "", false, nil
}

type elementSpec struct {
	op    Op
	value bool
}

var elementCalls = map[string]elementSpec{
	"click":          {op: OpClick},
	"send_keys":      {op: OpType, value: true},
	"type":           {op: OpType, value: true},
	"clear":          {op: OpClear},
	"submit":         {op: OpSubmit},
	"assert_text":    {op: OpAssertText, value: true},
	"text_contains":  {op: OpAssertText, value: true},
	"is_displayed":   {op: OpWaitVisible},
	"wait_visible":   {op: OpWaitVisible},
	"exists":         {op: OpAssertPresent},
	"assert_present": {op: OpAssertPresent},
}
