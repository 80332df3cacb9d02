// Package session holds the browser session capability: something that runs
// one compiled action against a live page and reports failure as an error.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjglira/bugzero/internal/action"
	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
)

var (
	ErrSessionClosed   = errors.New("browser session closed")
	ErrUnsupported     = errors.New("not supported by this driver")
	ErrElementNotFound = errors.New("element not found")
	ErrAssertion       = errors.New("assertion failed")
	ErrNoPage          = errors.New("no page loaded")
)

// Session runs compiled actions against one browser. Close is idempotent
// and safe on a session whose setup did not complete.
type Session interface {
	Run(ctx context.Context, a domain.CompiledAction) error
	Close() error
}

// Opener acquires a Session. It may return a non-nil Session together with
// an error when setup failed half way; the caller must still Close it.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

// Open calls f(ctx).
func (f OpenerFunc) Open(ctx context.Context) (Session, error) {
	return f(ctx)
}

// Handler performs one instruction.
type Handler func(ctx context.Context, in action.Instruction) error

// Dispatcher parses compiled action text and routes it to the handler
// registered for its op.
type Dispatcher struct {
	handlers map[action.Op]Handler
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[action.Op]Handler)}
}

// Handle registers h for op, replacing any previous handler.
func (d *Dispatcher) Handle(op action.Op, h Handler) {
	d.handlers[op] = h
}

// Supports reports whether op has a handler.
func (d *Dispatcher) Supports(op action.Op) bool {
	_, ok := d.handlers[op]
	return ok
}

// Dispatch parses a.Text and runs the matching handler.
func (d *Dispatcher) Dispatch(ctx context.Context, a domain.CompiledAction) error {
	in, err := action.Parse(a.Text)
	if err != nil {
		return err
	}
	h, ok := d.handlers[in.Op]
	if !ok {
		return fmt.Errorf("%s: %w", in.Op, ErrUnsupported)
	}
	return h(ctx, in)
}

// NewOpener returns the Opener for the configured driver.
func NewOpener(cfg config.BrowserConfig) (Opener, error) {
	switch cfg.Driver {
	case "chrome":
		opts := ChromeOptions{
			Headless:  cfg.Headless,
			ExecPath:  cfg.ExecPath,
			RemoteURL: cfg.RemoteURL,
			UserAgent: cfg.UserAgent,
			Width:     cfg.WindowWidth,
			Height:    cfg.WindowHeight,
			Wait:      cfg.Wait(),
		}
		return OpenerFunc(func(ctx context.Context) (Session, error) {
			c, err := OpenChrome(ctx, opts)
			if c == nil {
				return nil, err
			}
			return c, err
		}), nil
	case "static":
		opts := StaticOptions{Timeout: cfg.Wait(), UserAgent: cfg.UserAgent}
		return OpenerFunc(func(ctx context.Context) (Session, error) {
			return NewStatic(opts), nil
		}), nil
	}
	return nil, domain.NewError("session", "", 0, fmt.Sprintf("unknown browser driver %q", cfg.Driver), domain.ErrSessionSetup)
}
