package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/fjglira/bugzero/internal/action"
	"github.com/fjglira/bugzero/internal/domain"
)

const defaultChromeWait = 10 * time.Second

// ChromeOptions configures a Chrome session.
type ChromeOptions struct {
	Headless  bool
	ExecPath  string // Chrome binary; chromedp searches PATH when empty
	RemoteURL string // DevTools websocket URL of an already running browser
	UserAgent string
	Width     int
	Height    int
	Wait      time.Duration // Upper bound for each action, including element waits
}

// Chrome drives a real browser over the DevTools protocol.
type Chrome struct {
	ctx      context.Context
	cancels  []context.CancelFunc
	wait     time.Duration
	dispatch *Dispatcher

	closeOnce sync.Once
	closeErr  error
	mu        sync.Mutex
	closed    bool
}

// OpenChrome starts (or attaches to) a browser and opens one tab.
// When the browser fails to start the returned Chrome is non-nil and
// must still be closed to release the allocator.
func OpenChrome(ctx context.Context, opts ChromeOptions) (*Chrome, error) {
	if opts.Wait <= 0 {
		opts.Wait = defaultChromeWait
	}

	c := &Chrome{wait: opts.Wait, dispatch: NewDispatcher()}

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(context.WithoutCancel(ctx), opts.RemoteURL)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
		)
		if opts.Width > 0 && opts.Height > 0 {
			allocOpts = append(allocOpts, chromedp.WindowSize(opts.Width, opts.Height))
		}
		if opts.UserAgent != "" {
			allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
		}
		if opts.ExecPath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	}
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	c.ctx = tabCtx
	c.cancels = []context.CancelFunc{cancelTab, cancelAlloc}

	// The first Run starts the browser. It must not carry a deadline or
	// the browser is torn down when the deadline passes.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()
	select {
	case err := <-started:
		if err != nil {
			return c, domain.NewErrorWithSuggestion("session", "", 0, "failed to start Chrome",
				"install Chrome/Chromium or set browser.exec_path, or use --driver static",
				fmt.Errorf("%w: %w", domain.ErrSessionSetup, err))
		}
	case <-ctx.Done():
		return c, fmt.Errorf("%w: %w", domain.ErrSessionSetup, ctx.Err())
	}

	c.dispatch.Handle(action.OpNavigate, c.navigate)
	c.dispatch.Handle(action.OpClick, c.click)
	c.dispatch.Handle(action.OpType, c.typeText)
	c.dispatch.Handle(action.OpClear, c.clear)
	c.dispatch.Handle(action.OpSubmit, c.submit)
	c.dispatch.Handle(action.OpAssertText, c.assertText)
	c.dispatch.Handle(action.OpAssertTitle, c.assertTitle)
	c.dispatch.Handle(action.OpAssertPresent, c.assertPresent)
	c.dispatch.Handle(action.OpWaitVisible, c.waitVisible)
	c.dispatch.Handle(action.OpSleep, sleep)
	c.dispatch.Handle(action.OpBack, c.simple(chromedp.NavigateBack()))
	c.dispatch.Handle(action.OpForward, c.simple(chromedp.NavigateForward()))
	c.dispatch.Handle(action.OpRefresh, c.simple(chromedp.Reload()))
	return c, nil
}

// Run executes one compiled action.
func (c *Chrome) Run(ctx context.Context, a domain.CompiledAction) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}
	return c.dispatch.Dispatch(ctx, a)
}

// Close shuts the browser down. Calling it more than once is a no-op.
func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		if c.ctx != nil {
			c.closeErr = chromedp.Cancel(c.ctx)
		}
		for _, cancel := range c.cancels {
			cancel()
		}
	})
	return c.closeErr
}

// do runs tasks in the tab, bounded by the session wait and by ctx.
func (c *Chrome) do(ctx context.Context, tasks ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, c.wait)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, tasks...)
	if err != nil && runCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("timed out after %s: %w", c.wait, err)
	}
	return err
}

func (c *Chrome) simple(task chromedp.Action) Handler {
	return func(ctx context.Context, _ action.Instruction) error {
		return c.do(ctx, task)
	}
}

func (c *Chrome) navigate(ctx context.Context, in action.Instruction) error {
	return c.do(ctx, chromedp.Navigate(in.Value))
}

func (c *Chrome) click(ctx context.Context, in action.Instruction) error {
	sel, opt := chromeSelector(in)
	return c.do(ctx, chromedp.Click(sel, opt, chromedp.NodeVisible))
}

func (c *Chrome) typeText(ctx context.Context, in action.Instruction) error {
	sel, opt := chromeSelector(in)
	return c.do(ctx, chromedp.SendKeys(sel, in.Value, opt, chromedp.NodeVisible))
}

func (c *Chrome) clear(ctx context.Context, in action.Instruction) error {
	sel, opt := chromeSelector(in)
	return c.do(ctx, chromedp.Clear(sel, opt))
}

func (c *Chrome) submit(ctx context.Context, in action.Instruction) error {
	sel, opt := chromeSelector(in)
	return c.do(ctx, chromedp.Submit(sel, opt))
}

func (c *Chrome) assertText(ctx context.Context, in action.Instruction) error {
	sel, opt := chromeSelector(in)
	var text string
	if err := c.do(ctx, chromedp.Text(sel, &text, opt, chromedp.NodeVisible)); err != nil {
		return err
	}
	text = strings.Join(strings.Fields(text), " ")
	if !strings.Contains(text, in.Value) {
		return fmt.Errorf("%w: expected %s=%s to contain %q, got %q", ErrAssertion, in.By, in.Locator, in.Value, truncate(text, 120))
	}
	return nil
}

func (c *Chrome) assertTitle(ctx context.Context, in action.Instruction) error {
	var title string
	if err := c.do(ctx, chromedp.Title(&title)); err != nil {
		return err
	}
	if !strings.Contains(title, in.Value) {
		return fmt.Errorf("%w: expected title to contain %q, got %q", ErrAssertion, in.Value, title)
	}
	return nil
}

func (c *Chrome) assertPresent(ctx context.Context, in action.Instruction) error {
	sel, opt := chromeSelector(in)
	err := c.do(ctx, chromedp.WaitReady(sel, opt))
	if err != nil {
		return fmt.Errorf("%w: %s=%s: %w", ErrElementNotFound, in.By, in.Locator, err)
	}
	return nil
}

func (c *Chrome) waitVisible(ctx context.Context, in action.Instruction) error {
	sel, opt := chromeSelector(in)
	return c.do(ctx, chromedp.WaitVisible(sel, opt))
}

// chromeSelector maps a locator strategy onto a chromedp selector and
// query option.
func chromeSelector(in action.Instruction) (string, chromedp.QueryOption) {
	switch in.By {
	case action.ByID:
		return "#" + cssIdent(in.Locator), chromedp.ByQuery
	case action.ByName:
		return fmt.Sprintf("[name=%q]", in.Locator), chromedp.ByQuery
	case action.ByClassName:
		return fmt.Sprintf("[class~=%q]", in.Locator), chromedp.ByQuery
	case action.ByXPath:
		return in.Locator, chromedp.BySearch
	case action.ByLinkText:
		return fmt.Sprintf("//a[normalize-space(.)=%s]", xpathLiteral(in.Locator)), chromedp.BySearch
	}
	return in.Locator, chromedp.ByQuery
}

// cssIdent escapes characters that are not valid in a CSS identifier.
func cssIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '-' || r == '_' || r >= 0x80,
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				fmt.Fprintf(&b, "\\%x ", r)
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

// xpathLiteral quotes s for use inside an XPath expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = `"` + p + `"`
	}
	return "concat(" + strings.Join(quoted, `, '"', `) + ")"
}
