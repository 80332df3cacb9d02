package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fjglira/bugzero/internal/action"
	"github.com/fjglira/bugzero/internal/domain"
)

// StaticOptions configures a Static session.
type StaticOptions struct {
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client // Optional; a client with Timeout is created when nil
}

// Static is an HTTP-only session. It fetches pages with net/http and
// inspects them with goquery, so there is no JavaScript and no layout:
// clicks follow links and submit forms, typing fills form fields, and
// visibility only considers the hidden attribute and inline display:none.
type Static struct {
	client    *http.Client
	userAgent string
	dispatch  *Dispatcher

	page    *staticPage
	history []string
	pos     int
	fields  map[string]string

	closeOnce sync.Once
	closed    bool
}

type staticPage struct {
	url *url.URL
	doc *goquery.Document
}

// NewStatic creates a Static session.
func NewStatic(opts StaticOptions) *Static {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	s := &Static{
		client:    client,
		userAgent: opts.UserAgent,
		dispatch:  NewDispatcher(),
		pos:       -1,
		fields:    make(map[string]string),
	}
	s.dispatch.Handle(action.OpNavigate, s.navigate)
	s.dispatch.Handle(action.OpClick, s.click)
	s.dispatch.Handle(action.OpType, s.typeText)
	s.dispatch.Handle(action.OpClear, s.clear)
	s.dispatch.Handle(action.OpSubmit, s.submit)
	s.dispatch.Handle(action.OpAssertText, s.assertText)
	s.dispatch.Handle(action.OpAssertTitle, s.assertTitle)
	s.dispatch.Handle(action.OpAssertPresent, s.assertPresent)
	s.dispatch.Handle(action.OpWaitVisible, s.waitVisible)
	s.dispatch.Handle(action.OpSleep, sleep)
	s.dispatch.Handle(action.OpBack, s.back)
	s.dispatch.Handle(action.OpForward, s.forward)
	s.dispatch.Handle(action.OpRefresh, s.refresh)
	return s
}

// Run executes one compiled action.
func (s *Static) Run(ctx context.Context, a domain.CompiledAction) error {
	if s.closed {
		return ErrSessionClosed
	}
	return s.dispatch.Dispatch(ctx, a)
}

// Close releases idle connections. Calling it more than once is a no-op.
func (s *Static) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		s.client.CloseIdleConnections()
	})
	return nil
}

// URL returns the current page URL, or "" before the first navigation.
func (s *Static) URL() string {
	if s.page == nil {
		return ""
	}
	return s.page.url.String()
}

func (s *Static) navigate(ctx context.Context, in action.Instruction) error {
	u, err := s.resolve(in.Value)
	if err != nil {
		return err
	}
	return s.visit(ctx, http.MethodGet, u, nil)
}

// visit loads a page and records it in the history.
func (s *Static) visit(ctx context.Context, method string, u *url.URL, form url.Values) error {
	if err := s.load(ctx, method, u, form); err != nil {
		return err
	}
	s.history = append(s.history[:s.pos+1], s.page.url.String())
	s.pos = len(s.history) - 1
	return nil
}

func (s *Static) load(ctx context.Context, method string, u *url.URL, form url.Values) error {
	var body *strings.Reader
	if method == http.MethodPost {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: unexpected status %d", method, u, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse HTML from %s: %w", u, err)
	}
	s.page = &staticPage{url: resp.Request.URL, doc: doc}
	s.fields = make(map[string]string)
	return nil
}

func (s *Static) resolve(raw string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if s.page != nil {
		return s.page.url.ResolveReference(ref), nil
	}
	if !ref.IsAbs() {
		return nil, fmt.Errorf("relative url %q with no page loaded", raw)
	}
	return ref, nil
}

// find returns the first element matching the instruction's locator.
func (s *Static) find(in action.Instruction) (*goquery.Selection, error) {
	if s.page == nil {
		return nil, ErrNoPage
	}
	var sel *goquery.Selection
	doc := s.page.doc
	switch in.By {
	case action.ByCSS, action.ByTagName:
		sel = doc.Find(in.Locator)
	case action.ByID:
		sel = doc.Find(fmt.Sprintf("[id=%q]", in.Locator))
	case action.ByName:
		sel = doc.Find(fmt.Sprintf("[name=%q]", in.Locator))
	case action.ByClassName:
		sel = doc.Find(fmt.Sprintf("[class~=%q]", in.Locator))
	case action.ByLinkText:
		sel = doc.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return strings.TrimSpace(a.Text()) == in.Locator
		})
	default:
		return nil, fmt.Errorf("%s locators: %w", in.By, ErrUnsupported)
	}
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s=%s", ErrElementNotFound, in.By, in.Locator)
	}
	return sel.First(), nil
}

func (s *Static) click(ctx context.Context, in action.Instruction) error {
	el, err := s.find(in)
	if err != nil {
		return err
	}
	switch {
	case goquery.NodeName(el) == "a":
		href, ok := el.Attr("href")
		if !ok {
			return nil
		}
		u, err := s.resolve(href)
		if err != nil {
			return err
		}
		return s.visit(ctx, http.MethodGet, u, nil)
	case isSubmitControl(el):
		form := el.Closest("form")
		if form.Length() == 0 {
			return nil
		}
		return s.submitForm(ctx, form)
	}
	return nil
}

func isSubmitControl(el *goquery.Selection) bool {
	typ := strings.ToLower(el.AttrOr("type", ""))
	switch goquery.NodeName(el) {
	case "button":
		return typ == "" || typ == "submit"
	case "input":
		return typ == "submit" || typ == "image"
	}
	return false
}

func (s *Static) typeText(_ context.Context, in action.Instruction) error {
	el, err := s.find(in)
	if err != nil {
		return err
	}
	key, err := fieldKey(el)
	if err != nil {
		return err
	}
	s.fields[key] = s.fieldValue(el, key) + in.Value
	return nil
}

func (s *Static) clear(_ context.Context, in action.Instruction) error {
	el, err := s.find(in)
	if err != nil {
		return err
	}
	key, err := fieldKey(el)
	if err != nil {
		return err
	}
	s.fields[key] = ""
	return nil
}

func fieldKey(el *goquery.Selection) (string, error) {
	switch goquery.NodeName(el) {
	case "input", "textarea", "select":
	default:
		return "", fmt.Errorf("<%s> is not a form field: %w", goquery.NodeName(el), ErrUnsupported)
	}
	if name, ok := el.Attr("name"); ok && name != "" {
		return name, nil
	}
	if id, ok := el.Attr("id"); ok && id != "" {
		return "#" + id, nil
	}
	return "", fmt.Errorf("form field has neither name nor id: %w", ErrUnsupported)
}

func (s *Static) fieldValue(el *goquery.Selection, key string) string {
	if v, ok := s.fields[key]; ok {
		return v
	}
	switch goquery.NodeName(el) {
	case "textarea":
		return el.Text()
	case "select":
		opt := el.Find("option[selected]")
		if opt.Length() == 0 {
			opt = el.Find("option")
		}
		return opt.First().AttrOr("value", strings.TrimSpace(opt.First().Text()))
	}
	return el.AttrOr("value", "")
}

func (s *Static) submit(ctx context.Context, in action.Instruction) error {
	el, err := s.find(in)
	if err != nil {
		return err
	}
	form := el
	if goquery.NodeName(el) != "form" {
		form = el.Closest("form")
	}
	if form.Length() == 0 {
		return fmt.Errorf("%s=%s is not inside a form: %w", in.By, in.Locator, ErrUnsupported)
	}
	return s.submitForm(ctx, form)
}

func (s *Static) submitForm(ctx context.Context, form *goquery.Selection) error {
	target, err := s.resolve(form.AttrOr("action", ""))
	if err != nil {
		return err
	}

	values := url.Values{}
	form.Find("input, textarea, select").Each(func(_ int, el *goquery.Selection) {
		name := el.AttrOr("name", "")
		if name == "" {
			return
		}
		switch strings.ToLower(el.AttrOr("type", "")) {
		case "submit", "button", "reset", "image", "file":
			return
		case "checkbox", "radio":
			if _, checked := el.Attr("checked"); !checked {
				return
			}
			values.Add(name, el.AttrOr("value", "on"))
			return
		}
		values.Add(name, s.fieldValue(el, name))
	})

	if strings.EqualFold(form.AttrOr("method", "get"), http.MethodPost) {
		return s.visit(ctx, http.MethodPost, target, values)
	}
	target.RawQuery = values.Encode()
	return s.visit(ctx, http.MethodGet, target, nil)
}

func (s *Static) assertText(_ context.Context, in action.Instruction) error {
	el, err := s.find(in)
	if err != nil {
		return err
	}
	text := strings.Join(strings.Fields(el.Text()), " ")
	if !strings.Contains(text, in.Value) {
		return fmt.Errorf("%w: expected %s=%s to contain %q, got %q", ErrAssertion, in.By, in.Locator, in.Value, truncate(text, 120))
	}
	return nil
}

func (s *Static) assertTitle(_ context.Context, in action.Instruction) error {
	if s.page == nil {
		return ErrNoPage
	}
	title := strings.TrimSpace(s.page.doc.Find("title").First().Text())
	if !strings.Contains(title, in.Value) {
		return fmt.Errorf("%w: expected title to contain %q, got %q", ErrAssertion, in.Value, title)
	}
	return nil
}

func (s *Static) assertPresent(_ context.Context, in action.Instruction) error {
	_, err := s.find(in)
	return err
}

func (s *Static) waitVisible(_ context.Context, in action.Instruction) error {
	el, err := s.find(in)
	if err != nil {
		return err
	}
	for n := el; n.Length() > 0 && goquery.NodeName(n) != "html"; n = n.Parent() {
		if isHidden(n) {
			return fmt.Errorf("%w: %s=%s is not visible", ErrAssertion, in.By, in.Locator)
		}
	}
	return nil
}

func isHidden(el *goquery.Selection) bool {
	if _, ok := el.Attr("hidden"); ok {
		return true
	}
	if goquery.NodeName(el) == "input" && strings.EqualFold(el.AttrOr("type", ""), "hidden") {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(el.AttrOr("style", "")), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func (s *Static) back(ctx context.Context, _ action.Instruction) error {
	if s.pos <= 0 {
		return fmt.Errorf("no previous page in history")
	}
	return s.jump(ctx, s.pos-1)
}

func (s *Static) forward(ctx context.Context, _ action.Instruction) error {
	if s.pos+1 >= len(s.history) {
		return fmt.Errorf("no next page in history")
	}
	return s.jump(ctx, s.pos+1)
}

func (s *Static) refresh(ctx context.Context, _ action.Instruction) error {
	if s.page == nil {
		return ErrNoPage
	}
	return s.jump(ctx, s.pos)
}

func (s *Static) jump(ctx context.Context, pos int) error {
	u, err := url.Parse(s.history[pos])
	if err != nil {
		return err
	}
	if err := s.load(ctx, http.MethodGet, u, nil); err != nil {
		return err
	}
	s.pos = pos
	return nil
}

// sleep pauses for the instruction's duration or until ctx is done.
func sleep(ctx context.Context, in action.Instruction) error {
	d, err := in.Duration()
	if err != nil {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
