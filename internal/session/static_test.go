package session_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/bugzero/internal/action"
	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/session"
)

const homePage = `<html><head><title>Home</title></head><body>
<h1>Welcome   to   the shop</h1>
<a href="/login">Login</a>
<div style="display: none"><span id="secret">psst</span></div>
<p id="hint" hidden>hint</p>
<p class="note big">visible note</p>
</body></html>`

const loginPage = `<html><head><title>Sign in</title></head><body>
<form method="post" action="/session">
  <input id="user" name="user" type="text">
  <input name="pass" type="password">
  <input name="remember" type="checkbox" value="yes">
  <button id="go" type="submit">Sign in</button>
</form>
<form method="get" action="/search">
  <input name="q" value="shoes">
  <input id="search" type="submit" value="Search">
</form>
</body></html>`

func newSite() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, homePage)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, loginPage)
	})
	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprintf(w, `<html><head><title>Dashboard</title></head><body><h1>Hello, %s</h1><p id="remember">%s</p></body></html>`,
			r.PostFormValue("user"), r.PostFormValue("remember"))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Results</title></head><body><h2>Results for %s</h2></body></html>`, r.URL.Query().Get("q"))
	})
	return httptest.NewServer(mux)
}

func act(text string) domain.CompiledAction {
	return domain.CompiledAction{Text: text}
}

var _ = Describe("Static session", func() {
	var (
		site *httptest.Server
		s    *session.Static
		ctx  context.Context
	)

	BeforeEach(func() {
		site = newSite()
		s = session.NewStatic(session.StaticOptions{Client: site.Client()})
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(s.Close()).To(Succeed())
		site.Close()
	})

	run := func(text string) error {
		return s.Run(ctx, act(text))
	}

	It("navigates and asserts on the page", func() {
		Expect(run("open " + site.URL)).To(Succeed())
		Expect(run(`assert_title Home`)).To(Succeed())
		Expect(run(`assert_text h1 "Welcome to the shop"`)).To(Succeed())
		Expect(run(`assert_present "class=note"`)).To(Succeed())
	})

	It("accepts the call-chain form", func() {
		Expect(run(fmt.Sprintf(`driver.get(%q)`, site.URL))).To(Succeed())
		Expect(run(`driver.find_element(By.TAG_NAME, "h1").assert_text("Welcome")`)).To(Succeed())
	})

	It("reports a failed text assertion", func() {
		Expect(run("open " + site.URL)).To(Succeed())
		err := run(`assert_text h1 Goodbye`)
		Expect(err).To(MatchError(session.ErrAssertion))
		Expect(err.Error()).To(ContainSubstring(`"Goodbye"`))
	})

	It("reports a missing element", func() {
		Expect(run("open " + site.URL)).To(Succeed())
		Expect(run(`click "#nope"`)).To(MatchError(session.ErrElementNotFound))
	})

	It("fails before any page is loaded", func() {
		Expect(run(`click "#anything"`)).To(MatchError(session.ErrNoPage))
	})

	It("fails on HTTP error statuses", func() {
		err := run("open " + site.URL + "/does-not-exist")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("404"))
	})

	It("follows links by link text and resolves relative URLs", func() {
		Expect(run("open " + site.URL)).To(Succeed())
		Expect(run(`click "link=Login"`)).To(Succeed())
		Expect(s.URL()).To(Equal(site.URL + "/login"))

		Expect(run("open /")).To(Succeed())
		Expect(s.URL()).To(Equal(site.URL + "/"))
	})

	It("fills and submits a POST form through its submit button", func() {
		Expect(run("open " + site.URL + "/login")).To(Succeed())
		Expect(run(`type id=user ali`)).To(Succeed())
		Expect(run(`type "name=user" ce`)).To(Succeed())
		Expect(run(`click id=go`)).To(Succeed())

		Expect(run(`assert_title Dashboard`)).To(Succeed())
		Expect(run(`assert_text h1 "Hello, alice"`)).To(Succeed())
		Expect(run(`assert_text id=remember yes`)).ToNot(Succeed())
	})

	It("clears a field before typing", func() {
		Expect(run("open " + site.URL + "/login")).To(Succeed())
		Expect(run(`type id=user bob`)).To(Succeed())
		Expect(run(`clear id=user`)).To(Succeed())
		Expect(run(`type id=user carol`)).To(Succeed())
		Expect(run(`submit id=user`)).To(Succeed())
		Expect(run(`assert_text h1 "Hello, carol"`)).To(Succeed())
	})

	It("submits GET forms with their default values", func() {
		Expect(run("open " + site.URL + "/login")).To(Succeed())
		Expect(run(`click id=search`)).To(Succeed())
		Expect(s.URL()).To(Equal(site.URL + "/search?q=shoes"))
		Expect(run(`assert_text h2 "Results for shoes"`)).To(Succeed())
	})

	It("refuses to type into non-field elements", func() {
		Expect(run("open " + site.URL)).To(Succeed())
		Expect(run(`type h1 text`)).To(MatchError(session.ErrUnsupported))
	})

	It("checks visibility through hidden ancestors", func() {
		Expect(run("open " + site.URL)).To(Succeed())
		Expect(run(`wait_visible "class=note"`)).To(Succeed())
		Expect(run(`wait_visible id=secret`)).To(MatchError(session.ErrAssertion))
		Expect(run(`wait_visible id=hint`)).To(MatchError(session.ErrAssertion))
	})

	It("does not support xpath", func() {
		Expect(run("open " + site.URL)).To(Succeed())
		Expect(run(`click "//a"`)).To(MatchError(session.ErrUnsupported))
	})

	It("moves back and forward through history", func() {
		Expect(run("open " + site.URL)).To(Succeed())
		Expect(run(`click "link=Login"`)).To(Succeed())

		Expect(run("back")).To(Succeed())
		Expect(run(`assert_title Home`)).To(Succeed())
		Expect(run("forward")).To(Succeed())
		Expect(run(`assert_title "Sign in"`)).To(Succeed())
		Expect(run("refresh")).To(Succeed())
		Expect(run("forward")).To(HaveOccurred())
	})

	It("sleeps for the requested duration", func() {
		Expect(run("sleep 10ms")).To(Succeed())
	})

	It("rejects unparseable actions", func() {
		Expect(run(`frobnicate "#x"`)).To(MatchError(action.ErrUnknownAction))
	})

	It("is idempotent on Close and refuses work afterwards", func() {
		Expect(s.Close()).To(Succeed())
		Expect(s.Close()).To(Succeed())
		Expect(run("open " + site.URL)).To(MatchError(session.ErrSessionClosed))
	})
})

var _ = Describe("Dispatcher", func() {
	It("routes by op and reports unsupported ops", func() {
		d := session.NewDispatcher()
		var got action.Instruction
		d.Handle(action.OpClick, func(_ context.Context, in action.Instruction) error {
			got = in
			return nil
		})

		Expect(d.Supports(action.OpClick)).To(BeTrue())
		Expect(d.Supports(action.OpType)).To(BeFalse())

		Expect(d.Dispatch(context.Background(), act(`click id=go`))).To(Succeed())
		Expect(got).To(Equal(action.Instruction{Op: action.OpClick, By: action.ByID, Locator: "go"}))

		Expect(d.Dispatch(context.Background(), act(`type id=q x`))).To(MatchError(session.ErrUnsupported))
	})
})

var _ = Describe("NewOpener", func() {
	It("opens static sessions", func() {
		opener, err := session.NewOpener(config.BrowserConfig{Driver: "static"})
		Expect(err).ToNot(HaveOccurred())

		sess, err := opener.Open(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(sess).To(BeAssignableToTypeOf(&session.Static{}))
		Expect(sess.Close()).To(Succeed())
	})

	It("rejects unknown drivers", func() {
		_, err := session.NewOpener(config.BrowserConfig{Driver: "netscape"})
		Expect(err).To(MatchError(domain.ErrSessionSetup))
		Expect(err.Error()).To(ContainSubstring("netscape"))
	})
})

var _ = Describe("chromeSelector", func() {
	DescribeTable("maps locator strategies",
		func(by action.By, locator, expected string) {
			sel, _ := session.ChromeSelector(action.Instruction{Op: action.OpClick, By: by, Locator: locator})
			Expect(sel).To(Equal(expected))
		},
		Entry("css", action.ByCSS, "div > a", "div > a"),
		Entry("id", action.ByID, "login", "#login"),
		Entry("id with a dot", action.ByID, "a.b", `#a\.b`),
		Entry("name", action.ByName, "q", `[name="q"]`),
		Entry("class", action.ByClassName, "btn", `[class~="btn"]`),
		Entry("xpath", action.ByXPath, "//div", "//div"),
		Entry("link text", action.ByLinkText, "Sign in", `//a[normalize-space(.)="Sign in"]`),
		Entry("link text with double quotes", action.ByLinkText, `say "hi"`, `//a[normalize-space(.)='say "hi"']`),
	)
})
