package runner_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/history"
	"github.com/fjglira/bugzero/internal/metrics"
	"github.com/fjglira/bugzero/internal/runner"
	"github.com/fjglira/bugzero/internal/session"
)

const table = `OpenURL: 'open "{url}"'
VerifyTitle: 'assert_title "{value}"'
Click: 'click "{locator}"'
VerifyText: 'assert_text "{locator}" "{value}"'
`

const caseTemplate = `name: Shop smoke
steps:
  - step: 1
    command: OpenURL
    value: %s
  - step: 2
    command: VerifyTitle
    value: Shop
  - step: 3
    command: Hover
    locator: "#menu"
  - step: 4
    command: Click
    locator: "#missing"
  - step: 5
    command: VerifyText
    locator: h1
    value: Welcome
`

func writeFile(path, content string) {
	Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
}

var _ = Describe("Runner", func() {
	var (
		site     *httptest.Server
		dir      string
		casePath string
		cfg      *config.Config
		log      *logrus.Logger
		store    *history.Store
		rec      *metrics.Recorder
	)

	BeforeEach(func() {
		site = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><head><title>Shop</title></head><body><h1>Welcome</h1></body></html>`)
		}))
		DeferCleanup(site.Close)

		dir = GinkgoT().TempDir()
		writeFile(filepath.Join(dir, "table.yaml"), table)
		casePath = filepath.Join(dir, "cases", "smoke.yaml")
		writeFile(casePath, fmt.Sprintf(caseTemplate, site.URL))

		cfg = config.DefaultConfig()
		cfg.Translation.Path = filepath.Join(dir, "table.yaml")
		cfg.Input.Directories = []string{filepath.Join(dir, "cases")}
		cfg.Browser.Driver = "static"
		cfg.Report.Directory = filepath.Join(dir, "reports")
		cfg.Report.Formats = []string{"html", "json"}
		cfg.Report.Open = false
		cfg.Report.Console = false
		cfg.Metrics.Textfile = filepath.Join(dir, "bugzero.prom")

		log = logrus.New()
		log.SetOutput(io.Discard)

		var err error
		store, err = history.Open(filepath.Join(dir, "history.db"))
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(store.Close)
		rec = metrics.New()
	})

	newRunner := func(opener session.Opener) *runner.Runner {
		r, err := runner.NewRunner(cfg, opener, store, rec, log)
		Expect(err).ToNot(HaveOccurred())
		return r
	}

	staticOpener := func() session.Opener {
		opener, err := session.NewOpener(cfg.Browser)
		Expect(err).ToNot(HaveOccurred())
		return opener
	}

	It("runs a test case end to end and keeps going after a failed step", func() {
		r := newRunner(staticOpener())
		var out bytes.Buffer
		r.SetConsole(&out)

		rep, err := r.Run(context.Background(), casePath)
		Expect(err).ToNot(HaveOccurred())

		Expect(rep.Name).To(Equal("Shop smoke"))
		Expect(rep.Summary).To(Equal(domain.Summary{Total: 4, Passed: 3, Failed: 1}))
		Expect(rep.Skipped).To(HaveLen(1))
		Expect(rep.Skipped[0].Command).To(Equal("Hover"))
		Expect(rep.Entries[2].Action.StepNumber).To(Equal(4))
		Expect(rep.Entries[2].Result.Status).To(Equal(domain.StatusFail))
		Expect(rep.Entries[3].Result.Status).To(Equal(domain.StatusPass))

		Expect(out.String()).To(ContainSubstring("Failed: 1"))

		files, err := filepath.Glob(filepath.Join(cfg.Report.Directory, "test_report_*"))
		Expect(err).ToNot(HaveOccurred())
		Expect(files).To(HaveLen(2))

		saved, err := store.Get(context.Background(), rep.RunID)
		Expect(err).ToNot(HaveOccurred())
		Expect(saved.Summary).To(Equal(rep.Summary))

		prom, err := os.ReadFile(cfg.Metrics.Textfile)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(prom)).To(ContainSubstring("bugzero_runs_total 1"))
	})

	It("prepares a plan without running it", func() {
		r := newRunner(staticOpener())
		tbl, err := r.LoadTable()
		Expect(err).ToNot(HaveOccurred())

		plan, err := r.Prepare(tbl, casePath)
		Expect(err).ToNot(HaveOccurred())
		Expect(plan.Actions).To(HaveLen(4))
		Expect(plan.Actions[0].Text).To(Equal(fmt.Sprintf("open %q", site.URL)))
		Expect(plan.Skipped).To(HaveLen(1))
	})

	It("discovers and runs every case in the input directories", func() {
		writeFile(filepath.Join(dir, "cases", "title.yaml"), `- step: 1
  command: OpenURL
  value: `+site.URL+`
- step: 2
  command: VerifyTitle
  value: Shop
`)
		r := newRunner(staticOpener())

		reports, err := r.RunAll(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(reports).To(HaveLen(2))
		Expect(runner.Failed(reports)).To(Equal(1))

		files, err := filepath.Glob(filepath.Join(cfg.Report.Directory, "test_report_*.html"))
		Expect(err).ToNot(HaveOccurred())
		Expect(files).To(HaveLen(2))
		jsonFiles, err := filepath.Glob(filepath.Join(cfg.Report.Directory, "test_report_*.json"))
		Expect(err).ToNot(HaveOccurred())
		Expect(jsonFiles).To(HaveLen(2))

		runs, err := store.List(context.Background(), 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(runs).To(HaveLen(2))
	})

	It("returns nothing when no cases are found", func() {
		cfg.Input.Directories = []string{filepath.Join(dir, "empty")}
		Expect(os.MkdirAll(cfg.Input.Directories[0], 0o755)).To(Succeed())

		reports, err := newRunner(staticOpener()).RunAll(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(reports).To(BeEmpty())
	})

	It("fails without a report when the session cannot be acquired", func() {
		closed := 0
		opener := session.OpenerFunc(func(ctx context.Context) (session.Session, error) {
			return closeCounter{&closed}, errors.New("no browser here")
		})

		rep, err := newRunner(opener).Run(context.Background(), casePath)
		Expect(err).To(MatchError(domain.ErrSessionSetup))
		Expect(rep).To(BeNil())
		Expect(closed).To(Equal(1))

		_, statErr := os.Stat(cfg.Report.Directory)
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	It("fails when the translation table is missing", func() {
		cfg.Translation.Path = filepath.Join(dir, "nope.yaml")
		_, err := newRunner(staticOpener()).Run(context.Background(), casePath)
		Expect(err).To(MatchError(domain.ErrNotFound))
	})

	It("fails when the test case is missing", func() {
		_, err := newRunner(staticOpener()).Run(context.Background(), filepath.Join(dir, "nope.yaml"))
		Expect(err).To(MatchError(domain.ErrNotFound))
	})

	It("rejects unknown report formats up front", func() {
		cfg.Report.Formats = []string{"pdf"}
		_, err := runner.NewRunner(cfg, staticOpener(), nil, nil, log)
		Expect(err).To(HaveOccurred())
	})
})

type closeCounter struct{ n *int }

func (c closeCounter) Run(context.Context, domain.CompiledAction) error { return nil }

func (c closeCounter) Close() error {
	*c.n++
	return nil
}
