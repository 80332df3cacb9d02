package history_test

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/history"
)

func reportAt(id string, at time.Time, failed bool) *domain.Report {
	second := domain.Pass(250 * time.Millisecond)
	if failed {
		second = domain.Fail("element not found", 250*time.Millisecond)
	}
	rep := &domain.Report{
		RunID:  id,
		Name:   "login",
		Source: "test_cases/login.yaml",
		Entries: []domain.ReportEntry{
			{Index: 1, Action: domain.CompiledAction{StepNumber: 1, Command: "OpenURL", Text: `driver.get("https://example.com")`, Value: "https://example.com"}, Result: domain.Pass(time.Second)},
			{Index: 2, Action: domain.CompiledAction{StepNumber: 2, Command: "Click", Text: `driver.find("#go").click()`, Locator: "#go"}, Result: second},
		},
		GeneratedAt: at,
		Duration:    1250 * time.Millisecond,
	}
	rep.Summary = domain.Summary{Total: 2, Passed: 2}
	if failed {
		rep.Summary = domain.Summary{Total: 2, Passed: 1, Failed: 1}
	}
	return rep
}

var _ = Describe("Store", func() {
	var (
		store *history.Store
		ctx   context.Context
		base  time.Time
	)

	BeforeEach(func() {
		var err error
		store, err = history.Open(filepath.Join(GinkgoT().TempDir(), "db", "history.db"))
		Expect(err).ToNot(HaveOccurred())
		ctx = context.Background()
		base = time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("round-trips a report", func() {
		rep := reportAt("run-1", base, true)
		rep.Skipped = []domain.TestStep{{Number: 3, Command: "Hover", Locator: "#menu"}}
		Expect(store.Save(ctx, rep)).To(Succeed())

		got, err := store.Get(ctx, "run-1")
		Expect(err).ToNot(HaveOccurred())
		Expect(got.GeneratedAt.Equal(rep.GeneratedAt)).To(BeTrue())
		got.GeneratedAt = rep.GeneratedAt
		Expect(got).To(Equal(rep))
	})

	It("lists runs newest first and honours the limit", func() {
		Expect(store.Save(ctx, reportAt("old", base, false))).To(Succeed())
		Expect(store.Save(ctx, reportAt("new", base.Add(time.Hour), true))).To(Succeed())
		Expect(store.Save(ctx, reportAt("mid", base.Add(time.Minute), false))).To(Succeed())

		runs, err := store.List(ctx, 0)
		Expect(err).ToNot(HaveOccurred())
		ids := make([]string, len(runs))
		for i, r := range runs {
			ids[i] = r.ID
		}
		Expect(ids).To(Equal([]string{"new", "mid", "old"}))
		Expect(runs[0].Summary).To(Equal(domain.Summary{Total: 2, Passed: 1, Failed: 1}))
		Expect(runs[0].Duration).To(Equal(1250 * time.Millisecond))

		runs, err = store.List(ctx, 2)
		Expect(err).ToNot(HaveOccurred())
		Expect(runs).To(HaveLen(2))
	})

	It("reports unknown runs as not found", func() {
		_, err := store.Get(ctx, "nope")
		Expect(err).To(MatchError(domain.ErrNotFound))
	})

	It("rejects duplicate run ids without leaving partial steps", func() {
		Expect(store.Save(ctx, reportAt("dup", base, false))).To(Succeed())
		Expect(store.Save(ctx, reportAt("dup", base, true))).ToNot(Succeed())

		got, err := store.Get(ctx, "dup")
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Entries).To(HaveLen(2))
		Expect(got.Succeeded()).To(BeTrue())
	})

	It("requires a run id", func() {
		Expect(store.Save(ctx, &domain.Report{})).To(MatchError(ContainSubstring("no run id")))
	})

	It("works in memory", func() {
		mem, err := history.Open(":memory:")
		Expect(err).ToNot(HaveOccurred())
		defer mem.Close()
		Expect(mem.Save(ctx, reportAt("m", base, false))).To(Succeed())
		runs, err := mem.List(ctx, 10)
		Expect(err).ToNot(HaveOccurred())
		Expect(runs).To(HaveLen(1))
	})
})
