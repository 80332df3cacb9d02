package report_test

import (
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/report"
)

var _ = Describe("Build", func() {
	generatedAt := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	acts := []domain.CompiledAction{
		{StepNumber: 1, Command: "OpenURL", Text: `driver.get("https://example.com")`},
		{StepNumber: 2, Command: "Click", Text: `driver.find("#submit").click()`},
	}

	It("summarises a pass followed by a failure", func() {
		results := []domain.ExecutionResult{
			domain.Pass(time.Second),
			domain.Fail("element not found", 2*time.Second),
		}

		rep, err := report.Build(acts, results, generatedAt)

		Expect(err).ToNot(HaveOccurred())
		Expect(rep.Summary).To(Equal(domain.Summary{Total: 2, Passed: 1, Failed: 1}))
		Expect(rep.GeneratedAt).To(Equal(generatedAt))
		Expect(rep.Duration).To(Equal(3 * time.Second))
		Expect(rep.Succeeded()).To(BeFalse())
		Expect(rep.Entries).To(HaveLen(2))
		Expect(rep.Entries[1].Index).To(Equal(2))
		Expect(rep.Entries[1].Action).To(Equal(acts[1]))
		Expect(rep.Entries[1].Result.Message).To(Equal("element not found"))
	})

	DescribeTable("passed + failed always equals total",
		func(results []domain.ExecutionResult) {
			actions := make([]domain.CompiledAction, len(results))
			rep, err := report.Build(actions, results, generatedAt)
			Expect(err).ToNot(HaveOccurred())
			Expect(rep.Summary.Passed + rep.Summary.Failed).To(Equal(rep.Summary.Total))
			Expect(rep.Summary.Total).To(Equal(len(actions)))
		},
		Entry("empty", []domain.ExecutionResult{}),
		Entry("all pass", []domain.ExecutionResult{domain.Pass(0), domain.Pass(0)}),
		Entry("all fail", []domain.ExecutionResult{domain.Fail("a", 0), domain.Fail("b", 0), domain.Fail("c", 0)}),
		Entry("mixed", []domain.ExecutionResult{domain.Fail("a", 0), domain.Pass(0), domain.Fail("b", 0), domain.Pass(0)}),
	)

	It("rejects mismatched lengths", func() {
		_, err := report.Build(acts, []domain.ExecutionResult{domain.Pass(0)}, generatedAt)
		Expect(err).To(MatchError(domain.ErrReportBuild))
		Expect(err.Error()).To(ContainSubstring("2 actions but 1 results"))
	})
})

var _ = Describe("Builder", func() {
	It("stamps run metadata", func() {
		now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		b := report.NewBuilderWith(func() time.Time { return now }, func() string { return "run-1" })
		tc := &domain.TestCase{Name: "login", Source: "cases/login.xlsx"}
		skipped := []domain.TestStep{{Number: 3, Command: "Hover"}}

		rep, err := b.Build(tc, []domain.CompiledAction{{Text: "back"}}, []domain.ExecutionResult{domain.Pass(0)}, skipped)

		Expect(err).ToNot(HaveOccurred())
		Expect(rep.RunID).To(Equal("run-1"))
		Expect(rep.Name).To(Equal("login"))
		Expect(rep.Source).To(Equal("cases/login.xlsx"))
		Expect(rep.Skipped).To(Equal(skipped))
		Expect(rep.GeneratedAt).To(Equal(now))
		Expect(rep.Succeeded()).To(BeTrue())
	})

	It("generates UUID run IDs by default", func() {
		rep, err := report.NewBuilder().Build(&domain.TestCase{}, nil, nil, nil)
		Expect(err).ToNot(HaveOccurred())
		_, err = uuid.Parse(rep.RunID)
		Expect(err).ToNot(HaveOccurred())
	})

	It("names the source file on a build error", func() {
		_, err := report.NewBuilder().Build(&domain.TestCase{Source: "a.yaml"}, []domain.CompiledAction{{}}, nil, nil)
		Expect(err).To(MatchError(domain.ErrReportBuild))
		Expect(err.Error()).To(ContainSubstring("a.yaml"))
	})
})
