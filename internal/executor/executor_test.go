package executor_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/executor"
	"github.com/fjglira/bugzero/internal/session"
)

// fakeSession fails or panics on chosen 0-based action indices and counts Close calls.
type fakeSession struct {
	failOn  map[int]string
	panicOn map[int]bool
	ran     []string
	closes  int
}

func (f *fakeSession) Run(_ context.Context, a domain.CompiledAction) error {
	i := len(f.ran)
	f.ran = append(f.ran, a.Text)
	if f.panicOn[i] {
		panic("driver crashed")
	}
	if msg, ok := f.failOn[i]; ok {
		return errors.New(msg)
	}
	return nil
}

func (f *fakeSession) Close() error {
	f.closes++
	return nil
}

func openerFor(s *fakeSession, err error) session.Opener {
	return session.OpenerFunc(func(context.Context) (session.Session, error) {
		if s == nil {
			return nil, err
		}
		return s, err
	})
}

func actions(n int) []domain.CompiledAction {
	out := make([]domain.CompiledAction, n)
	for i := range out {
		out[i] = domain.CompiledAction{StepNumber: i + 1, Command: "Click", Text: fmt.Sprintf("click #b%d", i+1)}
	}
	return out
}

func statuses(results []domain.ExecutionResult) []domain.Status {
	out := make([]domain.Status, len(results))
	for i, r := range results {
		out[i] = r.Status
	}
	return out
}

var _ = Describe("Executor", func() {
	var (
		logBuf *bytes.Buffer
		exec   *executor.Executor
		ctx    context.Context
	)

	BeforeEach(func() {
		logBuf = &bytes.Buffer{}
		log := logrus.New()
		log.SetOutput(logBuf)
		log.SetLevel(logrus.DebugLevel)
		exec = executor.New(log, config.ExecutionConfig{BlockedPatterns: []string{"javascript:"}}, nil)
		ctx = context.Background()
	})

	Describe("Execute", func() {
		It("keeps going after a failed action", func() {
			sess := &fakeSession{failOn: map[int]string{1: "element not found"}}

			results := exec.Execute(ctx, actions(5), sess)

			Expect(sess.ran).To(HaveLen(5))
			Expect(statuses(results)).To(Equal([]domain.Status{
				domain.StatusPass, domain.StatusFail, domain.StatusPass, domain.StatusPass, domain.StatusPass,
			}))
			Expect(results[1].Message).To(Equal("element not found"))
		})

		It("records the driver diagnostic on the failing step", func() {
			sess := &fakeSession{failOn: map[int]string{1: "element not found"}}

			results := exec.Execute(ctx, actions(2), sess)

			Expect(results).To(HaveLen(2))
			Expect(results[0].Passed()).To(BeTrue())
			Expect(results[1].String()).To(Equal("FAIL: element not found"))
		})

		It("turns a panicking action into a failure", func() {
			sess := &fakeSession{panicOn: map[int]bool{0: true}}

			results := exec.Execute(ctx, actions(2), sess)

			Expect(statuses(results)).To(Equal([]domain.Status{domain.StatusFail, domain.StatusPass}))
			Expect(results[0].Message).To(ContainSubstring("driver crashed"))
		})

		It("fails blocked actions without dispatching them", func() {
			sess := &fakeSession{}
			acts := []domain.CompiledAction{
				{Text: `open "javascript:alert(1)"`},
				{Text: "click #ok"},
			}

			results := exec.Execute(ctx, acts, sess)

			Expect(sess.ran).To(Equal([]string{"click #ok"}))
			Expect(results[0].Message).To(ContainSubstring("blocked by policy"))
			Expect(results[1].Passed()).To(BeTrue())
		})

		It("fails the remaining actions once the context is cancelled", func() {
			sess := &fakeSession{}
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			results := exec.Execute(cctx, actions(3), sess)

			Expect(results).To(HaveLen(3))
			Expect(sess.ran).To(BeEmpty())
			for _, r := range results {
				Expect(r.Message).To(ContainSubstring("context canceled"))
			}
		})

		It("logs each action before running it", func() {
			exec.Execute(ctx, actions(1), &fakeSession{})
			Expect(logBuf.String()).To(ContainSubstring("Executing: click #b1"))
		})

		It("returns an empty result list for no actions", func() {
			Expect(exec.Execute(ctx, nil, &fakeSession{})).To(BeEmpty())
		})
	})

	Describe("Run", func() {
		DescribeTable("closes the session exactly once",
			func(failOn map[int]string) {
				sess := &fakeSession{failOn: failOn}

				results, err := exec.Run(ctx, actions(3), openerFor(sess, nil))

				Expect(err).ToNot(HaveOccurred())
				Expect(results).To(HaveLen(3))
				Expect(sess.closes).To(Equal(1))
			},
			Entry("no failures", map[int]string{}),
			Entry("some failures", map[int]string{1: "x"}),
			Entry("all failures", map[int]string{0: "x", 1: "y", 2: "z"}),
		)

		It("closes a partially acquired session and reports setup failure", func() {
			sess := &fakeSession{}

			results, err := exec.Run(ctx, actions(2), openerFor(sess, errors.New("chrome not found")))

			Expect(err).To(MatchError(domain.ErrSessionSetup))
			Expect(err.Error()).To(ContainSubstring("chrome not found"))
			Expect(results).To(BeNil())
			Expect(sess.ran).To(BeEmpty())
			Expect(sess.closes).To(Equal(1))
		})

		It("reports setup failure when nothing was acquired", func() {
			_, err := exec.Run(ctx, actions(1), openerFor(nil, errors.New("no driver")))
			Expect(err).To(MatchError(domain.ErrSessionSetup))
		})
	})
})

var _ = Describe("CheckPolicy", func() {
	It("allows text without blocked patterns", func() {
		Expect(executor.CheckPolicy("open https://example.com", []string{"javascript:", "file://"})).To(Succeed())
	})

	It("names the matching pattern", func() {
		err := executor.CheckPolicy("open file:///etc/passwd", []string{"javascript:", "file://"})
		Expect(err).To(MatchError(ContainSubstring(`"file://"`)))
	})

	It("ignores empty patterns", func() {
		Expect(executor.CheckPolicy("anything", []string{""})).To(Succeed())
	})
})
