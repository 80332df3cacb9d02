package compiler_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/bugzero/internal/compiler"
	"github.com/fjglira/bugzero/internal/domain"
	"github.com/fjglira/bugzero/internal/translation"
)

var _ = Describe("Compiler", func() {
	var (
		comp  *compiler.DefaultCompiler
		table *translation.Table
		logs  *bytes.Buffer
	)

	BeforeEach(func() {
		logs = &bytes.Buffer{}
		log := logrus.New()
		log.SetOutput(logs)
		log.SetLevel(logrus.DebugLevel)

		comp = compiler.NewCompiler(log, false)
		table = translation.New(map[string]string{
			"Click":   `driver.find("{locator}").click()`,
			"OpenURL": `driver.get("{url}")`,
		})
	})

	Describe("Compile", func() {
		It("should compile scenario A in order", func() {
			steps := []domain.TestStep{
				{Number: 1, Command: "OpenURL", Value: "https://example.com"},
				{Number: 2, Command: "Click", Locator: "#submit"},
			}

			actions := comp.Compile(steps, table)
			Expect(actions).To(HaveLen(2))
			Expect(actions[0].Text).To(Equal(`driver.get("https://example.com")`))
			Expect(actions[1].Text).To(Equal(`driver.find("#submit").click()`))
			Expect(actions[0].StepNumber).To(Equal(1))
			Expect(actions[1].Command).To(Equal("Click"))
		})

		It("should drop unresolved steps silently (scenario B)", func() {
			steps := []domain.TestStep{
				{Number: 1, Command: "OpenURL", Value: "https://example.com"},
				{Number: 2, Command: "Click", Locator: "#submit"},
				{Number: 3, Command: "Unknown", Locator: "#x", Value: "y"},
			}

			actions := comp.Compile(steps, table)
			Expect(actions).To(HaveLen(2))
			Expect(actions[0].Text).To(Equal(`driver.get("https://example.com")`))
			Expect(actions[1].Text).To(Equal(`driver.find("#submit").click()`))
			Expect(logs.String()).To(ContainSubstring("level=debug"))
			Expect(logs.String()).To(ContainSubstring("Unknown"))
		})

		It("should produce N-K actions for K unresolved steps", func() {
			steps := []domain.TestStep{
				{Number: 1, Command: "Nope"},
				{Number: 2, Command: "Click", Locator: "a"},
				{Number: 3, Command: "click", Locator: "b"},
				{Number: 4, Command: "Click", Locator: "c"},
				{Number: 5, Command: "Missing"},
			}

			actions := comp.Compile(steps, table)
			Expect(actions).To(HaveLen(2))
			Expect(actions[0].StepNumber).To(Equal(2))
			Expect(actions[1].StepNumber).To(Equal(4))
		})

		It("should be idempotent", func() {
			steps := []domain.TestStep{
				{Number: 1, Command: "OpenURL", Value: "https://example.com"},
				{Number: 2, Command: "Click", Locator: "#submit"},
			}
			Expect(comp.Compile(steps, table)).To(Equal(comp.Compile(steps, table)))
		})

		It("should return an empty sequence for no steps", func() {
			Expect(comp.Compile(nil, table)).To(BeEmpty())
		})

		It("should warn on skipped steps when configured", func() {
			log := logrus.New()
			log.SetOutput(logs)
			comp = compiler.NewCompiler(log, true)

			comp.Compile([]domain.TestStep{{Number: 7, Command: "Hover"}}, table)
			Expect(logs.String()).To(ContainSubstring("level=warning"))
			Expect(logs.String()).To(ContainSubstring("step=7"))
		})

		It("should accept a nil logger", func() {
			comp = compiler.NewCompiler(nil, true)
			Expect(comp.Compile([]domain.TestStep{{Command: "Hover"}}, table)).To(BeEmpty())
		})
	})

	Describe("Substitute", func() {
		It("should substitute every placeholder kind in one template", func() {
			out := compiler.Substitute(`type {locator} {value} at {url}`, domain.TestStep{Locator: "#q", Value: "v"})
			Expect(out).To(Equal("type #q v at v"))
		})

		It("should substitute repeated placeholders", func() {
			out := compiler.Substitute(`{value}-{value}`, domain.TestStep{Value: "x"})
			Expect(out).To(Equal("x-x"))
		})

		It("should substitute absent fields as empty strings", func() {
			out := compiler.Substitute(`driver.find("{locator}").send_keys("{value}")`, domain.TestStep{})
			Expect(out).To(Equal(`driver.find("").send_keys("")`))
			Expect(out).ToNot(ContainSubstring("{"))
		})

		It("should leave placeholder-free templates untouched", func() {
			Expect(compiler.Substitute("driver.back()", domain.TestStep{Value: "x"})).To(Equal("driver.back()"))
		})
	})

	Describe("Unresolved", func() {
		It("should list the dropped steps in order", func() {
			steps := []domain.TestStep{
				{Number: 1, Command: "A"},
				{Number: 2, Command: "Click"},
				{Number: 3, Command: "B"},
			}
			skipped := compiler.Unresolved(steps, table)
			Expect(skipped).To(HaveLen(2))
			Expect(skipped[0].Command).To(Equal("A"))
			Expect(skipped[1].Command).To(Equal("B"))
		})
	})
})
