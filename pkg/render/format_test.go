package render_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playground/pkg/chat"
	"github.com/papercomputeco/playground/pkg/render"
)

var _ = DescribeTable("FormatThinkingDuration",
	func(d time.Duration, want string) {
		Expect(render.FormatThinkingDuration(d)).To(Equal(want))
	},
	Entry("unset", time.Duration(0), "a few seconds"),
	Entry("just under the floor", 699*time.Millisecond, "a few seconds"),
	Entry("at the floor", 700*time.Millisecond, "1s"),
	Entry("rounds down", 2400*time.Millisecond, "2s"),
	Entry("rounds up", 2500*time.Millisecond, "3s"),
	Entry("long", 95*time.Second, "95s"),
)

var _ = Describe("CurrentActivity", func() {
	It("says working for an empty trace", func() {
		Expect(render.CurrentActivity("")).To(Equal("working"))
		Expect(render.CurrentActivity("  \n\t\n")).To(Equal("working"))
	})

	It("returns the last non-blank line trimmed", func() {
		Expect(render.CurrentActivity("Planning\n  Running query  \n\n")).To(Equal("Running query"))
	})

	It("cuts long lines at 72 characters", func() {
		line := strings.Repeat("x", 80)
		Expect(render.CurrentActivity(line)).To(Equal(strings.Repeat("x", 72) + "..."))
		Expect(render.CurrentActivity(strings.Repeat("y", 72))).To(Equal(strings.Repeat("y", 72)))
	})
})

var _ = Describe("ThinkingLines", func() {
	It("classifies non-blank lines", func() {
		lines := render.ThinkingLines("Planning\n\nSQL: SELECT 1\nParse error: bad token\nError: boom\n")
		Expect(lines).To(Equal([]render.ThinkingLine{
			{Text: "Planning", Kind: render.LinePlain},
			{Text: "SQL: SELECT 1", Kind: render.LineSQL},
			{Text: "Parse error: bad token", Kind: render.LineError},
			{Text: "Error: boom", Kind: render.LineError},
		}))
	})

	DescribeTable("IsThinkingErrorLine",
		func(line string, want bool) {
			Expect(render.IsThinkingErrorLine(line)).To(Equal(want))
		},
		Entry("parse", "Parse error: x", true),
		Entry("validation", "Validation failed: x", true),
		Entry("execution", "Execution error: x", true),
		Entry("generic", "Error: x", true),
		Entry("indented", "  Error: x", false),
		Entry("plain", "An error occurred", false),
	)
})

var _ = DescribeTable("FormatCostUSD",
	func(usd float64, want string) {
		Expect(render.FormatCostUSD(usd)).To(Equal(want))
	},
	Entry("zero", 0.0, "$0.00"),
	Entry("dust", 0.0000004, "<$0.000001"),
	Entry("micro", 0.0000421, "$0.000042"),
	Entry("milli", 0.00421, "$0.0042"),
	Entry("cents", 0.125, "$0.125"),
	Entry("dollars", 12.5, "$12.500"),
)

var _ = Describe("TokenMeta", func() {
	It("is empty without metadata", func() {
		Expect(render.TokenMeta(nil)).To(BeEmpty())
		Expect(render.TokenMetaLine(chat.Metadata{})).To(BeEmpty())
	})

	It("lists model, stage, usage and cost in order", func() {
		md := chat.Metadata{
			"stage": "done",
			"model": map[string]any{"provider": "openai", "name": "gpt-4o"},
			"usage": map[string]any{"prompt_tokens": float64(10), "completion_tokens": float64(5), "total_tokens": float64(15)},
			"cost":  map[string]any{"total_cost_usd": 0.00421},
		}
		Expect(render.TokenMeta(md)).To(Equal([]string{
			"Model: openai/gpt-4o",
			"Stage: done",
			"Input: 10",
			"Output: 5",
			"Total: 15",
			"Cost: $0.0042",
		}))
	})

	It("shows a dash for a model without provider", func() {
		md := chat.Metadata{"model": map[string]any{"name": "local"}}
		Expect(render.TokenMetaLine(md)).To(Equal("Model: -/local"))
	})
})
