package respond_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/analyzer"
	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/respond"
)

// eagerSelector picks the first option and passes every Chance roll.
type eagerSelector struct{}

func (eagerSelector) Pick(options []string) string { return options[0] }
func (eagerSelector) Chance(float64) bool          { return true }

// endsWithOneOf ignores case since the joiner may lowercase a fragment.
func endsWithOneOf(s string, options []string) bool {
	for _, o := range options {
		if strings.HasSuffix(strings.ToLower(s), strings.ToLower(o)) {
			return true
		}
	}
	return false
}

var _ = Describe("Builder", func() {
	var mem *memory.Memory

	BeforeEach(func() {
		mem = memory.New(memory.DefaultConfig())
	})

	build := func(sel respond.Selector, message string, known map[string]string) string {
		b := respond.NewBuilder(sel, respond.DefaultConfig())
		return b.Build(analyzer.Analyze(message, mem), mem, message, known)
	}

	It("acknowledges the presentation and asks a follow-up for any seed", func() {
		const msg = "I'm really stressed about my presentation tomorrow"
		for seed := range uint64(50) {
			out := build(respond.NewRandSelector(seed), msg, nil)
			Expect(out).To(ContainSubstring("anxious about your presentation"))
			Expect(out).To(HaveSuffix("?"))
			Expect(endsWithOneOf(out, respond.FollowUps[respond.FollowUpFuture])).To(BeTrue(), out)
		}
	})

	It("is deterministic for a pinned seed", func() {
		const msg = "My sister and I had a fight yesterday"
		first := build(respond.NewRandSelector(7), msg, nil)
		second := build(respond.NewRandSelector(7), msg, nil)
		Expect(first).To(Equal(second))
	})

	It("joins three fragments with an intent connector", func() {
		b := respond.NewBuilder(respond.FirstSelector{}, respond.DefaultConfig())
		out := b.Build(analyzer.Neutral(), nil, "", nil)
		Expect(out).To(Equal("I hear you saying this is important to you. " +
			"That sounds like something that's really been on your mind. " +
			"So, what was that experience like?"))
	})

	It("uses decision questions for advice seeking", func() {
		out := build(respond.NewRandSelector(3), "What should I do about my landlord", nil)
		Expect(endsWithOneOf(out, respond.FollowUps[respond.FollowUpDecision])).To(BeTrue(), out)
	})

	It("falls back to a connector sentence for emotions without templates", func() {
		out := build(respond.FirstSelector{}, "I'm proud of myself", nil)
		Expect(out).To(ContainSubstring("That must be really rewarding."))
	})

	Describe("personalization", func() {
		It("addresses the user by name when the roll passes", func() {
			out := build(eagerSelector{}, "nothing much", map[string]string{"name": "Alex"})
			Expect(out).To(HavePrefix("Alex, I hear you saying"))
		})

		It("never uses the name when the roll fails", func() {
			out := build(respond.FirstSelector{}, "nothing much", map[string]string{"name": "Alex"})
			Expect(out).NotTo(ContainSubstring("Alex"))
		})

		It("mentions the profession for work topics", func() {
			out := build(respond.FirstSelector{}, "my boss is difficult", map[string]string{"profession": "nursing"})
			Expect(out).To(ContainSubstring("Given your work in nursing"))
		})
	})

	Describe("threading", func() {
		BeforeEach(func() {
			first := analyzer.Analyze("work has been a lot", mem)
			Expect(mem.Record(memory.Message{Content: "work has been a lot", Topics: first.TopicNames()}, nil)).To(Succeed())
		})

		It("references the most discussed topic", func() {
			out := build(respond.FirstSelector{}, "my boss called again", nil)
			Expect(out).To(ContainSubstring("You've come back to work a few times now"))
		})
	})

	Describe("transitions", func() {
		BeforeEach(func() {
			for _, m := range []string{"hello", "nothing much"} {
				Expect(mem.Record(memory.Message{Content: m}, nil)).To(Succeed())
			}
		})

		It("swaps the question for a transition when the roll passes", func() {
			out := build(eagerSelector{}, "the weather is okay", nil)
			Expect(endsWithOneOf(out, respond.Transitions)).To(BeTrue(), out)
		})

		It("keeps the question when the roll fails", func() {
			out := build(respond.FirstSelector{}, "the weather is okay", nil)
			Expect(out).To(HaveSuffix("?"))
		})
	})
})

var _ = Describe("RandSelector", func() {
	It("always picks a member of the options", func() {
		sel := respond.NewRandSelector(99)
		for range 100 {
			Expect(respond.Acknowledgments).To(ContainElement(sel.Pick(respond.Acknowledgments)))
		}
	})

	It("handles degenerate inputs", func() {
		sel := respond.NewRandSelector(1)
		Expect(sel.Pick(nil)).To(BeEmpty())
		Expect(sel.Chance(0)).To(BeFalse())
		Expect(sel.Chance(1)).To(BeTrue())
	})
})
