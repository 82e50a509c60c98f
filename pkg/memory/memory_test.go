package memory_test

import (
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/lexicon"
	"github.com/papercomputeco/companion/pkg/memory"
)

func userMsg(content string, topics ...string) memory.Message {
	return memory.Message{Content: content, Topics: topics, Timestamp: time.Now()}
}

func reply(content string) *memory.Message {
	return &memory.Message{Content: content}
}

func emotional(content string, e lexicon.Emotion, sentiment float64) memory.Message {
	m := userMsg(content)
	m.Emotions = []lexicon.EmotionTag{{Emotion: e, Intensity: lexicon.IntensityMedium, Score: lexicon.IntensityMedium.Score()}}
	m.Sentiment = sentiment
	return m
}

var _ = Describe("Memory", func() {
	var mem *memory.Memory

	BeforeEach(func() {
		mem = memory.New(memory.DefaultConfig())
	})

	Describe("Record", func() {
		It("appends turns and aggregates topics", func() {
			Expect(mem.Record(userMsg("work is busy", "work"), reply("tell me more"))).To(Succeed())
			Expect(mem.Record(userMsg("more work", "work", "health"), reply("ok"))).To(Succeed())

			Expect(mem.Len()).To(Equal(2))
			topics := mem.Topics()
			Expect(topics).To(HaveLen(2))
			Expect(topics[0].Topic).To(Equal("work"))
			Expect(topics[0].Count).To(Equal(2))
			top, ok := mem.TopTopic()
			Expect(ok).To(BeTrue())
			Expect(top).To(Equal("work"))
		})

		It("stores the reply as an assistant message", func() {
			Expect(mem.Record(userMsg("hi"), reply("hello"))).To(Succeed())
			turn := mem.Turns()[0]
			Expect(turn.User.Author).To(Equal(memory.AuthorUser))
			Expect(turn.Reply.Author).To(Equal(memory.AuthorAssistant))
		})

		It("only snapshots messages with emotions", func() {
			Expect(mem.Record(userMsg("hello"), nil)).To(Succeed())
			Expect(mem.Record(emotional("so sad", lexicon.Sadness, -0.5), nil)).To(Succeed())
			Expect(mem.Journey()).To(HaveLen(1))
			snap, ok := mem.LastSnapshot()
			Expect(ok).To(BeTrue())
			Expect(snap.Primary()).To(Equal(lexicon.Sadness))

			recent, ok := mem.RecentSnapshot()
			Expect(ok).To(BeTrue())
			Expect(recent.Primary()).To(Equal(lexicon.Sadness))
		})

		It("collects key facts", func() {
			Expect(mem.Record(userMsg("My interview is tomorrow. My sister is visiting!"), nil)).To(Succeed())
			facts := mem.KeyFacts()
			Expect(facts[memory.FactUpcomingEvent]).To(ConsistOf("my interview is tomorrow"))
			Expect(facts[memory.FactPersonalSubjects]).To(ConsistOf("interview", "sister"))
		})
	})

	Describe("Overflow", func() {
		It("overflows on conversation length only after the limit is reached", func() {
			for i := range memory.DefaultMaxMessages {
				_, over := mem.Overflow()
				Expect(over).To(BeFalse(), "turn %d", i)
				Expect(mem.Record(userMsg(fmt.Sprintf("message %d", i)), reply("ok"))).To(Succeed())
			}
			reason, over := mem.Overflow()
			Expect(over).To(BeTrue())
			Expect(reason).To(Equal(memory.ReasonConversationLength))
			Expect(mem.State()).To(Equal(memory.StateOverflowed))
		})

		It("refuses to record once overflowed", func() {
			mem = memory.New(memory.Config{MaxMessages: 1})
			Expect(mem.Record(userMsg("one"), nil)).To(Succeed())
			Expect(mem.Record(userMsg("two"), nil)).To(MatchError(memory.ErrOverflowed))
			Expect(mem.Len()).To(Equal(1))
		})

		It("accepts the message that reaches the context limit exactly and overflows on the next", func() {
			mem = memory.New(memory.Config{MaxContextLength: 20})
			Expect(mem.Record(userMsg(strings.Repeat("a", 5)), reply(strings.Repeat("b", 5)))).To(Succeed())
			_, over := mem.Overflow()
			Expect(over).To(BeFalse())

			Expect(mem.Record(userMsg(strings.Repeat("c", 10)), nil)).To(Succeed())
			Expect(mem.Status().ContextLength).To(Equal(20))
			reason, over := mem.Overflow()
			Expect(over).To(BeTrue())
			Expect(reason).To(Equal(memory.ReasonContextLength))
		})

		It("counts replies toward the context length", func() {
			mem = memory.New(memory.Config{MaxContextLength: 100})
			Expect(mem.Record(userMsg("hi"), reply(strings.Repeat("é", 98)))).To(Succeed())
			Expect(mem.Status().ContextLength).To(Equal(100))
			reason, over := mem.Overflow()
			Expect(over).To(BeTrue())
			Expect(reason).To(Equal(memory.ReasonContextLength))
		})

		It("releases an evicted turn's reply characters", func() {
			mem = memory.New(memory.Config{MaxMessages: 2, MaxContextLength: 1000})
			mem.Restore([]memory.Message{
				{Author: memory.AuthorUser, Content: "one"},
				{Author: memory.AuthorAssistant, Content: "a much longer first reply"},
				{Author: memory.AuthorUser, Content: "two"},
				{Author: memory.AuthorAssistant, Content: "reply two"},
				{Author: memory.AuthorUser, Content: "six"},
				{Author: memory.AuthorAssistant, Content: "reply six"},
			})
			Expect(mem.Len()).To(Equal(2))
			Expect(mem.Status().ContextLength).To(Equal(len("tworeply twosixreply six")))
		})

		It("overflows when more than MaxTopics topics are discussed", func() {
			mem = memory.New(memory.Config{MaxTopics: 2})
			Expect(mem.Record(userMsg("a", "work", "family"), nil)).To(Succeed())
			_, over := mem.Overflow()
			Expect(over).To(BeFalse())
			Expect(mem.Record(userMsg("b", "health"), nil)).To(Succeed())
			reason, over := mem.Overflow()
			Expect(over).To(BeTrue())
			Expect(reason).To(Equal(memory.ReasonTopicDiversity))
		})
	})

	Describe("Reset", func() {
		BeforeEach(func() {
			Expect(mem.Record(userMsg("My exam is next week", "school"), reply("good luck"))).To(Succeed())
			Expect(mem.Record(emotional("I'm nervous", lexicon.Anxiety, -0.3), reply("that's natural"))).To(Succeed())
		})

		It("preserves key facts exactly and empties the buffer", func() {
			before := mem.KeyFacts()
			summary := mem.Reset(true)

			Expect(summary.MessageCount).To(Equal(2))
			Expect(summary.MainTopics).To(Equal([]string{"school"}))
			Expect(summary.RecentEmotions).To(HaveLen(1))
			Expect(summary.RecentContext).To(Equal([]string{
				"user: My exam is next week",
				"assistant: good luck",
				"user: I'm nervous",
				"assistant: that's natural",
			}))

			Expect(mem.KeyFacts()).To(Equal(before))
			Expect(mem.Empty()).To(BeTrue())
			Expect(mem.Topics()).To(BeEmpty())
			Expect(mem.Journey()).To(BeEmpty())
			Expect(mem.State()).To(Equal(memory.StateActive))
		})

		It("drops key facts when not preserving", func() {
			mem.Reset(false)
			Expect(mem.KeyFacts()).To(BeEmpty())
		})

		It("renders a summary line", func() {
			Expect(mem.Summary().Text()).To(Equal("Conversation with 2 messages covering: school"))
		})
	})

	Describe("Restore", func() {
		It("pairs replies with their user messages", func() {
			mem.Restore([]memory.Message{
				{Author: memory.AuthorUser, Content: "first", Topics: []string{"work"}},
				{Author: memory.AuthorAssistant, Content: "reply one"},
				{Author: memory.AuthorAssistant, Content: "orphan"},
				{Author: memory.AuthorUser, Content: "second"},
			})
			turns := mem.Turns()
			Expect(turns).To(HaveLen(2))
			Expect(turns[0].Reply.Content).To(Equal("reply one"))
			Expect(turns[1].Reply).To(BeNil())
			Expect(mem.Status().TopicsTracked).To(Equal(1))
		})
	})

	Describe("Status", func() {
		It("reports usage", func() {
			Expect(mem.Record(userMsg("hello there", "daily_life"), nil)).To(Succeed())
			status := mem.Status()
			Expect(status.MessageCount).To(Equal(1))
			Expect(status.MaxMessages).To(Equal(memory.DefaultMaxMessages))
			Expect(status.TopicsTracked).To(Equal(1))
			Expect(status.ContextLength).To(Equal(len("hello there")))
			Expect(status.UsagePercent).To(BeNumerically("~", 2.0, 0.01))
		})
	})
})

var _ = Describe("Insights", func() {
	It("reports no engagement for an empty memory", func() {
		in := memory.New(memory.DefaultConfig()).Insights()
		Expect(in.EngagementLevel).To(Equal("none"))
		Expect(in.JourneyPattern).To(Equal(memory.JourneyInsufficient))
	})

	It("classifies engagement by average length", func() {
		mem := memory.New(memory.DefaultConfig())
		Expect(mem.Record(userMsg(strings.Repeat("x", 120)), nil)).To(Succeed())
		Expect(mem.Insights().EngagementLevel).To(Equal("high"))

		mem = memory.New(memory.DefaultConfig())
		Expect(mem.Record(userMsg("short"), nil)).To(Succeed())
		Expect(mem.Insights().EngagementLevel).To(Equal("low"))
	})

	It("detects an improving journey", func() {
		mem := memory.New(memory.DefaultConfig())
		for _, s := range []float64{-0.8, -0.6, 0.4, 0.7} {
			Expect(mem.Record(emotional("feeling things", lexicon.Sadness, s), nil)).To(Succeed())
		}
		in := mem.Insights()
		Expect(in.JourneyPattern).To(Equal(memory.JourneyImproving))
		Expect(in.EmotionalOpenness).To(Equal(1.0))
	})

	It("detects a declining journey", func() {
		mem := memory.New(memory.DefaultConfig())
		for _, s := range []float64{0.8, 0.6, -0.4, -0.7} {
			Expect(mem.Record(emotional("feeling things", lexicon.Happiness, s), nil)).To(Succeed())
		}
		Expect(mem.Insights().JourneyPattern).To(Equal(memory.JourneyDeclining))
	})

	It("reports the dominant intent", func() {
		mem := memory.New(memory.DefaultConfig())
		for _, intent := range []lexicon.Intent{lexicon.IntentVenting, lexicon.IntentVenting, lexicon.IntentSharingNews} {
			m := userMsg("x")
			m.Intent = intent
			Expect(mem.Record(m, nil)).To(Succeed())
		}
		Expect(mem.Insights().CommunicationPatterns.DominantIntent).To(Equal(lexicon.IntentVenting))
	})
})
