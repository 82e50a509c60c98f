package companion_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/companion"
	"github.com/papercomputeco/companion/pkg/facts"
	"github.com/papercomputeco/companion/pkg/lexicon"
	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/respond"
	"github.com/papercomputeco/companion/pkg/session"
)

var _ = Describe("Service", func() {
	var (
		ctx context.Context
		svc *companion.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		svc = companion.New(companion.Config{
			Selector: respond.NewRandSelector(42),
			Response: respond.DefaultConfig(),
		})
	})

	Describe("ProcessMessage", func() {
		It("rejects empty input without creating a session", func() {
			_, err := svc.ProcessMessage(ctx, "c1", "   ")
			var inputErr *companion.InputError
			Expect(errors.As(err, &inputErr)).To(BeTrue())
			Expect(svc.Loaded("c1")).To(BeFalse())
		})

		It("handles the presentation stress scenario", func() {
			res, err := svc.ProcessMessage(ctx, "c1", "I'm really stressed about my presentation tomorrow")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Overflow).To(BeNil())
			Expect(res.Emotions).To(ContainElement(lexicon.EmotionTag{
				Emotion: lexicon.Anxiety, Intensity: lexicon.IntensityHigh, Score: 1,
			}))
			Expect(res.Topics).To(ContainElement("work"))
			Expect(res.Analysis.Events).To(ContainElement("presentation"))
			Expect(res.Analysis.Temporal).To(Equal(lexicon.TemporalNearFuture))
			Expect(res.Response).To(ContainSubstring("presentation"))
			Expect(res.Response).To(ContainSubstring("?"))
			Expect(res.MemoryStatus.MessageCount).To(Equal(1))
		})

		It("returns the name candidate", func() {
			res, err := svc.ProcessMessage(ctx, "c1", "My name is Alex")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Facts).To(ContainElement(facts.Candidate{
				Type: "personal_info", Key: "name", Value: "Alex", Confidence: 0.9,
			}))
		})

		It("emits the candidate on every repetition", func() {
			for range 2 {
				res, err := svc.ProcessMessage(ctx, "c1", "My name is Alex")
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Facts).To(HaveLen(1))
			}
		})

		It("overflows on message 51 with conversation_length", func() {
			for i := 1; i <= 50; i++ {
				res, err := svc.ProcessMessage(ctx, "c1", fmt.Sprintf("just chatting, item %d", i))
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Overflow).To(BeNil(), "message %d", i)
			}

			res, err := svc.ProcessMessage(ctx, "c1", "one more thing")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Overflow).NotTo(BeNil())
			Expect(res.Overflow.Reason).To(Equal(memory.ReasonConversationLength))
			Expect(res.Overflow.Summary.MessageCount).To(Equal(50))
			Expect(res.Intent).To(Equal(lexicon.IntentMemoryOverflow))
			Expect(res.Response).To(Equal(companion.OverflowNotice))

			status, err := svc.MemoryStatus("c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(status.MessageCount).To(Equal(50))
			Expect(status.State).To(Equal(memory.StateOverflowed))
		})

		It("overflows on the message after the context limit is reached exactly", func() {
			svc = companion.New(companion.Config{
				Store: session.NewCacheStore(session.Config{Memory: memory.Config{MaxContextLength: 20}}),
			})
			_, err := svc.ProcessMessage(ctx, "c1", strings.Repeat("a", 20))
			Expect(err).NotTo(HaveOccurred())

			res, err := svc.ProcessMessage(ctx, "c1", "next")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Overflow).NotTo(BeNil())
			Expect(res.Overflow.Reason).To(Equal(memory.ReasonContextLength))
		})

		It("personalizes with known facts", func() {
			svc = companion.New(companion.Config{Selector: respond.FirstSelector{}})
			res, err := svc.ProcessMessage(ctx, "c1", "my boss is difficult",
				companion.WithUserFacts(map[string]string{"profession": "accounting"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Response).To(ContainSubstring("your work in accounting"))
		})

		It("serializes concurrent turns of one conversation", func() {
			var wg sync.WaitGroup
			for i := range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					_, err := svc.ProcessMessage(ctx, "shared", fmt.Sprintf("message %d", i))
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()
			status, err := svc.MemoryStatus("shared")
			Expect(err).NotTo(HaveOccurred())
			Expect(status.MessageCount).To(Equal(20))
		})
	})

	Describe("Insights", func() {
		It("fails for unknown conversations", func() {
			_, err := svc.Insights(ctx, "missing")
			Expect(err).To(MatchError(companion.ErrConversationNotFound))
		})

		It("derives insights from memory", func() {
			_, err := svc.ProcessMessage(ctx, "c1", "I'm so happy, I just got promoted at work and everyone was wonderful about it")
			Expect(err).NotTo(HaveOccurred())
			in, err := svc.Insights(ctx, "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(in.EngagementLevel).To(Equal("medium"))
			Expect(in.EmotionalOpenness).To(Equal(1.0))
			Expect(in.TopicDiversity).To(BeNumerically(">=", 1))
		})
	})

	Describe("Reset", func() {
		It("returns the prior summary and preserved facts", func() {
			_, err := svc.ProcessMessage(ctx, "c1", "My wedding is next week")
			Expect(err).NotTo(HaveOccurred())

			res, err := svc.Reset(ctx, "c1", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.PriorSummary.MessageCount).To(Equal(1))
			Expect(res.PreservedFacts[memory.FactUpcomingEvent]).To(ConsistOf("my wedding is next week"))

			status, err := svc.MemoryStatus("c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(status.MessageCount).To(BeZero())
		})

		It("drops facts when not preserving", func() {
			_, err := svc.ProcessMessage(ctx, "c1", "My wedding is next week")
			Expect(err).NotTo(HaveOccurred())
			res, err := svc.Reset(ctx, "c1", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.PreservedFacts).To(BeEmpty())
		})
	})

	Describe("Restore", func() {
		It("rebuilds memory from stored messages", func() {
			svc.Restore(ctx, "c9", []memory.Message{
				{Author: memory.AuthorUser, Content: "hello"},
				{Author: memory.AuthorAssistant, Content: "hi"},
			})
			status, err := svc.MemoryStatus("c9")
			Expect(err).NotTo(HaveOccurred())
			Expect(status.MessageCount).To(Equal(1))
		})
	})

	Describe("EnsureLoaded", func() {
		history := func(msgs ...memory.Message) companion.HistoryFunc {
			return func(context.Context, string) ([]memory.Message, error) {
				return msgs, nil
			}
		}

		It("restores a missing session from history", func() {
			restored, err := svc.EnsureLoaded(ctx, "c10", history(
				memory.Message{Author: memory.AuthorUser, Content: "I love hiking"},
				memory.Message{Author: memory.AuthorAssistant, Content: "That sounds great"},
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(restored).To(BeTrue())
			Expect(svc.Loaded("c10")).To(BeTrue())
		})

		It("leaves a live session alone", func() {
			_, err := svc.ProcessMessage(ctx, "c11", "I had a good day")
			Expect(err).NotTo(HaveOccurred())

			restored, err := svc.EnsureLoaded(ctx, "c11", func(context.Context, string) ([]memory.Message, error) {
				Fail("history should not be loaded for a live session")
				return nil, nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(restored).To(BeFalse())
		})

		It("passes load errors through without creating a session", func() {
			_, err := svc.EnsureLoaded(ctx, "c12", func(context.Context, string) ([]memory.Message, error) {
				return nil, errors.New("db down")
			})
			Expect(err).To(MatchError("db down"))
			Expect(svc.Loaded("c12")).To(BeFalse())
		})
	})
})

var _ = Describe("GenerateTitle", func() {
	now := time.Date(2026, 3, 4, 9, 5, 0, 0, time.UTC)

	DescribeTable("titles",
		func(message, want string) {
			Expect(companion.GenerateTitle(message, now)).To(Equal(want))
		},
		Entry("presentation", "My presentation is tomorrow", "🎯 Presentation Discussion"),
		Entry("interview before work", "job interview today", "💼 Job Interview Talk"),
		Entry("family", "my mom called", "👨‍👩‍👧‍👦 Family Discussion"),
		Entry("fallback words", "Tell me something about penguins", "💬 Tell Something About"),
		Entry("timestamp", "hi", "💭 Chat 03/04 09:05"),
	)
})

var _ = Describe("RunDemo", func() {
	It("plays every script without touching live sessions", func() {
		svc := companion.New(companion.Config{Selector: respond.NewRandSelector(1)})
		for _, kind := range companion.Demos() {
			res, err := svc.RunDemo(context.Background(), kind)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Exchanges).To(HaveLen(4))
			Expect(res.Insights).NotTo(BeNil())
		}
		Expect(svc.Sessions().Len()).To(BeZero())
	})

	It("rejects unknown demos", func() {
		svc := companion.New(companion.Config{})
		_, err := svc.RunDemo(context.Background(), "nope")
		var unknown *companion.UnknownDemoError
		Expect(errors.As(err, &unknown)).To(BeTrue())
	})
})
