// Package storagetest holds behavior specs shared by every storage driver.
package storagetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/facts"
	"github.com/papercomputeco/companion/pkg/lexicon"
	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/storage"
)

// NameCandidate is a fact candidate for a user's name.
func NameCandidate(name string) facts.Candidate {
	return facts.Candidate{Type: facts.TypePersonalInfo, Key: facts.KeyName, Value: name, Confidence: 0.9}
}

// DriverSpecs declares the storage.Driver behavior specs. newDriver is
// called before each spec; the returned driver is closed after it.
func DriverSpecs(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = nil
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	newConversation := func(userID string) *storage.Conversation {
		_, _, err := driver.EnsureUser(ctx, userID)
		Expect(err).NotTo(HaveOccurred())
		conv := &storage.Conversation{UserID: userID, Title: "🎯 Presentation Discussion"}
		Expect(driver.CreateConversation(ctx, conv)).To(Succeed())
		return conv
	}

	Describe("users", func() {
		It("creates a user once with the default profile", func() {
			u, created, err := driver.EnsureUser(ctx, "7")
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())
			Expect(u.Username).To(Equal("user_7"))
			Expect(u.Profile).To(HaveKeyWithValue("communication_style", "adaptive"))

			_, created, err = driver.EnsureUser(ctx, "7")
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())

			got, err := driver.GetUser(ctx, "7")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Profile).To(Equal(storage.DefaultProfile()))
		})

		It("returns NotFoundError for unknown users", func() {
			_, err := driver.GetUser(ctx, "nobody")
			Expect(err).To(MatchError(storage.NotFoundError{Kind: storage.KindUser, ID: "nobody"}))
		})
	})

	Describe("conversations", func() {
		It("assigns an id and starts active", func() {
			conv := newConversation("1")
			Expect(conv.ID).NotTo(BeEmpty())

			got, err := driver.GetConversation(ctx, "1", conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Active).To(BeTrue())
			Expect(got.Title).To(Equal("🎯 Presentation Discussion"))
		})

		It("hides conversations owned by another user", func() {
			conv := newConversation("1")
			_, err := driver.GetConversation(ctx, "2", conv.ID)
			var nf storage.NotFoundError
			Expect(err).To(BeAssignableToTypeOf(nf))
		})

		It("applies partial updates", func() {
			conv := newConversation("1")
			summary := "Conversation with 50 messages covering: work"
			inactive := false
			Expect(driver.UpdateConversation(ctx, conv.ID, storage.ConversationUpdate{
				Summary: &summary,
				Active:  &inactive,
			})).To(Succeed())

			got, err := driver.GetConversation(ctx, "1", conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Summary).To(Equal(summary))
			Expect(got.Active).To(BeFalse())
			Expect(got.Title).To(Equal(conv.Title))
		})

		It("lists most recently active first and filters inactive", func() {
			older := newConversation("1")
			newer := newConversation("1")
			later := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
			Expect(driver.UpdateConversation(ctx, newer.ID, storage.ConversationUpdate{LastMessageAt: &later})).To(Succeed())

			all, err := driver.ListConversations(ctx, "1", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			Expect(all[0].ID).To(Equal(newer.ID))

			inactive := false
			Expect(driver.UpdateConversation(ctx, older.ID, storage.ConversationUpdate{Active: &inactive})).To(Succeed())
			active, err := driver.ListConversations(ctx, "1", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(HaveLen(1))
			Expect(active[0].ID).To(Equal(newer.ID))
		})

		It("fails to update unknown conversations", func() {
			title := "x"
			err := driver.UpdateConversation(ctx, "missing", storage.ConversationUpdate{Title: &title})
			Expect(err).To(MatchError(storage.NotFoundError{Kind: storage.KindConversation, ID: "missing"}))
		})
	})

	Describe("messages", func() {
		It("keeps insertion order and analysis fields", func() {
			conv := newConversation("1")
			Expect(driver.AddMessage(ctx, &storage.Message{
				ConversationID: conv.ID,
				Content:        "I'm really stressed about my presentation tomorrow",
				IsUser:         true,
				Emotions:       []lexicon.EmotionTag{{Emotion: lexicon.Anxiety, Intensity: lexicon.IntensityHigh, Score: 1}},
				Topics:         []string{"work"},
				Sentiment:      -0.4,
				Intent:         string(lexicon.IntentGeneralConversation),
			})).To(Succeed())
			Expect(driver.AddMessage(ctx, &storage.Message{
				ConversationID: conv.ID,
				Content:        "That sounds like a lot.",
				Intent:         "response",
			})).To(Succeed())

			msgs, err := driver.ListMessages(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].IsUser).To(BeTrue())
			Expect(msgs[0].Emotions).To(HaveLen(1))
			Expect(msgs[0].Emotions[0].Emotion).To(Equal(lexicon.Anxiety))
			Expect(msgs[0].Topics).To(Equal([]string{"work"}))
			Expect(msgs[1].Content).To(Equal("That sounds like a lot."))

			counts, err := driver.CountMessages(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(counts).To(Equal(storage.MessageCounts{Total: 2, User: 1}))
			Expect(counts.Assistant()).To(Equal(1))
		})

		It("loads history as memory messages", func() {
			conv := newConversation("1")
			Expect(driver.AddMessage(ctx, &storage.Message{
				ConversationID: conv.ID,
				Content:        "Work has been overwhelming",
				IsUser:         true,
				Topics:         []string{"work"},
				Intent:         string(lexicon.IntentVenting),
			})).To(Succeed())
			Expect(driver.AddMessage(ctx, &storage.Message{
				ConversationID: conv.ID,
				Content:        "That sounds exhausting.",
				Intent:         "response",
			})).To(Succeed())

			history, err := storage.History(ctx, driver, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[0].Author).To(Equal(memory.AuthorUser))
			Expect(history[0].Intent).To(Equal(lexicon.IntentVenting))
			Expect(history[0].Topics).To(Equal([]string{"work"}))
			Expect(history[1].Author).To(Equal(memory.AuthorAssistant))
		})

		It("rejects messages for unknown conversations", func() {
			err := driver.AddMessage(ctx, &storage.Message{ConversationID: "missing", Content: "hi"})
			Expect(err).To(MatchError(storage.NotFoundError{Kind: storage.KindConversation, ID: "missing"}))
		})
	})

	Describe("facts", func() {
		It("reinforces a repeated key", func() {
			conv := newConversation("1")

			created, err := driver.UpsertFact(ctx, "1", conv.ID, NameCandidate("Alex"))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())

			created, err = driver.UpsertFact(ctx, "1", conv.ID, NameCandidate("Alexander"))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())

			list, err := driver.ListFacts(ctx, "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].Value).To(Equal("Alexander"))
			Expect(list[0].Confidence).To(BeNumerically("~", 1.0, 1e-9))
			Expect(list[0].TimesConfirmed).To(Equal(2))
			Expect(list[0].SourceConversationID).To(Equal(conv.ID))
		})

		It("caps confidence at the maximum", func() {
			conv := newConversation("1")
			for range 5 {
				_, err := driver.UpsertFact(ctx, "1", conv.ID, NameCandidate("Alex"))
				Expect(err).NotTo(HaveOccurred())
			}
			list, err := driver.ListFacts(ctx, "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(list[0].Confidence).To(Equal(1.0))
			Expect(list[0].TimesConfirmed).To(Equal(5))
		})
	})

	Describe("themes", func() {
		It("starts at the initial confidence and reinforces", func() {
			conv := newConversation("1")
			Expect(driver.UpsertTheme(ctx, conv.ID, "work")).To(Succeed())
			Expect(driver.UpsertTheme(ctx, conv.ID, "work")).To(Succeed())

			themes, err := driver.ListThemes(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(themes).To(HaveLen(1))
			Expect(themes[0].Confidence).To(BeNumerically("~", 0.9, 1e-9))
		})
	})

	Describe("summaries and feedback", func() {
		It("stores overflow summaries", func() {
			conv := newConversation("1")
			Expect(driver.AddSummary(ctx, &storage.ConversationSummary{
				ConversationID: conv.ID,
				Type:           storage.SummaryMemoryOverflow,
				KeyPoints:      []string{"work", "family"},
				TopicsCovered:  []string{"work", "family"},
			})).To(Succeed())
			Expect(driver.AddFeedback(ctx, &storage.Feedback{
				MessageID:             "m1",
				ResponseType:          "venting",
				ResponseTemplate:      "enhanced_conversational",
				EngagementScore:       0.5,
				ConversationContinued: true,
			})).To(Succeed())

			sums, err := driver.ListSummaries(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(sums).To(HaveLen(1))
			Expect(sums[0].KeyPoints).To(Equal([]string{"work", "family"}))
			Expect(sums[0].Revelations).To(BeEmpty())
		})
	})

	Describe("Stats", func() {
		It("counts records", func() {
			conv := newConversation("1")
			Expect(driver.AddMessage(ctx, &storage.Message{ConversationID: conv.ID, Content: "hi", IsUser: true})).To(Succeed())
			_, err := driver.UpsertFact(ctx, "1", conv.ID, NameCandidate("Alex"))
			Expect(err).NotTo(HaveOccurred())

			s, err := driver.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(s).To(Equal(storage.Stats{
				Users: 1, Conversations: 1, ActiveConversations: 1, Messages: 1, Facts: 1,
			}))
		})
	})
}
