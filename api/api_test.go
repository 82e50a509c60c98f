package api

import (
	"context"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/lexicon"
	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/storage"
	"github.com/papercomputeco/companion/pkg/utils"
)

var _ = Describe("API", func() {
	var (
		env *testEnv
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		env = newTestEnv(Config{}, memory.Config{})
	})

	Describe("health", func() {
		It("answers ping", func() {
			var body string
			Expect(env.call(http.MethodGet, "/ping", nil, &body)).To(Equal(http.StatusOK))
			Expect(body).To(Equal("pong"))
		})

		It("reports version and live sessions", func() {
			env.chat(ChatRequest{Message: "hello there"})

			var health HealthResponse
			Expect(env.call(http.MethodGet, "/health", nil, &health)).To(Equal(http.StatusOK))
			Expect(health.Status).To(Equal("healthy"))
			Expect(health.Version).To(Equal(utils.Version))
			Expect(health.Features).NotTo(BeEmpty())
			Expect(health.ActiveSessions).To(Equal(1))
		})

		It("renders unknown routes as JSON errors", func() {
			var body ErrorResponse
			Expect(env.call(http.MethodGet, "/v1/nope", nil, &body)).To(Equal(http.StatusNotFound))
			Expect(body.Error).NotTo(BeEmpty())
		})
	})

	Describe("POST /v1/chat", func() {
		It("rejects an empty message", func() {
			var body ErrorResponse
			status := env.call(http.MethodPost, "/v1/chat", ChatRequest{Message: "  "}, &body)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body.Error).To(Equal("message is required"))
			Expect(env.svc.Sessions().Len()).To(Equal(0))
		})

		It("rejects a malformed body", func() {
			req, err := http.NewRequest(http.MethodPost, "/v1/chat", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")
			req.Body = io.NopCloser(stringReader("{not json"))
			resp, err := env.server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("starts a titled conversation for the default user", func() {
			res := env.chat(ChatRequest{Message: "I'm really nervous about my presentation tomorrow"})
			Expect(res.ConversationID).NotTo(BeEmpty())
			Expect(res.MessageID).NotTo(BeEmpty())
			Expect(res.Response).NotTo(BeEmpty())
			Expect(res.Intent).NotTo(BeEmpty())
			Expect(res.Emotions).NotTo(BeEmpty())
			Expect(res.Emotions[0].Emotion).To(Equal(lexicon.Anxiety))
			Expect(res.RestartRequired).To(BeFalse())
			Expect(res.MemoryStatus.MessageCount).To(Equal(1))

			conv, err := env.driver.GetConversation(ctx, DefaultUserID, res.ConversationID)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.Title).To(Equal("🎯 Presentation Discussion"))
			Expect(conv.Active).To(BeTrue())

			user, err := env.driver.GetUser(ctx, DefaultUserID)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Username).To(Equal("user_1"))
		})

		It("persists the turn through the worker pool", func() {
			res := env.chat(ChatRequest{Message: "My name is Alex and work has been stressful", UserID: "7"})
			Eventually(env.messageCount(res.ConversationID)).Should(Equal(2))

			Eventually(func() []string {
				stored, err := env.driver.ListFacts(ctx, "7")
				Expect(err).NotTo(HaveOccurred())
				keys := []string{}
				for _, f := range stored {
					keys = append(keys, f.Key+"="+f.Value)
				}
				return keys
			}).Should(ContainElement("name=Alex"))

			msgs, err := env.driver.ListMessages(ctx, res.ConversationID)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs[1].ID).To(Equal(res.MessageID))
			Expect(msgs[1].IsUser).To(BeFalse())
		})

		It("continues a named conversation", func() {
			first := env.chat(ChatRequest{Message: "Work has been stressful lately"})
			second := env.chat(ChatRequest{Message: "My boss keeps adding deadlines", ConversationID: first.ConversationID})
			Expect(second.ConversationID).To(Equal(first.ConversationID))
			Expect(second.MemoryStatus.MessageCount).To(Equal(2))
		})

		It("forces a new conversation on request", func() {
			first := env.chat(ChatRequest{Message: "Work has been stressful lately"})
			second := env.chat(ChatRequest{Message: "Something else", ConversationID: first.ConversationID, ForceNewChat: true})
			Expect(second.ConversationID).NotTo(Equal(first.ConversationID))
		})

		It("returns 404 for a conversation owned by someone else", func() {
			first := env.chat(ChatRequest{Message: "hello", UserID: "1"})
			var body ErrorResponse
			status := env.call(http.MethodPost, "/v1/chat", ChatRequest{
				Message:        "hi",
				UserID:         "2",
				ConversationID: first.ConversationID,
			}, &body)
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body.Error).To(Equal("conversation not found"))
		})

		It("rebuilds a dropped session from stored messages", func() {
			first := env.chat(ChatRequest{Message: "Work has been stressful lately"})
			Eventually(env.messageCount(first.ConversationID)).Should(Equal(2))
			Expect(env.svc.Forget(first.ConversationID)).To(BeTrue())

			next := env.chat(ChatRequest{Message: "It is getting worse", ConversationID: first.ConversationID})
			Expect(next.MemoryStatus.MessageCount).To(Equal(2))
		})
	})

	Describe("memory overflow", func() {
		BeforeEach(func() {
			env = newTestEnv(Config{}, memory.Config{MaxMessages: 2})
		})

		It("requires a restart and closes the conversation", func() {
			first := env.chat(ChatRequest{Message: "Work has been stressful"})
			env.chat(ChatRequest{Message: "My boss is difficult", ConversationID: first.ConversationID})

			res := env.chat(ChatRequest{Message: "And deadlines too", ConversationID: first.ConversationID})
			Expect(res.MemoryOverflow).To(BeTrue())
			Expect(res.RestartRequired).To(BeTrue())
			Expect(res.MessageID).To(BeEmpty())
			Expect(res.Intent).To(Equal(lexicon.IntentMemoryOverflow))
			Expect(res.ConversationSummary).NotTo(BeNil())
			Expect(res.ConversationSummary.MessageCount).To(Equal(2))
			Expect(env.svc.Loaded(first.ConversationID)).To(BeFalse())

			Eventually(func() bool {
				conv, err := env.driver.GetConversation(ctx, DefaultUserID, first.ConversationID)
				Expect(err).NotTo(HaveOccurred())
				return conv.Active
			}).Should(BeFalse())

			Eventually(func() []string {
				summaries, err := env.driver.ListSummaries(ctx, first.ConversationID)
				Expect(err).NotTo(HaveOccurred())
				types := []string{}
				for _, sum := range summaries {
					types = append(types, sum.Type)
				}
				return types
			}).Should(Equal([]string{storage.SummaryMemoryOverflow}))
		})
	})

	Describe("conversations", func() {
		var convID string

		BeforeEach(func() {
			res := env.chat(ChatRequest{Message: "Work has been stressful and I feel anxious"})
			convID = res.ConversationID
			Eventually(func() int {
				themes, err := env.driver.ListThemes(ctx, convID)
				Expect(err).NotTo(HaveOccurred())
				return len(themes)
			}).Should(BeNumerically(">", 0))
		})

		It("lists active conversations with memory status", func() {
			var views []ConversationView
			Expect(env.call(http.MethodGet, "/v1/conversations", nil, &views)).To(Equal(http.StatusOK))
			Expect(views).To(HaveLen(1))
			Expect(views[0].ID).To(Equal(convID))
			Expect(views[0].MessageCount).To(Equal(2))
			Expect(views[0].Themes).To(ContainElement("work"))
			Expect(views[0].DominantEmotion).NotTo(BeEmpty())
			Expect(views[0].MemoryStatus).NotTo(BeNil())
			Expect(views[0].MemoryStatus.MessagesInMemory).To(Equal(1))
		})

		It("omits memory status for conversations without a session", func() {
			env.svc.Forget(convID)
			var views []ConversationView
			Expect(env.call(http.MethodGet, "/v1/conversations?user_id=1", nil, &views)).To(Equal(http.StatusOK))
			Expect(views[0].MemoryStatus).To(BeNil())
		})

		It("reports insights with database stats", func() {
			env.svc.Forget(convID)

			var body InsightsResponse
			Expect(env.call(http.MethodGet, "/v1/conversations/"+convID+"/insights", nil, &body)).To(Equal(http.StatusOK))
			Expect(body.ConversationID).To(Equal(convID))
			Expect(body.Insights).NotTo(BeNil())
			Expect(body.Insights.EmotionalOpenness).To(Equal(1.0))
			Expect(body.DatabaseStats.TotalMessages).To(Equal(2))
			Expect(body.DatabaseStats.UserMessages).To(Equal(1))
			Expect(body.DatabaseStats.AIResponses).To(Equal(1))
			Expect(body.DatabaseStats.ThemesTracked).To(Equal(len(body.DatabaseStats.ThemeDetails)))
		})

		It("returns 404 insights for unknown conversations", func() {
			Expect(env.call(http.MethodGet, "/v1/conversations/missing/insights", nil, nil)).To(Equal(http.StatusNotFound))
		})

		It("restarts a conversation", func() {
			var body RestartResponse
			Expect(env.call(http.MethodPost, "/v1/conversations/"+convID+"/restart?preserve_facts=false", nil, &body)).To(Equal(http.StatusOK))
			Expect(body.RestartSuccessful).To(BeTrue())
			Expect(body.PreviousConversationSummary.MessageCount).To(Equal(1))
			Expect(body.PreservedFacts).To(BeEmpty())
			Expect(env.svc.Loaded(convID)).To(BeFalse())

			conv, err := env.driver.GetConversation(ctx, DefaultUserID, convID)
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.Active).To(BeFalse())
			Expect(conv.Summary).To(Equal("Manually restarted conversation with 1 messages"))
		})

		It("soft deletes a conversation", func() {
			var body MessageResponse
			Expect(env.call(http.MethodDelete, "/v1/conversations/"+convID, nil, &body)).To(Equal(http.StatusOK))
			Expect(body.Message).To(Equal("Conversation deleted successfully"))
			Expect(env.svc.Loaded(convID)).To(BeFalse())

			var views []ConversationView
			env.call(http.MethodGet, "/v1/conversations", nil, &views)
			Expect(views).To(BeEmpty())
			env.call(http.MethodGet, "/v1/conversations?active=false", nil, &views)
			Expect(views).To(HaveLen(1))
		})

		It("refuses to delete another user's conversation", func() {
			Expect(env.call(http.MethodDelete, "/v1/conversations/"+convID+"?user_id=9", nil, nil)).To(Equal(http.StatusNotFound))
		})
	})

	Describe("memory administration", func() {
		It("lists session status", func() {
			res := env.chat(ChatRequest{Message: "hello there"})
			var body MemoryStatusResponse
			Expect(env.call(http.MethodGet, "/v1/memory/status", nil, &body)).To(Equal(http.StatusOK))
			Expect(body.ActiveSessions).To(Equal(1))
			Expect(body.Sessions[res.ConversationID].MessageCount).To(Equal(1))
			Expect(body.Sessions[res.ConversationID].State).To(Equal(memory.StateActive))
		})

		It("cleans up idle sessions", func() {
			env.chat(ChatRequest{Message: "hello there"})

			var body CleanupResponse
			Expect(env.call(http.MethodPost, "/v1/memory/cleanup", nil, &body)).To(Equal(http.StatusOK))
			Expect(body.CleanedSessions).To(Equal(0))
			Expect(body.RemainingSessions).To(Equal(1))

			Expect(env.call(http.MethodPost, "/v1/memory/cleanup?idle=0s", nil, &body)).To(Equal(http.StatusOK))
			Expect(body.CleanedSessions).To(Equal(1))
			Expect(body.RemainingSessions).To(Equal(0))
		})

		It("rejects a bad idle duration", func() {
			Expect(env.call(http.MethodPost, "/v1/memory/cleanup?idle=soon", nil, nil)).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("users and system", func() {
		It("returns a user profile with learned facts", func() {
			env.chat(ChatRequest{Message: "My name is Alex", UserID: "5"})
			Eventually(func() int {
				stored, _ := env.driver.ListFacts(ctx, "5")
				return len(stored)
			}).Should(BeNumerically(">", 0))

			var body ProfileResponse
			Expect(env.call(http.MethodGet, "/v1/users/5/profile", nil, &body)).To(Equal(http.StatusOK))
			Expect(body.User.Username).To(Equal("user_5"))
			Expect(body.User.Profile).To(HaveKeyWithValue("communication_style", "adaptive"))
			Expect(body.Facts[0].Value).To(Equal("Alex"))
		})

		It("returns 404 for unknown users", func() {
			Expect(env.call(http.MethodGet, "/v1/users/404/profile", nil, nil)).To(Equal(http.StatusNotFound))
		})

		It("reports system statistics", func() {
			res := env.chat(ChatRequest{Message: "hello there"})
			Eventually(env.messageCount(res.ConversationID)).Should(Equal(2))

			var body SystemStatsResponse
			Expect(env.call(http.MethodGet, "/v1/system/stats", nil, &body)).To(Equal(http.StatusOK))
			Expect(body.Database.Users).To(Equal(1))
			Expect(body.Database.Conversations).To(Equal(1))
			Expect(body.Database.Messages).To(Equal(2))
			Expect(body.Database.AvgMessagesPerConversation).To(Equal(2.0))
			Expect(body.Memory.ActiveSessions).To(Equal(1))
			Expect(body.Memory.TotalMessagesInMemory).To(Equal(1))
			Expect(body.Memory.Sessions).To(HaveKey(res.ConversationID))
		})

		It("exposes prometheus metrics", func() {
			env.chat(ChatRequest{Message: "hello there"})
			req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := env.server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			raw, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(raw)).To(ContainSubstring("companion_http_requests_total"))
		})
	})

	Describe("demos", func() {
		It("lists demos", func() {
			var body map[string][]string
			Expect(env.call(http.MethodGet, "/v1/demo", nil, &body)).To(Equal(http.StatusOK))
			Expect(body["demos"]).To(ContainElement("presentation_stress"))
		})

		It("runs a demo without touching live sessions", func() {
			var body map[string]any
			Expect(env.call(http.MethodPost, "/v1/demo/work_stress", nil, &body)).To(Equal(http.StatusOK))
			Expect(body["demo_type"]).To(Equal("work_stress"))
			Expect(body["conversation"]).To(HaveLen(4))
			Expect(env.svc.Sessions().Len()).To(Equal(0))
		})

		It("rejects unknown demos", func() {
			var body map[string]any
			Expect(env.call(http.MethodPost, "/v1/demo/nope", nil, &body)).To(Equal(http.StatusBadRequest))
			Expect(body["available"]).NotTo(BeEmpty())
		})
	})

	Describe("rate limiting", func() {
		It("rejects requests over the per-minute budget", func() {
			env = newTestEnv(Config{RateLimit: 2}, memory.Config{})
			Expect(env.call(http.MethodGet, "/v1/memory/status", nil, nil)).To(Equal(http.StatusOK))
			Expect(env.call(http.MethodGet, "/v1/memory/status", nil, nil)).To(Equal(http.StatusOK))

			var body ErrorResponse
			Expect(env.call(http.MethodGet, "/v1/memory/status", nil, &body)).To(Equal(http.StatusTooManyRequests))
			Expect(body.Error).To(Equal("rate limit exceeded"))

			Expect(env.call(http.MethodGet, "/ping", nil, nil)).To(Equal(http.StatusOK))
		})
	})
})
