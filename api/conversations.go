package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/storage"
)

// ConversationView is one entry of GET /v1/conversations.
type ConversationView struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Summary         string           `json:"summary,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	LastMessageAt   time.Time        `json:"last_message_at"`
	Active          bool             `json:"is_active"`
	MessageCount    int              `json:"message_count"`
	DominantEmotion string           `json:"dominant_emotion,omitempty"`
	Themes          []string         `json:"themes"`
	MemoryStatus    *SessionOverview `json:"memory_status"`
}

// SessionOverview is the memory usage of a live conversation.
type SessionOverview struct {
	MessagesInMemory   int     `json:"messages_in_memory"`
	TopicsTracked      int     `json:"topics_tracked"`
	KeyFacts           int     `json:"key_facts"`
	MemoryUsagePercent float64 `json:"memory_usage_percent"`
}

// DatabaseStats is the persisted side of a conversation's insights.
type DatabaseStats struct {
	TotalMessages int              `json:"total_messages"`
	UserMessages  int              `json:"user_messages"`
	AIResponses   int              `json:"ai_responses"`
	ThemesTracked int              `json:"themes_tracked"`
	ThemeDetails  []*storage.Theme `json:"theme_details"`
}

// InsightsResponse is the reply to GET /v1/conversations/:id/insights.
type InsightsResponse struct {
	ConversationID string           `json:"conversation_id"`
	Insights       *memory.Insights `json:"insights"`
	DatabaseStats  DatabaseStats    `json:"database_stats"`
}

// RestartResponse is the reply to POST /v1/conversations/:id/restart.
type RestartResponse struct {
	RestartSuccessful           bool                `json:"restart_successful"`
	PreviousConversationSummary memory.Summary      `json:"previous_conversation_summary"`
	PreservedFacts              map[string][]string `json:"preserved_facts"`
	Message                     string              `json:"message"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

func userIDOf(c *fiber.Ctx) string {
	return c.Query("user_id", DefaultUserID)
}

// ownedConversation loads the :id conversation for the requesting user.
// found is false when a 404 has already been written.
func (s *Server) ownedConversation(c *fiber.Ctx) (conv *storage.Conversation, found bool, err error) {
	conv, err = s.storer.GetConversation(c.Context(), userIDOf(c), c.Params("id"))
	if err != nil {
		var nf storage.NotFoundError
		if errors.As(err, &nf) {
			return nil, false, errorJSON(c, fiber.StatusNotFound, "conversation not found")
		}
		return nil, false, err
	}
	return conv, true, nil
}

// handleListConversations returns a user's conversations, most recently
// active first. Query parameters:
//   - user_id (optional, default 1)
//   - active (optional, default true): only list open conversations
func (s *Server) handleListConversations(c *fiber.Ctx) error {
	ctx := c.Context()
	activeOnly := c.QueryBool("active", true)

	convs, err := s.storer.ListConversations(ctx, userIDOf(c), activeOnly)
	if err != nil {
		return err
	}

	views := make([]ConversationView, 0, len(convs))
	for _, conv := range convs {
		counts, err := s.storer.CountMessages(ctx, conv.ID)
		if err != nil {
			return err
		}
		themes, err := s.storer.ListThemes(ctx, conv.ID)
		if err != nil {
			return err
		}

		view := ConversationView{
			ID:              conv.ID,
			Title:           conv.Title,
			Summary:         conv.Summary,
			CreatedAt:       conv.CreatedAt,
			LastMessageAt:   conv.LastMessageAt,
			Active:          conv.Active,
			MessageCount:    counts.Total,
			DominantEmotion: conv.DominantEmotion,
			Themes:          lo.Map(themes, func(t *storage.Theme, _ int) string { return t.Theme }),
		}
		if status, err := s.service.MemoryStatus(conv.ID); err == nil {
			view.MemoryStatus = overviewOf(status)
		}
		views = append(views, view)
	}

	return c.JSON(views)
}

func overviewOf(st memory.Status) *SessionOverview {
	return &SessionOverview{
		MessagesInMemory:   st.MessageCount,
		TopicsTracked:      st.TopicsTracked,
		KeyFacts:           st.FactsTracked,
		MemoryUsagePercent: st.UsagePercent,
	}
}

// handleInsights returns memory insights and stored statistics for a
// conversation, rebuilding its memory from storage when no session is live.
func (s *Server) handleInsights(c *fiber.Ctx) error {
	conv, found, err := s.ownedConversation(c)
	if !found {
		return err
	}
	ctx := c.Context()

	if _, err := s.service.EnsureLoaded(ctx, conv.ID, s.history); err != nil {
		return err
	}
	insights, err := s.service.Insights(ctx, conv.ID)
	if err != nil {
		return err
	}

	counts, err := s.storer.CountMessages(ctx, conv.ID)
	if err != nil {
		return err
	}
	themes, err := s.storer.ListThemes(ctx, conv.ID)
	if err != nil {
		return err
	}

	return c.JSON(InsightsResponse{
		ConversationID: conv.ID,
		Insights:       insights,
		DatabaseStats: DatabaseStats{
			TotalMessages: counts.Total,
			UserMessages:  counts.User,
			AIResponses:   counts.Assistant(),
			ThemesTracked: len(themes),
			ThemeDetails:  themes,
		},
	})
}

// handleRestart resets a conversation's memory and closes it. Query
// parameters:
//   - user_id (optional, default 1)
//   - preserve_facts (optional, default true): keep key facts in the reset memory
func (s *Server) handleRestart(c *fiber.Ctx) error {
	conv, found, err := s.ownedConversation(c)
	if !found {
		return err
	}
	ctx := c.Context()
	preserve := c.QueryBool("preserve_facts", true)

	if _, err := s.service.EnsureLoaded(ctx, conv.ID, s.history); err != nil {
		return err
	}
	reset, err := s.service.Reset(ctx, conv.ID, preserve)
	if err != nil {
		return err
	}
	s.service.Forget(conv.ID)

	summary := fmt.Sprintf("Manually restarted conversation with %d messages", reset.PriorSummary.MessageCount)
	if err := s.storer.UpdateConversation(ctx, conv.ID, storage.ConversationUpdate{
		Summary: &summary,
		Active:  lo.ToPtr(false),
	}); err != nil {
		return err
	}

	return c.JSON(RestartResponse{
		RestartSuccessful:           true,
		PreviousConversationSummary: reset.PriorSummary,
		PreservedFacts:              reset.PreservedFacts,
		Message:                     "Conversation memory has been reset. Start a new conversation to continue.",
	})
}

// handleDeleteConversation closes a conversation and drops its session.
// Stored messages are kept.
func (s *Server) handleDeleteConversation(c *fiber.Ctx) error {
	conv, found, err := s.ownedConversation(c)
	if !found {
		return err
	}

	s.service.Forget(conv.ID)
	if err := s.storer.UpdateConversation(c.Context(), conv.ID, storage.ConversationUpdate{
		Active: lo.ToPtr(false),
	}); err != nil {
		return err
	}

	return c.JSON(MessageResponse{Message: "Conversation deleted successfully"})
}
