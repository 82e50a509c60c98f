package api

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/papercomputeco/companion/pkg/companion"
	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/storage"
	"github.com/papercomputeco/companion/pkg/worker"
)

// DefaultUserID is used when a request names no user.
const DefaultUserID = "1"

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`

	// ForceNewChat starts a new conversation even when ConversationID is set.
	ForceNewChat bool `json:"force_new_chat,omitempty"`
}

// ChatResponse is the reply to POST /v1/chat.
type ChatResponse struct {
	*companion.Result

	// MessageID identifies the stored reply. Empty on overflow.
	MessageID string `json:"message_id,omitempty"`

	MemoryOverflow      bool            `json:"memory_overflow"`
	RestartRequired     bool            `json:"restart_required"`
	ConversationSummary *memory.Summary `json:"conversation_summary,omitempty"`
}

// handleChat runs one conversational turn. The conversation is created or
// verified synchronously; the turn's records are persisted by the worker pool.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "message is required")
	}
	userID := lo.Ternary(req.UserID == "", DefaultUserID, req.UserID)

	ctx := c.Context()
	if _, _, err := s.storer.EnsureUser(ctx, userID); err != nil {
		return err
	}

	conv, err := s.resolveConversation(ctx, userID, &req)
	if err != nil {
		var nf storage.NotFoundError
		if errors.As(err, &nf) {
			return errorJSON(c, fiber.StatusNotFound, "conversation not found")
		}
		return err
	}

	if _, err := s.service.EnsureLoaded(ctx, conv.ID, s.history); err != nil {
		return err
	}

	known, err := s.knownFacts(ctx, userID)
	if err != nil {
		return err
	}

	res, err := s.service.ProcessMessage(ctx, conv.ID, req.Message, companion.WithUserFacts(known))
	if err != nil {
		var inputErr *companion.InputError
		if errors.As(err, &inputErr) {
			return errorJSON(c, fiber.StatusBadRequest, inputErr.Error())
		}
		return err
	}

	if res.Overflow != nil {
		s.pool.Enqueue(worker.NewOverflowJob(userID, conv.ID, res))
		s.service.Forget(conv.ID)
		summary := res.Overflow.Summary
		return c.JSON(ChatResponse{
			Result:              res,
			MemoryOverflow:      true,
			RestartRequired:     true,
			ConversationSummary: &summary,
		})
	}

	job := worker.NewTurnJob(userID, conv.ID, req.Message, res)
	s.pool.Enqueue(job)

	return c.JSON(ChatResponse{
		Result:    res,
		MessageID: job.ReplyMessageID,
	})
}

// resolveConversation returns the conversation a chat request targets,
// creating one when none is named or a new chat is forced.
func (s *Server) resolveConversation(ctx context.Context, userID string, req *ChatRequest) (*storage.Conversation, error) {
	if req.ForceNewChat || req.ConversationID == "" {
		conv := &storage.Conversation{
			UserID: userID,
			Title:  companion.GenerateTitle(req.Message, storage.Now()),
		}
		if err := s.storer.CreateConversation(ctx, conv); err != nil {
			return nil, err
		}
		s.logger.Info("conversation started",
			"conversation_id", conv.ID,
			"user_id", userID,
			"title", conv.Title,
		)
		return conv, nil
	}
	return s.storer.GetConversation(ctx, userID, req.ConversationID)
}

func (s *Server) knownFacts(ctx context.Context, userID string) (map[string]string, error) {
	stored, err := s.storer.ListFacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.SliceToMap(stored, func(f *storage.Fact) (string, string) {
		return f.Key, f.Value
	}), nil
}

func (s *Server) history(ctx context.Context, conversationID string) ([]memory.Message, error) {
	return storage.History(ctx, s.storer, conversationID)
}
