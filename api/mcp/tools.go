package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/storage"
)

var (
	insightsToolName    = "conversation_insights"
	insightsDescription = "Analyze a companion conversation. Given a conversation id, returns engagement level, emotional openness, conversation depth, the user's communication patterns, the emotional journey pattern and how topics evolved."

	userFactsToolName    = "user_facts"
	userFactsDescription = "List the durable facts the companion has learned about a user (name, profession, relationships, preferences, upcoming events) with their confidence and how often each was confirmed."

	memoryStatusToolName    = "memory_status"
	memoryStatusDescription = "Report the memory usage of every live conversation: messages held, topics tracked, key facts and how close each is to overflowing."
)

// InsightsInput represents the input arguments for the conversation_insights tool.
type InsightsInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"the id of the conversation to analyze"`
}

// InsightsOutput represents the structured output of conversation_insights.
type InsightsOutput struct {
	ConversationID string          `json:"conversation_id"`
	Insights       memory.Insights `json:"insights"`
}

// UserFactsInput represents the input arguments for the user_facts tool.
type UserFactsInput struct {
	UserID string `json:"user_id" jsonschema:"the id of the user whose facts to list"`
}

// UserFactsOutput represents the structured output of user_facts.
type UserFactsOutput struct {
	UserID string          `json:"user_id"`
	Facts  []*storage.Fact `json:"facts"`
}

// MemoryStatusInput takes no arguments.
type MemoryStatusInput struct{}

// MemoryStatusOutput represents the structured output of memory_status.
type MemoryStatusOutput struct {
	ActiveSessions int                      `json:"active_sessions"`
	Sessions       map[string]memory.Status `json:"sessions"`
}

// handleConversationInsights rebuilds the conversation from storage when it
// has no live session, then reports its insights.
func (s *Server) handleConversationInsights(ctx context.Context, _ *mcp.CallToolRequest, input InsightsInput) (*mcp.CallToolResult, InsightsOutput, error) {
	if input.ConversationID == "" {
		return errorResult("conversation_id is required"), InsightsOutput{}, nil
	}

	svc := s.config.Service
	_, err := svc.EnsureLoaded(ctx, input.ConversationID, func(ctx context.Context, id string) ([]memory.Message, error) {
		return storage.History(ctx, s.config.Storer, id)
	})
	if err != nil {
		s.config.Logger.Error("failed to load conversation", "conversation_id", input.ConversationID, "error", err)
		return errorResult("Failed to load conversation: %v", err), InsightsOutput{}, nil
	}

	insights, err := svc.Insights(ctx, input.ConversationID)
	if err != nil {
		return errorResult("Insights failed: %v", err), InsightsOutput{}, nil
	}

	output := InsightsOutput{ConversationID: input.ConversationID, Insights: *insights}
	return textResult(output), output, nil
}

func (s *Server) handleUserFacts(ctx context.Context, _ *mcp.CallToolRequest, input UserFactsInput) (*mcp.CallToolResult, UserFactsOutput, error) {
	if input.UserID == "" {
		return errorResult("user_id is required"), UserFactsOutput{}, nil
	}

	if _, err := s.config.Storer.GetUser(ctx, input.UserID); err != nil {
		var nf storage.NotFoundError
		if errors.As(err, &nf) {
			return errorResult("%v", nf), UserFactsOutput{}, nil
		}
		return errorResult("User lookup failed: %v", err), UserFactsOutput{}, nil
	}

	stored, err := s.config.Storer.ListFacts(ctx, input.UserID)
	if err != nil {
		return errorResult("Listing facts failed: %v", err), UserFactsOutput{}, nil
	}
	if stored == nil {
		stored = []*storage.Fact{}
	}

	output := UserFactsOutput{UserID: input.UserID, Facts: stored}
	return textResult(output), output, nil
}

func (s *Server) handleMemoryStatus(_ context.Context, _ *mcp.CallToolRequest, _ MemoryStatusInput) (*mcp.CallToolResult, MemoryStatusOutput, error) {
	statuses := map[string]memory.Status{}
	for _, sess := range s.config.Service.Sessions().Snapshot() {
		sess.Lock()
		statuses[sess.ID] = sess.Memory.Status()
		sess.Unlock()
	}

	output := MemoryStatusOutput{ActiveSessions: len(statuses), Sessions: statuses}
	return textResult(output), output, nil
}
