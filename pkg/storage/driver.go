// Package storage persists the records that outlive a live conversation:
// users, conversations, messages, learned facts, themes, feedback and
// summaries.
package storage

import (
	"context"
	"time"

	"github.com/papercomputeco/companion/pkg/facts"
)

// Driver defines the interface for persisting and retrieving conversation
// records in a storage backend.
type Driver interface {
	// EnsureUser returns the user with id, creating it with the default
	// profile when missing. created reports whether a new user was stored.
	EnsureUser(ctx context.Context, id string) (user *User, created bool, err error)

	// GetUser retrieves a user by id.
	GetUser(ctx context.Context, id string) (*User, error)

	// CreateConversation stores a new active conversation. An empty ID is
	// assigned by the driver.
	CreateConversation(ctx context.Context, conv *Conversation) error

	// GetConversation retrieves a conversation owned by userID.
	GetConversation(ctx context.Context, userID, id string) (*Conversation, error)

	// ListConversations returns a user's conversations, most recently
	// active first.
	ListConversations(ctx context.Context, userID string, activeOnly bool) ([]*Conversation, error)

	// UpdateConversation applies the set fields of update.
	UpdateConversation(ctx context.Context, id string, update ConversationUpdate) error

	// AddMessage appends a message to its conversation.
	AddMessage(ctx context.Context, msg *Message) error

	// ListMessages returns a conversation's messages in insertion order.
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)

	// CountMessages returns the total and user-authored message counts.
	CountMessages(ctx context.Context, conversationID string) (MessageCounts, error)

	// UpsertFact stores a fact candidate for a user. An existing fact with
	// the same key is reinforced per the driver's Policy. created reports
	// whether the key was new.
	UpsertFact(ctx context.Context, userID, conversationID string, c facts.Candidate) (created bool, err error)

	// ListFacts returns a user's facts ordered by key.
	ListFacts(ctx context.Context, userID string) ([]*Fact, error)

	// UpsertTheme records a mention of theme in a conversation.
	UpsertTheme(ctx context.Context, conversationID, theme string) error

	// ListThemes returns a conversation's themes in first-mention order.
	ListThemes(ctx context.Context, conversationID string) ([]*Theme, error)

	// AddFeedback stores a response effectiveness record.
	AddFeedback(ctx context.Context, fb *Feedback) error

	// AddSummary stores a conversation summary.
	AddSummary(ctx context.Context, s *ConversationSummary) error

	// ListSummaries returns a conversation's summaries, oldest first.
	ListSummaries(ctx context.Context, conversationID string) ([]*ConversationSummary, error)

	// Stats returns table-level counts.
	Stats(ctx context.Context) (Stats, error)

	// Close closes the store and releases any resources.
	Close() error
}

// DefaultProfile is the communication profile given to new users.
func DefaultProfile() map[string]string {
	return map[string]string{
		"communication_style":       "adaptive",
		"preferred_response_length": "medium",
		"emotional_support_level":   "high",
	}
}

// Username is the generated username for a user id.
func Username(id string) string {
	return "user_" + id
}

// Now is the clock used for record timestamps.
var Now = func() time.Time {
	return time.Now().UTC()
}
