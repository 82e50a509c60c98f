package storage

import (
	"time"

	"github.com/papercomputeco/companion/pkg/lexicon"
)

// User is a companion user and their communication profile.
type User struct {
	ID        string            `json:"id" db:"id"`
	Username  string            `json:"username" db:"username"`
	Profile   map[string]string `json:"personality_profile" db:"-"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// Conversation is one chat thread owned by a user.
type Conversation struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	Title           string    `json:"title" db:"title"`
	Summary         string    `json:"summary" db:"summary"`
	DominantEmotion string    `json:"dominant_emotion,omitempty" db:"dominant_emotion"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	LastMessageAt   time.Time `json:"last_message_at" db:"last_message_at"`
	Active          bool      `json:"is_active" db:"is_active"`
}

// ConversationUpdate carries the fields UpdateConversation changes. Nil
// fields are left alone.
type ConversationUpdate struct {
	Title           *string
	Summary         *string
	DominantEmotion *string
	LastMessageAt   *time.Time
	Active          *bool
}

// Message is a persisted chat message.
type Message struct {
	ID             string               `json:"id"`
	ConversationID string               `json:"conversation_id"`
	Content        string               `json:"content"`
	IsUser         bool                 `json:"is_user"`
	Emotions       []lexicon.EmotionTag `json:"detected_emotions"`
	Topics         []string             `json:"detected_topics"`
	Sentiment      float64              `json:"sentiment_score"`
	Intent         string               `json:"intent"`
	Timestamp      time.Time            `json:"timestamp"`
}

// MessageCounts splits a conversation's messages by author.
type MessageCounts struct {
	Total int `json:"total_messages"`
	User  int `json:"user_messages"`
}

// Assistant returns the number of assistant replies.
func (c MessageCounts) Assistant() int {
	return c.Total - c.User
}

// Fact is a durable fact learned about a user.
type Fact struct {
	ID                   string    `json:"id" db:"id"`
	UserID               string    `json:"user_id" db:"user_id"`
	Type                 string    `json:"fact_type" db:"fact_type"`
	Key                  string    `json:"key" db:"key"`
	Value                string    `json:"value" db:"value"`
	Confidence           float64   `json:"confidence" db:"confidence"`
	SourceConversationID string    `json:"source_conversation_id" db:"source_conversation_id"`
	TimesConfirmed       int       `json:"times_confirmed" db:"times_confirmed"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// Theme is a topic tracked across a conversation.
type Theme struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	Theme          string    `json:"theme" db:"theme"`
	Confidence     float64   `json:"confidence" db:"confidence"`
	FirstMentioned time.Time `json:"first_mentioned" db:"first_mentioned"`
	LastMentioned  time.Time `json:"last_mentioned" db:"last_mentioned"`
}

// Feedback records how a reply was produced and how engaged the user was.
type Feedback struct {
	ID                    string    `json:"id" db:"id"`
	MessageID             string    `json:"message_id" db:"message_id"`
	ResponseType          string    `json:"response_type" db:"response_type"`
	ResponseTemplate      string    `json:"response_template" db:"response_template"`
	EngagementScore       float64   `json:"user_engagement_score" db:"user_engagement_score"`
	ConversationContinued bool      `json:"conversation_continued" db:"conversation_continued"`
	SentimentChange       float64   `json:"user_sentiment_change" db:"user_sentiment_change"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
}

// SummaryMemoryOverflow marks a summary written when a conversation's
// memory filled up.
const SummaryMemoryOverflow = "memory_overflow"

// ConversationSummary is a persisted snapshot of a finished conversation.
type ConversationSummary struct {
	ID               string    `json:"id"`
	ConversationID   string    `json:"conversation_id"`
	Type             string    `json:"summary_type"`
	KeyPoints        []string  `json:"key_points"`
	EmotionalJourney []string  `json:"emotional_journey"`
	TopicsCovered    []string  `json:"topics_covered"`
	Revelations      []string  `json:"user_revelations"`
	CreatedAt        time.Time `json:"created_at"`
}

// Stats are table-level record counts.
type Stats struct {
	Users               int `json:"users" db:"users"`
	Conversations       int `json:"conversations" db:"conversations"`
	ActiveConversations int `json:"active_conversations" db:"active_conversations"`
	Messages            int `json:"messages" db:"messages"`
	Facts               int `json:"facts" db:"facts"`
	Themes              int `json:"themes" db:"themes"`
	Summaries           int `json:"summaries" db:"summaries"`
}
