package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/companion/pkg/lexicon"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnProcessed is emitted after a conversation turn is persisted.
	EventTypeTurnProcessed = "companion.turn.processed"

	// EventTypeConversationOverflowed is emitted when a conversation is
	// closed because its memory filled up.
	EventTypeConversationOverflowed = "companion.conversation.overflowed"
)

// Event is a transport-neutral event payload. Exactly one of Turn and
// Overflow is set, matching EventType.
type Event struct {
	SchemaVersion  int           `json:"schema_version"`
	EventType      string        `json:"event_type"`
	EventID        string        `json:"event_id"`
	EmittedAt      time.Time     `json:"emitted_at"`
	ConversationID string        `json:"conversation_id"`
	UserID         string        `json:"user_id"`
	Turn           *TurnMeta     `json:"turn,omitempty"`
	Overflow       *OverflowMeta `json:"overflow,omitempty"`
}

// TurnMeta describes a processed turn.
type TurnMeta struct {
	UserMessageID      string               `json:"user_message_id"`
	AssistantMessageID string               `json:"assistant_message_id"`
	Intent             lexicon.Intent       `json:"intent"`
	Emotions           []lexicon.EmotionTag `json:"detected_emotions"`
	Topics             []string             `json:"detected_topics"`
	Sentiment          float64              `json:"sentiment_score"`
	FactsLearned       int                  `json:"facts_learned"`
	MessageCount       int                  `json:"message_count"`
}

// OverflowMeta describes a conversation closed by memory overflow.
type OverflowMeta struct {
	Reason       string   `json:"reason"`
	MessageCount int      `json:"message_count"`
	Topics       []string `json:"topics"`
	Summary      string   `json:"summary"`
}

// NewTurnEvent builds a turn event stamped with a fresh id.
func NewTurnEvent(conversationID, userID string, turn TurnMeta) *Event {
	return newEvent(EventTypeTurnProcessed, conversationID, userID, func(e *Event) { e.Turn = &turn })
}

// NewOverflowEvent builds an overflow event stamped with a fresh id.
func NewOverflowEvent(conversationID, userID string, overflow OverflowMeta) *Event {
	return newEvent(EventTypeConversationOverflowed, conversationID, userID, func(e *Event) { e.Overflow = &overflow })
}

func newEvent(eventType, conversationID, userID string, set func(*Event)) *Event {
	e := &Event{
		SchemaVersion:  SchemaVersionV1,
		EventType:      eventType,
		EventID:        "evt_" + uuid.NewString(),
		EmittedAt:      time.Now().UTC(),
		ConversationID: conversationID,
		UserID:         userID,
	}
	set(e)
	return e
}
