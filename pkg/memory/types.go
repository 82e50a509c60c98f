package memory

import (
	"time"
	"unicode/utf8"

	"github.com/papercomputeco/companion/pkg/lexicon"
)

// Author identifies who wrote a message.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Message is one stored utterance. It is not modified after it is recorded.
type Message struct {
	Author      Author               `json:"author"`
	Content     string               `json:"content"`
	Timestamp   time.Time            `json:"timestamp"`
	Emotions    []lexicon.EmotionTag `json:"emotions,omitempty"`
	Topics      []string             `json:"topics,omitempty"`
	Intent      lexicon.Intent       `json:"intent,omitempty"`
	Sentiment   float64              `json:"sentiment"`
	Threaded    bool                 `json:"threaded,omitempty"`
	Specificity string               `json:"specificity,omitempty"`
	IsQuestion  bool                 `json:"is_question,omitempty"`
}

// Turn pairs a user message with the reply it produced.
type Turn struct {
	User  Message  `json:"user"`
	Reply *Message `json:"reply,omitempty"`
}

// length is the character count of the turn's user message and reply.
func (t Turn) length() int {
	n := utf8.RuneCountInString(t.User.Content)
	if t.Reply != nil {
		n += utf8.RuneCountInString(t.Reply.Content)
	}
	return n
}

// TopicStat aggregates how often a topic came up.
type TopicStat struct {
	Topic     string    `json:"topic"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// EmotionalSnapshot is recorded for each user message that carried emotion.
type EmotionalSnapshot struct {
	Timestamp time.Time            `json:"timestamp"`
	Emotions  []lexicon.EmotionTag `json:"emotions"`
	Sentiment float64              `json:"sentiment"`
}

// Primary returns the leading emotion of the snapshot.
func (s EmotionalSnapshot) Primary() lexicon.Emotion {
	if len(s.Emotions) == 0 {
		return ""
	}
	return s.Emotions[0].Emotion
}

// Key fact names.
const (
	FactUpcomingEvent    = "upcoming_event"
	FactPersonalSubjects = "personal_subjects"
)

// OverflowReason names the bound a memory exceeded.
type OverflowReason string

const (
	ReasonConversationLength OverflowReason = "conversation_length"
	ReasonContextLength      OverflowReason = "context_length"
	ReasonTopicDiversity     OverflowReason = "topic_diversity"
)

// State is the memory lifecycle state.
type State string

const (
	StateActive     State = "active"
	StateOverflowed State = "overflowed"
)

// Status is a point-in-time usage report.
type Status struct {
	MessageCount     int     `json:"message_count"`
	MaxMessages      int     `json:"max_messages"`
	TopicsTracked    int     `json:"topics_tracked"`
	FactsTracked     int     `json:"facts_tracked"`
	ContextLength    int     `json:"context_length"`
	MaxContextLength int     `json:"max_context_length"`
	UsagePercent     float64 `json:"usage_percent"`
	JourneyLength    int     `json:"journey_length"`
	State            State   `json:"state"`
}
