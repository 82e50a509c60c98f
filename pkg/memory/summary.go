package memory

import (
	"fmt"
	"strings"
)

const (
	// mainTopicLimit caps Summary.MainTopics.
	mainTopicLimit = 5

	// textTopicLimit caps the topics named by Summary.Text.
	textTopicLimit = 3
)

// Summary captures a memory's state at reset time.
type Summary struct {
	MessageCount   int                 `json:"message_count"`
	MainTopics     []string            `json:"main_topics"`
	RecentEmotions []EmotionalSnapshot `json:"recent_emotions"`
	RecentContext  []string            `json:"recent_context"`
	KeyFacts       map[string][]string `json:"key_facts"`
}

// Summary builds a summary without modifying the memory.
func (m *Memory) Summary() Summary {
	topics := m.rankedTopics()
	if len(topics) > mainTopicLimit {
		topics = topics[:mainTopicLimit]
	}

	journey := m.journey
	if len(journey) > m.cfg.RecentWindow {
		journey = journey[len(journey)-m.cfg.RecentWindow:]
	}

	var context []string
	for _, t := range m.Recent(m.cfg.SummaryExchanges) {
		context = append(context, fmt.Sprintf("%s: %s", AuthorUser, t.User.Content))
		if t.Reply != nil {
			context = append(context, fmt.Sprintf("%s: %s", AuthorAssistant, t.Reply.Content))
		}
	}

	return Summary{
		MessageCount:   len(m.turns),
		MainTopics:     topics,
		RecentEmotions: append([]EmotionalSnapshot(nil), journey...),
		RecentContext:  context,
		KeyFacts:       m.KeyFacts(),
	}
}

// Text renders the one-line description stored on a closed conversation.
func (s Summary) Text() string {
	if len(s.MainTopics) == 0 {
		return fmt.Sprintf("Conversation with %d messages", s.MessageCount)
	}
	topics := s.MainTopics
	if len(topics) > textTopicLimit {
		topics = topics[:textTopicLimit]
	}
	return fmt.Sprintf("Conversation with %d messages covering: %s", s.MessageCount, strings.Join(topics, ", "))
}
