package storage

import (
	"context"
	"fmt"

	"github.com/papercomputeco/companion/pkg/lexicon"
	"github.com/papercomputeco/companion/pkg/memory"
)

// MemoryMessage converts a persisted message into the form conversation
// memory is rebuilt from.
func (m *Message) MemoryMessage() memory.Message {
	author := memory.AuthorAssistant
	if m.IsUser {
		author = memory.AuthorUser
	}
	return memory.Message{
		Author:    author,
		Content:   m.Content,
		Timestamp: m.Timestamp,
		Emotions:  m.Emotions,
		Topics:    m.Topics,
		Intent:    lexicon.Intent(m.Intent),
		Sentiment: m.Sentiment,
	}
}

// History loads a conversation's messages as memory messages, oldest first.
func History(ctx context.Context, d Driver, conversationID string) ([]memory.Message, error) {
	msgs, err := d.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading history for %s: %w", conversationID, err)
	}
	out := make([]memory.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.MemoryMessage())
	}
	return out, nil
}
