package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	sessionFile = "session.json"
)

// ChatSession is the chat client's persisted position: which user it speaks
// as and which conversation it continues.
type ChatSession struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Title          string `json:"title,omitempty"`
}

// LoadChatSession loads the chat session from a target .companion/session.json.
// Returns nil, nil if no session exists.
func (m *Manager) LoadChatSession(overrideDir string) (*ChatSession, error) {
	path, err := m.Path(overrideDir, sessionFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading chat session: %w", err)
	}

	state := &ChatSession{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing chat session: %w", err)
	}

	return state, nil
}

// SaveChatSession persists the chat session to a target .companion/session.json.
func (m *Manager) SaveChatSession(state *ChatSession, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil chat session")
	}

	path, err := m.Path(overrideDir, sessionFile)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling chat session: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing chat session: %w", err)
	}

	return nil
}

// ClearChatSession removes the chat session file so the next chat starts a
// new conversation. Returns nil if the file doesn't exist.
func (m *Manager) ClearChatSession(overrideDir string) error {
	path, err := m.Path(overrideDir, sessionFile)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing chat session: %w", err)
	}

	return nil
}
