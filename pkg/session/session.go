// Package session keeps the live conversation memories of the process,
// keyed by conversation id, with idle expiry and a capacity bound.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/companion/pkg/memory"
)

// Session is one live conversation. Callers hold Lock while reading or
// mutating Memory so turns of the same conversation never interleave.
type Session struct {
	ID        string
	Memory    *memory.Memory
	CreatedAt time.Time

	mu         sync.Mutex
	lastActive atomic.Int64
	removed    atomic.Bool
}

func newSession(id string, cfg memory.Config, now time.Time) *Session {
	s := &Session{
		ID:        id,
		Memory:    memory.New(cfg),
		CreatedAt: now,
	}
	s.lastActive.Store(now.UnixNano())
	return s
}

// Lock acquires exclusive use of the session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch marks the session as active at t.
func (s *Session) Touch(t time.Time) {
	s.lastActive.Store(t.UnixNano())
}

// LastActive returns the time of the last Touch.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Store is a concurrency-safe registry of sessions.
type Store interface {
	// GetOrCreate returns the session for id, creating it when absent. The
	// bool is true when the session was created.
	GetOrCreate(id string) (*Session, bool)

	// Get returns the session for id and refreshes its expiry.
	Get(id string) (*Session, bool)

	// Delete drops the session for id, reporting whether it existed.
	Delete(id string) bool

	// Len returns the number of live sessions.
	Len() int

	// Snapshot lists live sessions, most recently active first.
	Snapshot() []*Session

	// Cleanup drops sessions idle for longer than idle and returns how many
	// were removed.
	Cleanup(idle time.Duration) int

	// Close drops every session.
	Close()
}
