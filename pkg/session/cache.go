package session

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/papercomputeco/companion/pkg/logger"
	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/metrics"
)

// Eviction causes.
const (
	CauseExpired  = "expired"
	CauseCapacity = "capacity"
	CauseIdle     = "idle"
	CauseDeleted  = "deleted"
)

const (
	DefaultIdleTimeout     = time.Hour
	DefaultCleanupInterval = 10 * time.Minute
	DefaultMaxSessions     = 1000
)

// Config configures a CacheStore.
type Config struct {
	// IdleTimeout is the sliding expiry of a session; every access re-arms it.
	IdleTimeout time.Duration

	// CleanupInterval is how often the cache janitor purges expired sessions.
	CleanupInterval time.Duration

	// MaxSessions bounds the store. Creating a session at capacity evicts
	// the least recently active one.
	MaxSessions int

	// Memory bounds every new session's memory.
	Memory memory.Config

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Now is the clock used for activity tracking. Defaults to time.Now.
	Now func() time.Time
}

// CacheStore is a Store backed by go-cache.
type CacheStore struct {
	cfg   Config
	cache *cache.Cache

	// mu serializes lookups with creation and removal, so re-arming a
	// session's expiry never races a Delete or an eviction.
	mu sync.Mutex
}

// NewCacheStore returns an empty store.
func NewCacheStore(cfg Config) *CacheStore {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &CacheStore{
		cfg:   cfg,
		cache: cache.New(cfg.IdleTimeout, cfg.CleanupInterval),
	}
	s.cache.OnEvicted(s.onEvicted)
	return s
}

func (s *CacheStore) onEvicted(id string, v any) {
	sess, ok := v.(*Session)
	if ok && !sess.removed.Load() {
		s.cfg.Metrics.ObserveEviction(CauseExpired)
		s.cfg.Logger.Debug("session expired", "conversation_id", id)
	}
	s.cfg.Metrics.SetSessions(s.cache.ItemCount())
}

// GetOrCreate implements Store.
func (s *CacheStore) GetOrCreate(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.lookup(id); ok {
		return sess, false
	}

	if s.cache.ItemCount() >= s.cfg.MaxSessions {
		s.evictOldest()
	}

	sess := newSession(id, s.cfg.Memory, s.cfg.Now())
	s.cache.Set(id, sess, cache.DefaultExpiration)
	s.cfg.Metrics.SetSessions(s.cache.ItemCount())
	s.cfg.Logger.Debug("session created", "conversation_id", id)
	return sess, true
}

// Get implements Store.
func (s *CacheStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(id)
}

// lookup finds a session and slides its expiry. Callers hold s.mu. Replace
// fails when the janitor purged the entry after Get, so a removed session
// is never written back.
func (s *CacheStore) lookup(id string) (*Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	if sess.removed.Load() {
		return nil, false
	}
	if err := s.cache.Replace(id, sess, cache.DefaultExpiration); err != nil {
		return nil, false
	}
	sess.Touch(s.cfg.Now())
	return sess, true
}

func (s *CacheStore) evictOldest() {
	var oldest *Session
	for _, item := range s.cache.Items() {
		sess := item.Object.(*Session)
		if oldest == nil || sess.LastActive().Before(oldest.LastActive()) {
			oldest = sess
		}
	}
	if oldest != nil {
		s.remove(oldest, CauseCapacity)
		s.cfg.Logger.Info("session evicted at capacity",
			"conversation_id", oldest.ID,
			"max_sessions", s.cfg.MaxSessions,
		)
	}
}

func (s *CacheStore) remove(sess *Session, cause string) {
	sess.removed.Store(true)
	s.cache.Delete(sess.ID)
	s.cfg.Metrics.ObserveEviction(cause)
}

// Delete implements Store.
func (s *CacheStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(id)
	if !ok {
		return false
	}
	s.remove(v.(*Session), CauseDeleted)
	return true
}

// Len implements Store.
func (s *CacheStore) Len() int {
	return s.cache.ItemCount()
}

// Snapshot implements Store.
func (s *CacheStore) Snapshot() []*Session {
	items := s.cache.Items()
	out := make([]*Session, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*Session))
	}
	slices.SortFunc(out, func(a, b *Session) int {
		return b.LastActive().Compare(a.LastActive())
	})
	return out
}

// Cleanup implements Store.
func (s *CacheStore) Cleanup(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.DeleteExpired()

	cutoff := s.cfg.Now().Add(-idle)
	removed := 0
	for _, sess := range s.Snapshot() {
		if sess.LastActive().Before(cutoff) {
			s.remove(sess, CauseIdle)
			removed++
		}
	}
	if removed > 0 {
		s.cfg.Logger.Info("idle sessions cleaned up", "removed", removed, "idle", idle)
	}
	return removed
}

// Close implements Store.
func (s *CacheStore) Close() {
	s.cache.Flush()
	s.cfg.Metrics.SetSessions(0)
}
