// Package companion drives the per-message cycle: overflow check, analysis,
// fact extraction, reply composition and memory update.
package companion

import (
	"context"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/papercomputeco/companion/pkg/analyzer"
	"github.com/papercomputeco/companion/pkg/facts"
	"github.com/papercomputeco/companion/pkg/lexicon"
	"github.com/papercomputeco/companion/pkg/logger"
	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/metrics"
	"github.com/papercomputeco/companion/pkg/respond"
	"github.com/papercomputeco/companion/pkg/session"
)

// OverflowNotice is the reply returned instead of a normal response when a
// conversation's memory is full.
const OverflowNotice = "We've covered a lot of ground together, and I want to keep giving you my full attention. " +
	"Let's start a fresh conversation. I'll remember the important things you've shared with me."

// Config wires a Service.
type Config struct {
	// Store holds live sessions. Defaults to a CacheStore with default bounds.
	Store session.Store

	// Selector chooses among templates. Defaults to a time-seeded RandSelector.
	Selector respond.Selector

	Response respond.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics

	// Now is the message clock. Defaults to time.Now.
	Now func() time.Time
}

// Service is the conversational orchestrator. It is safe for concurrent
// use; turns of one conversation are serialized by the session lock.
type Service struct {
	store   session.Store
	builder *respond.Builder
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New builds a Service from cfg.
func New(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Store == nil {
		cfg.Store = session.NewCacheStore(session.Config{Logger: cfg.Logger, Metrics: cfg.Metrics})
	}
	if cfg.Selector == nil {
		cfg.Selector = respond.NewRandSelector(uint64(cfg.Now().UnixNano()))
	}

	return &Service{
		store:   cfg.Store,
		builder: respond.NewBuilder(cfg.Selector, cfg.Response),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		now:     cfg.Now,
	}
}

// Sessions exposes the session store.
func (s *Service) Sessions() session.Store {
	return s.store
}

type processOptions struct {
	userFacts map[string]string
}

// ProcessOption customizes a single ProcessMessage call.
type ProcessOption func(*processOptions)

// WithUserFacts supplies facts already known about the user, keyed by fact
// key, for personalizing the reply.
func WithUserFacts(known map[string]string) ProcessOption {
	return func(o *processOptions) {
		o.userFacts = known
	}
}

// ProcessMessage runs one turn for conversationID. An empty message returns
// an *InputError. A full memory is not an error: the Result carries an
// Overflow and memory is left untouched.
func (s *Service) ProcessMessage(ctx context.Context, conversationID, text string, opts ...ProcessOption) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &InputError{Reason: "message is empty"}
	}
	if conversationID == "" {
		return nil, &InputError{Reason: "conversation id is empty"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o := processOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	sess, created := s.store.GetOrCreate(conversationID)
	sess.Lock()
	defer sess.Unlock()

	log := s.logger.With("conversation_id", conversationID)
	if created {
		log.Debug("new conversation session")
	}

	if reason, over := sess.Memory.Overflow(); over {
		s.metrics.ObserveOverflow(string(reason))
		log.Info("conversation memory overflowed", "reason", reason, "messages", sess.Memory.Len())
		return &Result{
			ConversationID: conversationID,
			Response:       OverflowNotice,
			Emotions:       []lexicon.EmotionTag{},
			Topics:         []string{},
			Intent:         lexicon.IntentMemoryOverflow,
			Facts:          []facts.Candidate{},
			MemoryStatus:   statusOf(sess.Memory),
			Overflow: &Overflow{
				Reason:  reason,
				Summary: sess.Memory.Summary(),
			},
		}, nil
	}

	start := time.Now()
	a := analyzer.Analyze(text, sess.Memory)
	candidates := facts.Extract(text)

	known := map[string]string{}
	for _, c := range candidates {
		known[c.Key] = c.Value
	}
	maps.Copy(known, o.userFacts)

	reply := s.builder.Build(a, sess.Memory, text, known)

	at := s.now()
	user := memory.Message{
		Content:     text,
		Timestamp:   at,
		Emotions:    a.Emotions,
		Topics:      a.TopicNames(),
		Intent:      a.Intent,
		Sentiment:   a.Sentiment,
		Threaded:    a.Threading.Any(),
		Specificity: a.Specificity,
		IsQuestion:  a.IsQuestion,
	}
	assistant := memory.Message{Content: reply, Timestamp: at}
	if err := sess.Memory.Record(user, &assistant); err != nil {
		return nil, err
	}
	sess.Touch(at)

	s.metrics.ObserveMessage(string(a.Intent), time.Since(start))
	for _, c := range candidates {
		s.metrics.ObserveFact(c.Key)
	}
	log.Debug("message processed",
		"intent", a.Intent,
		"subject", a.Subject,
		"emotions", len(a.Emotions),
		"facts", len(candidates),
	)

	if candidates == nil {
		candidates = []facts.Candidate{}
	}
	return &Result{
		ConversationID: conversationID,
		Response:       reply,
		Emotions:       a.Emotions,
		Topics:         a.TopicNames(),
		Intent:         a.Intent,
		Sentiment:      a.Sentiment,
		Facts:          candidates,
		MemoryStatus:   statusOf(sess.Memory),
		Analysis:       metaOf(a),
	}, nil
}

// Insights returns the read-only memory insights for a live conversation.
func (s *Service) Insights(_ context.Context, conversationID string) (*memory.Insights, error) {
	sess, ok := s.store.Get(conversationID)
	if !ok {
		return nil, ErrConversationNotFound
	}
	sess.Lock()
	defer sess.Unlock()

	in := sess.Memory.Insights()
	return &in, nil
}

// MemoryStatus returns the full usage report of a live conversation.
func (s *Service) MemoryStatus(conversationID string) (memory.Status, error) {
	sess, ok := s.store.Get(conversationID)
	if !ok {
		return memory.Status{}, ErrConversationNotFound
	}
	sess.Lock()
	defer sess.Unlock()
	return sess.Memory.Status(), nil
}

// Reset summarizes and clears a conversation's memory. With preserveFacts
// the key facts survive into the fresh memory.
func (s *Service) Reset(_ context.Context, conversationID string, preserveFacts bool) (*ResetResult, error) {
	sess, ok := s.store.Get(conversationID)
	if !ok {
		return nil, ErrConversationNotFound
	}
	sess.Lock()
	defer sess.Unlock()

	summary := sess.Memory.Reset(preserveFacts)
	preserved := map[string][]string{}
	if preserveFacts {
		preserved = sess.Memory.KeyFacts()
	}
	s.logger.Info("conversation memory reset",
		"conversation_id", conversationID,
		"prior_messages", summary.MessageCount,
		"preserve_facts", preserveFacts,
	)
	return &ResetResult{PriorSummary: summary, PreservedFacts: preserved}, nil
}

// Restore rebuilds a conversation's memory from persisted messages, creating
// the session when needed.
func (s *Service) Restore(_ context.Context, conversationID string, msgs []memory.Message) {
	sess, _ := s.store.GetOrCreate(conversationID)
	sess.Lock()
	defer sess.Unlock()
	sess.Memory.Restore(msgs)
	s.logger.Debug("conversation memory restored", "conversation_id", conversationID, "messages", len(msgs))
}

// HistoryFunc loads a conversation's persisted messages, oldest first.
type HistoryFunc func(ctx context.Context, conversationID string) ([]memory.Message, error)

// EnsureLoaded rebuilds a conversation's memory through load when it has no
// live session. A session that gained turns while the history was loading is
// left alone. It reports whether history was restored.
func (s *Service) EnsureLoaded(ctx context.Context, conversationID string, load HistoryFunc) (bool, error) {
	if s.Loaded(conversationID) {
		return false, nil
	}
	msgs, err := load(ctx, conversationID)
	if err != nil {
		return false, err
	}

	sess, _ := s.store.GetOrCreate(conversationID)
	sess.Lock()
	defer sess.Unlock()
	if !sess.Memory.Empty() {
		return false, nil
	}
	sess.Memory.Restore(msgs)
	s.logger.Debug("conversation memory rehydrated", "conversation_id", conversationID, "messages", len(msgs))
	return true, nil
}

// Loaded reports whether a conversation has a live session.
func (s *Service) Loaded(conversationID string) bool {
	_, ok := s.store.Get(conversationID)
	return ok
}

// Forget drops a conversation's session.
func (s *Service) Forget(conversationID string) bool {
	return s.store.Delete(conversationID)
}
