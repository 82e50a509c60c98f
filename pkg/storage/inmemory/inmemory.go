// Package inmemory provides a map-backed storage driver for tests and
// ephemeral deployments.
package inmemory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/companion/pkg/facts"
	"github.com/papercomputeco/companion/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards every map below
	mu sync.RWMutex

	policy        storage.Policy
	users         map[string]*storage.User
	conversations map[string]*storage.Conversation

	// messages, themes and summaries are keyed by conversation id and kept
	// in insertion order
	messages  map[string][]*storage.Message
	themes    map[string][]*storage.Theme
	summaries map[string][]*storage.ConversationSummary

	// facts is keyed by user id, then fact key
	facts    map[string]map[string]*storage.Fact
	feedback []*storage.Feedback
}

var _ storage.Driver = (*Driver)(nil)

// NewDriver creates a new in-memory driver. A zero policy takes the
// defaults.
func NewDriver(policy storage.Policy) *Driver {
	return &Driver{
		policy:        policy.WithDefaults(),
		users:         make(map[string]*storage.User),
		conversations: make(map[string]*storage.Conversation),
		messages:      make(map[string][]*storage.Message),
		themes:        make(map[string][]*storage.Theme),
		summaries:     make(map[string][]*storage.ConversationSummary),
		facts:         make(map[string]map[string]*storage.Fact),
	}
}

func (d *Driver) EnsureUser(_ context.Context, id string) (*storage.User, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if u, ok := d.users[id]; ok {
		return cloneUser(u), false, nil
	}
	u := &storage.User{
		ID:        id,
		Username:  storage.Username(id),
		Profile:   storage.DefaultProfile(),
		CreatedAt: storage.Now(),
	}
	d.users[id] = u
	return cloneUser(u), true, nil
}

func (d *Driver) GetUser(_ context.Context, id string) (*storage.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, storage.NotFoundError{Kind: storage.KindUser, ID: id}
	}
	return cloneUser(u), nil
}

func cloneUser(u *storage.User) *storage.User {
	c := *u
	c.Profile = maps.Clone(u.Profile)
	return &c
}

func (d *Driver) CreateConversation(_ context.Context, conv *storage.Conversation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	now := storage.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.LastMessageAt.IsZero() {
		conv.LastMessageAt = conv.CreatedAt
	}
	conv.Active = true

	c := *conv
	d.conversations[conv.ID] = &c
	return nil
}

func (d *Driver) GetConversation(_ context.Context, userID, id string) (*storage.Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.conversations[id]
	if !ok || c.UserID != userID {
		return nil, storage.NotFoundError{Kind: storage.KindConversation, ID: id}
	}
	out := *c
	return &out, nil
}

func (d *Driver) ListConversations(_ context.Context, userID string, activeOnly bool) ([]*storage.Conversation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*storage.Conversation
	for _, c := range d.conversations {
		if c.UserID != userID || (activeOnly && !c.Active) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *storage.Conversation) int {
		if n := b.LastMessageAt.Compare(a.LastMessageAt); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (d *Driver) UpdateConversation(_ context.Context, id string, update storage.ConversationUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.conversations[id]
	if !ok {
		return storage.NotFoundError{Kind: storage.KindConversation, ID: id}
	}
	if update.Title != nil {
		c.Title = *update.Title
	}
	if update.Summary != nil {
		c.Summary = *update.Summary
	}
	if update.DominantEmotion != nil {
		c.DominantEmotion = *update.DominantEmotion
	}
	if update.LastMessageAt != nil {
		c.LastMessageAt = *update.LastMessageAt
	}
	if update.Active != nil {
		c.Active = *update.Active
	}
	return nil
}

func (d *Driver) AddMessage(_ context.Context, msg *storage.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.conversations[msg.ConversationID]; !ok {
		return storage.NotFoundError{Kind: storage.KindConversation, ID: msg.ConversationID}
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = storage.Now()
	}
	m := *msg
	m.Emotions = slices.Clone(msg.Emotions)
	m.Topics = slices.Clone(msg.Topics)
	d.messages[msg.ConversationID] = append(d.messages[msg.ConversationID], &m)
	return nil
}

func (d *Driver) ListMessages(_ context.Context, conversationID string) ([]*storage.Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	msgs := d.messages[conversationID]
	out := make([]*storage.Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

func (d *Driver) CountMessages(_ context.Context, conversationID string) (storage.MessageCounts, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	counts := storage.MessageCounts{}
	for _, m := range d.messages[conversationID] {
		counts.Total++
		if m.IsUser {
			counts.User++
		}
	}
	return counts, nil
}

func (d *Driver) UpsertFact(_ context.Context, userID, conversationID string, c facts.Candidate) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	byKey, ok := d.facts[userID]
	if !ok {
		byKey = make(map[string]*storage.Fact)
		d.facts[userID] = byKey
	}

	now := storage.Now()
	if existing, ok := byKey[c.Key]; ok {
		existing.Value = c.Value
		existing.Confidence = d.policy.ReinforceFact(existing.Confidence)
		existing.TimesConfirmed++
		existing.UpdatedAt = now
		return false, nil
	}

	byKey[c.Key] = &storage.Fact{
		ID:                   uuid.NewString(),
		UserID:               userID,
		Type:                 c.Type,
		Key:                  c.Key,
		Value:                c.Value,
		Confidence:           c.Confidence,
		SourceConversationID: conversationID,
		TimesConfirmed:       1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	return true, nil
}

func (d *Driver) ListFacts(_ context.Context, userID string) ([]*storage.Fact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*storage.Fact, 0, len(d.facts[userID]))
	for _, key := range slices.Sorted(maps.Keys(d.facts[userID])) {
		cp := *d.facts[userID][key]
		out = append(out, &cp)
	}
	return out, nil
}

func (d *Driver) UpsertTheme(_ context.Context, conversationID, theme string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := storage.Now()
	for _, t := range d.themes[conversationID] {
		if t.Theme == theme {
			t.Confidence = d.policy.ReinforceTheme(t.Confidence)
			t.LastMentioned = now
			return nil
		}
	}
	d.themes[conversationID] = append(d.themes[conversationID], &storage.Theme{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Theme:          theme,
		Confidence:     d.policy.ThemeInitial,
		FirstMentioned: now,
		LastMentioned:  now,
	})
	return nil
}

func (d *Driver) ListThemes(_ context.Context, conversationID string) ([]*storage.Theme, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	themes := d.themes[conversationID]
	out := make([]*storage.Theme, len(themes))
	for i, t := range themes {
		cp := *t
		out[i] = &cp
	}
	return out, nil
}

func (d *Driver) AddFeedback(_ context.Context, fb *storage.Feedback) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = storage.Now()
	}
	cp := *fb
	d.feedback = append(d.feedback, &cp)
	return nil
}

func (d *Driver) AddSummary(_ context.Context, s *storage.ConversationSummary) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = storage.Now()
	}
	cp := *s
	d.summaries[s.ConversationID] = append(d.summaries[s.ConversationID], &cp)
	return nil
}

func (d *Driver) ListSummaries(_ context.Context, conversationID string) ([]*storage.ConversationSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	summaries := d.summaries[conversationID]
	out := make([]*storage.ConversationSummary, len(summaries))
	for i, s := range summaries {
		cp := *s
		out[i] = &cp
	}
	return out, nil
}

func (d *Driver) Stats(_ context.Context) (storage.Stats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := storage.Stats{
		Users:         len(d.users),
		Conversations: len(d.conversations),
	}
	for _, c := range d.conversations {
		if c.Active {
			s.ActiveConversations++
		}
	}
	for _, msgs := range d.messages {
		s.Messages += len(msgs)
	}
	for _, byKey := range d.facts {
		s.Facts += len(byKey)
	}
	for _, themes := range d.themes {
		s.Themes += len(themes)
	}
	for _, sums := range d.summaries {
		s.Summaries += len(sums)
	}
	return s, nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
