// Package memory implements the bounded per-conversation memory: a ring of
// recent turns plus topic, emotion and key-fact aggregates. A Memory is not
// safe for concurrent use; callers serialize access per conversation.
package memory

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/papercomputeco/companion/pkg/lexicon"
)

// Memory is the rolling state of one conversation.
type Memory struct {
	cfg Config

	turns         []Turn
	contextLength int

	topics     map[string]*TopicStat
	topicOrder []string

	journey  []EmotionalSnapshot
	keyFacts map[string][]string
}

// New creates an empty, active memory.
func New(cfg Config) *Memory {
	return &Memory{
		cfg:      cfg.withDefaults(),
		topics:   map[string]*TopicStat{},
		keyFacts: map[string][]string{},
	}
}

// Config returns the effective bounds.
func (m *Memory) Config() Config {
	return m.cfg
}

// Overflow reports whether the memory has exceeded a bound and which one.
// Bounds are checked in a fixed order: message count, context length, topic
// diversity.
func (m *Memory) Overflow() (OverflowReason, bool) {
	switch {
	case len(m.turns) >= m.cfg.MaxMessages:
		return ReasonConversationLength, true
	case m.contextLength >= m.cfg.MaxContextLength:
		return ReasonContextLength, true
	case len(m.topics) > m.cfg.MaxTopics:
		return ReasonTopicDiversity, true
	default:
		return "", false
	}
}

// State returns the lifecycle state.
func (m *Memory) State() State {
	if _, over := m.Overflow(); over {
		return StateOverflowed
	}
	return StateActive
}

// Len returns the number of user turns held.
func (m *Memory) Len() int {
	return len(m.turns)
}

// Empty reports whether no turns have been recorded.
func (m *Memory) Empty() bool {
	return len(m.turns) == 0
}

// Record appends a user message and the reply generated for it. It refuses
// with ErrOverflowed once a bound has been exceeded.
func (m *Memory) Record(user Message, reply *Message) error {
	if _, over := m.Overflow(); over {
		return ErrOverflowed
	}
	m.append(user, reply)
	return nil
}

func (m *Memory) append(user Message, reply *Message) {
	user.Author = AuthorUser
	if user.Timestamp.IsZero() {
		user.Timestamp = time.Now()
	}
	if reply != nil {
		r := *reply
		r.Author = AuthorAssistant
		reply = &r
	}

	for len(m.turns) >= m.cfg.MaxMessages {
		m.contextLength -= m.turns[0].length()
		m.turns = m.turns[1:]
	}

	turn := Turn{User: user, Reply: reply}
	m.turns = append(m.turns, turn)
	m.contextLength += turn.length()

	for _, topic := range user.Topics {
		m.touchTopic(topic, user.Timestamp)
	}

	if len(user.Emotions) > 0 {
		m.journey = append(m.journey, EmotionalSnapshot{
			Timestamp: user.Timestamp,
			Emotions:  slices.Clone(user.Emotions),
			Sentiment: user.Sentiment,
		})
	}

	m.updateKeyFacts(user.Content)
}

func (m *Memory) touchTopic(topic string, at time.Time) {
	stat, ok := m.topics[topic]
	if !ok {
		stat = &TopicStat{Topic: topic, FirstSeen: at}
		m.topics[topic] = stat
		m.topicOrder = append(m.topicOrder, topic)
	}
	stat.Count++
	stat.LastSeen = at
}

var (
	possessive   = regexp.MustCompile(`\bmy ([a-z]+)`)
	sentenceStop = regexp.MustCompile(`[.!?]+`)
)

var possessiveStoplist = []string{"own", "god", "gosh", "goodness", "way", "mind", "self", "life"}

func (m *Memory) updateKeyFacts(content string) {
	lower := strings.ToLower(content)

	for _, sentence := range sentenceStop.Split(lower, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" || !lexicon.ContainsAny(sentence, lexicon.UpcomingMarkers) {
			continue
		}
		m.addKeyFact(FactUpcomingEvent, sentence, m.cfg.RecentWindow)
	}

	for _, match := range possessive.FindAllStringSubmatch(lower, -1) {
		subject := match[1]
		if lo.Contains(possessiveStoplist, subject) {
			continue
		}
		m.addKeyFact(FactPersonalSubjects, subject, m.cfg.MaxPersonalSubjects)
	}
}

// addKeyFact appends value under key unless present, dropping the oldest
// entries beyond limit.
func (m *Memory) addKeyFact(key, value string, limit int) {
	values := m.keyFacts[key]
	if lo.Contains(values, value) {
		return
	}
	values = append(values, value)
	if len(values) > limit {
		values = values[len(values)-limit:]
	}
	m.keyFacts[key] = values
}

// Turns returns a copy of the stored turns, oldest first.
func (m *Memory) Turns() []Turn {
	return slices.Clone(m.turns)
}

// Recent returns up to n of the most recent turns.
func (m *Memory) Recent(n int) []Turn {
	if n <= 0 || len(m.turns) == 0 {
		return nil
	}
	if n > len(m.turns) {
		n = len(m.turns)
	}
	return slices.Clone(m.turns[len(m.turns)-n:])
}

// RecentTopics returns the distinct topics of the last RecentWindow turns.
func (m *Memory) RecentTopics() []string {
	var out []string
	for _, t := range m.Recent(m.cfg.RecentWindow) {
		out = append(out, t.User.Topics...)
	}
	return lo.Uniq(out)
}

// LastSnapshot returns the most recent emotional snapshot.
func (m *Memory) LastSnapshot() (EmotionalSnapshot, bool) {
	if len(m.journey) == 0 {
		return EmotionalSnapshot{}, false
	}
	return m.journey[len(m.journey)-1], true
}

// RecentSnapshot returns the emotional state of the latest turn within the
// last RecentWindow turns that carried emotions.
func (m *Memory) RecentSnapshot() (EmotionalSnapshot, bool) {
	recent := m.Recent(m.cfg.RecentWindow)
	for i := len(recent) - 1; i >= 0; i-- {
		u := recent[i].User
		if len(u.Emotions) > 0 {
			return EmotionalSnapshot{
				Timestamp: u.Timestamp,
				Emotions:  slices.Clone(u.Emotions),
				Sentiment: u.Sentiment,
			}, true
		}
	}
	return EmotionalSnapshot{}, false
}

// Journey returns a copy of the emotional journey.
func (m *Memory) Journey() []EmotionalSnapshot {
	return slices.Clone(m.journey)
}

// Topics returns the topic aggregates ordered by first appearance.
func (m *Memory) Topics() []TopicStat {
	out := make([]TopicStat, 0, len(m.topicOrder))
	for _, t := range m.topicOrder {
		out = append(out, *m.topics[t])
	}
	return out
}

// TopTopic returns the most discussed topic; ties go to the earliest.
func (m *Memory) TopTopic() (string, bool) {
	top := m.rankedTopics()
	if len(top) == 0 {
		return "", false
	}
	return top[0], true
}

func (m *Memory) rankedTopics() []string {
	ranked := slices.Clone(m.topicOrder)
	slices.SortStableFunc(ranked, func(a, b string) int {
		return m.topics[b].Count - m.topics[a].Count
	})
	return ranked
}

// KeyFacts returns a deep copy of the key facts map.
func (m *Memory) KeyFacts() map[string][]string {
	out := make(map[string][]string, len(m.keyFacts))
	for k, v := range m.keyFacts {
		out[k] = slices.Clone(v)
	}
	return out
}

// Status reports current usage.
func (m *Memory) Status() Status {
	countPct := float64(len(m.turns)) / float64(m.cfg.MaxMessages)
	lengthPct := float64(m.contextLength) / float64(m.cfg.MaxContextLength)
	return Status{
		MessageCount:     len(m.turns),
		MaxMessages:      m.cfg.MaxMessages,
		TopicsTracked:    len(m.topics),
		FactsTracked:     lo.SumBy(lo.Values(m.keyFacts), func(v []string) int { return len(v) }),
		ContextLength:    m.contextLength,
		MaxContextLength: m.cfg.MaxContextLength,
		UsagePercent:     100 * max(countPct, lengthPct),
		JourneyLength:    len(m.journey),
		State:            m.State(),
	}
}

// Restore rebuilds memory from persisted messages, oldest first. Assistant
// messages attach to the preceding user message; orphans are dropped. Bounds
// are not enforced, so a restored memory may already be overflowed.
func (m *Memory) Restore(msgs []Message) {
	m.clear(false)
	for i := 0; i < len(msgs); i++ {
		if msgs[i].Author != AuthorUser {
			continue
		}
		user := msgs[i]
		var reply *Message
		if i+1 < len(msgs) && msgs[i+1].Author == AuthorAssistant {
			r := msgs[i+1]
			reply = &r
			i++
		}
		m.append(user, reply)
	}
}

// Reset summarizes and clears the memory, keeping key facts when
// preserveFacts is set. The summary is the only trace of the discarded turns.
func (m *Memory) Reset(preserveFacts bool) Summary {
	s := m.Summary()
	m.clear(preserveFacts)
	return s
}

func (m *Memory) clear(preserveFacts bool) {
	m.turns = nil
	m.contextLength = 0
	m.topics = map[string]*TopicStat{}
	m.topicOrder = nil
	m.journey = nil
	if !preserveFacts {
		m.keyFacts = map[string][]string{}
	}
}
