package companion

import (
	"github.com/papercomputeco/companion/pkg/analyzer"
	"github.com/papercomputeco/companion/pkg/facts"
	"github.com/papercomputeco/companion/pkg/lexicon"
	"github.com/papercomputeco/companion/pkg/memory"
)

// Result is the outcome of one processed message.
type Result struct {
	ConversationID string               `json:"conversation_id"`
	Response       string               `json:"response"`
	Emotions       []lexicon.EmotionTag `json:"detected_emotions"`
	Topics         []string             `json:"detected_topics"`
	Intent         lexicon.Intent       `json:"intent"`
	Sentiment      float64              `json:"sentiment_score"`
	Facts          []facts.Candidate    `json:"candidate_facts"`
	MemoryStatus   MemoryStatus         `json:"memory_status"`
	Analysis       *AnalysisMeta        `json:"analysis,omitempty"`

	// Overflow is set when the message was refused because memory is full.
	// No normal reply was produced and the conversation must restart.
	Overflow *Overflow `json:"overflow,omitempty"`
}

// MemoryStatus is the compact usage report returned with each result.
type MemoryStatus struct {
	MessageCount  int `json:"message_count"`
	MaxMessages   int `json:"max_messages"`
	TopicsTracked int `json:"topics_tracked"`
	FactsTracked  int `json:"facts_tracked"`
}

func statusOf(m *memory.Memory) MemoryStatus {
	s := m.Status()
	return MemoryStatus{
		MessageCount:  s.MessageCount,
		MaxMessages:   s.MaxMessages,
		TopicsTracked: s.TopicsTracked,
		FactsTracked:  s.FactsTracked,
	}
}

// Overflow describes a refused message.
type Overflow struct {
	Reason  memory.OverflowReason `json:"reason"`
	Summary memory.Summary        `json:"summary"`
}

// AnalysisMeta exposes the salient analysis fields to callers.
type AnalysisMeta struct {
	Subject         lexicon.Subject      `json:"subject"`
	Temporal        lexicon.Temporal     `json:"temporal"`
	TimeExpressions []string             `json:"time_expressions,omitempty"`
	Specificity     string               `json:"specificity"`
	Threading       analyzer.Threading   `json:"threading"`
	QuestionType    lexicon.QuestionType `json:"question_type,omitempty"`
	Stance          lexicon.Stance       `json:"stance"`
	People          []string             `json:"people,omitempty"`
	Events          []string             `json:"events,omitempty"`
}

func metaOf(a analyzer.Analysis) *AnalysisMeta {
	return &AnalysisMeta{
		Subject:         a.Subject,
		Temporal:        a.Temporal,
		TimeExpressions: a.TimeExpressions,
		Specificity:     a.Specificity,
		Threading:       a.Threading,
		QuestionType:    a.QuestionType,
		Stance:          a.Stance,
		People:          a.People,
		Events:          a.Events,
	}
}

// ResetResult is returned by Reset.
type ResetResult struct {
	PriorSummary   memory.Summary      `json:"prior_summary"`
	PreservedFacts map[string][]string `json:"preserved_facts"`
}
