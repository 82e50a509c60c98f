package analyzer

import (
	"github.com/papercomputeco/companion/pkg/lexicon"
)

// Specificity levels.
const (
	SpecificityHigh     = "highly_specific"
	SpecificityModerate = "moderately_specific"
	SpecificityGeneral  = "general"
)

// Threading flags how a message continues earlier turns.
type Threading struct {
	ExplicitReference     bool `json:"explicit_reference"`
	TopicContinuation     bool `json:"topic_continuation"`
	EmotionalContinuation bool `json:"emotional_continuation"`
}

// Any reports whether any threading flag is set.
func (t Threading) Any() bool {
	return t.ExplicitReference || t.TopicContinuation || t.EmotionalContinuation
}

// Analysis is the classification of a single message. It is a value object
// consumed by the response builder and discarded after the turn.
type Analysis struct {
	Subject         lexicon.Subject      `json:"subject"`
	Topics          []lexicon.Subject    `json:"topics"`
	Emotions        []lexicon.EmotionTag `json:"emotions"`
	Intensity       lexicon.Intensity    `json:"intensity"`
	Temporal        lexicon.Temporal     `json:"temporal"`
	TimeExpressions []string             `json:"time_expressions,omitempty"`
	Intent          lexicon.Intent       `json:"intent"`
	QuestionType    lexicon.QuestionType `json:"question_type,omitempty"`
	IsQuestion      bool                 `json:"is_question"`
	Stance          lexicon.Stance       `json:"stance"`
	People          []string             `json:"people,omitempty"`
	Events          []string             `json:"events,omitempty"`
	Actions         []string             `json:"actions,omitempty"`
	KeyPhrases      []string             `json:"key_phrases,omitempty"`
	Threading       Threading            `json:"threading"`
	Specificity     string               `json:"specificity"`
	Sentiment       float64              `json:"sentiment"`
}

// PrimaryEmotion returns the leading emotion tag.
func (a Analysis) PrimaryEmotion() (lexicon.EmotionTag, bool) {
	if len(a.Emotions) == 0 {
		return lexicon.EmotionTag{}, false
	}
	return a.Emotions[0], true
}

// TopicNames returns the topics as plain strings.
func (a Analysis) TopicNames() []string {
	out := make([]string, len(a.Topics))
	for i, t := range a.Topics {
		out[i] = string(t)
	}
	return out
}

// Neutral is the analysis of an empty message.
func Neutral() Analysis {
	return Analysis{
		Subject:     lexicon.SubjectGeneral,
		Topics:      []lexicon.Subject{},
		Emotions:    []lexicon.EmotionTag{},
		Intensity:   lexicon.IntensityMedium,
		Temporal:    lexicon.TemporalUnspecified,
		Intent:      lexicon.IntentGeneralConversation,
		Stance:      lexicon.StanceNeutral,
		Specificity: SpecificityGeneral,
	}
}
