package memory

import (
	"math"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/papercomputeco/companion/pkg/lexicon"
)

// Insights is a read-only analysis of a conversation's memory.
type Insights struct {
	EngagementLevel       string                `json:"engagement_level"`
	TopicDiversity        int                   `json:"topic_diversity"`
	EmotionalOpenness     float64               `json:"emotional_openness"`
	ConversationDepth     string                `json:"conversation_depth"`
	CommunicationPatterns CommunicationPatterns `json:"user_communication_patterns"`
	JourneyPattern        string                `json:"emotional_journey_pattern"`
	TopicEvolution        []TopicStat           `json:"topic_evolution"`
}

// CommunicationPatterns describes how the user writes.
type CommunicationPatterns struct {
	AverageLength      float64        `json:"average_length"`
	QuestionRatio      float64        `json:"question_ratio"`
	DominantIntent     lexicon.Intent `json:"dominant_intent"`
	TypicalSpecificity string         `json:"typical_specificity"`
}

// Journey patterns.
const (
	JourneyInsufficient = "insufficient_data"
	JourneyImproving    = "improving"
	JourneyDeclining    = "declining"
	JourneyStable       = "stable"
	JourneyMixed        = "mixed"
)

const (
	highEngagementLength   = 100
	mediumEngagementLength = 40
	journeyShift           = 0.2
	minJourneyLength       = 3
)

// Insights derives engagement, depth and journey measures from the stored
// turns. It does not modify the memory.
func (m *Memory) Insights() Insights {
	users := lo.Map(m.turns, func(t Turn, _ int) Message { return t.User })

	in := Insights{
		EngagementLevel: "none",
		TopicDiversity:  len(m.topics),
		JourneyPattern:  m.journeyPattern(),
		TopicEvolution:  m.Topics(),
	}
	if len(users) == 0 {
		in.ConversationDepth = "surface"
		in.CommunicationPatterns.DominantIntent = lexicon.IntentGeneralConversation
		in.CommunicationPatterns.TypicalSpecificity = "general"
		return in
	}

	n := float64(len(users))
	avgLen := float64(lo.SumBy(users, func(msg Message) int { return utf8.RuneCountInString(msg.Content) })) / n

	switch {
	case avgLen >= highEngagementLength:
		in.EngagementLevel = "high"
	case avgLen >= mediumEngagementLength:
		in.EngagementLevel = "medium"
	default:
		in.EngagementLevel = "low"
	}

	emotional := lo.CountBy(users, func(msg Message) bool { return len(msg.Emotions) > 0 })
	in.EmotionalOpenness = round2(float64(emotional) / n)

	threaded := float64(lo.CountBy(users, func(msg Message) bool { return msg.Threaded })) / n
	specific := float64(lo.CountBy(users, func(msg Message) bool { return msg.Specificity == "highly_specific" })) / n
	depth := (threaded + in.EmotionalOpenness + specific) / 3
	switch {
	case depth >= 0.5:
		in.ConversationDepth = "deep"
	case depth >= 0.25:
		in.ConversationDepth = "moderate"
	default:
		in.ConversationDepth = "surface"
	}

	in.CommunicationPatterns = CommunicationPatterns{
		AverageLength:      round2(avgLen),
		QuestionRatio:      round2(float64(lo.CountBy(users, func(msg Message) bool { return msg.IsQuestion })) / n),
		DominantIntent:     mode(lo.Map(users, func(msg Message, _ int) lexicon.Intent { return msg.Intent }), lexicon.IntentGeneralConversation),
		TypicalSpecificity: mode(lo.Map(users, func(msg Message, _ int) string { return msg.Specificity }), "general"),
	}
	return in
}

// journeyPattern compares mean sentiment across the two halves of the
// emotional journey.
func (m *Memory) journeyPattern() string {
	if len(m.journey) < minJourneyLength {
		return JourneyInsufficient
	}
	half := len(m.journey) / 2
	mean := func(s []EmotionalSnapshot) float64 {
		return lo.SumBy(s, func(e EmotionalSnapshot) float64 { return e.Sentiment }) / float64(len(s))
	}
	shift := mean(m.journey[half:]) - mean(m.journey[:half])

	switch {
	case shift > journeyShift:
		return JourneyImproving
	case shift < -journeyShift:
		return JourneyDeclining
	}

	flips := 0
	for i := 1; i < len(m.journey); i++ {
		if math.Signbit(m.journey[i].Sentiment) != math.Signbit(m.journey[i-1].Sentiment) {
			flips++
		}
	}
	if flips*2 >= len(m.journey) {
		return JourneyMixed
	}
	return JourneyStable
}

// mode returns the most frequent non-zero value, earliest on ties.
func mode[T comparable](values []T, fallback T) T {
	var zero T
	counts := map[T]int{}
	best, bestCount := fallback, 0
	for _, v := range values {
		if v == zero {
			continue
		}
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
