package lexicon

import "strings"

// QuestionType classifies the kind of question a message asks.
type QuestionType string

const (
	QuestionAdvice      QuestionType = "advice"
	QuestionExplanation QuestionType = "explanation"
	QuestionInformation QuestionType = "information"
	QuestionOpinion     QuestionType = "opinion"
	QuestionValidation  QuestionType = "validation"
	QuestionGeneral     QuestionType = "general_question"
)

// QuestionRule binds a question type to its trigger phrases.
type QuestionRule struct {
	Type     QuestionType
	Patterns []string
}

// QuestionTable is checked in order.
var QuestionTable = []QuestionRule{
	{QuestionAdvice, []string{"what should i", "how should i", "should i", "what do you think"}},
	{QuestionExplanation, []string{"why", "how does", "what does", "what is"}},
	{QuestionInformation, []string{"when", "where", "who", "what time"}},
	{QuestionOpinion, []string{"do you think", "what's your opinion", "how do you feel"}},
	{QuestionValidation, []string{"am i", "is it okay", "is that normal", "does that make sense"}},
}

var interrogatives = []string{"what", "how", "why", "when", "where", "who", "should", "is", "am", "are", "can", "do", "does"}

// IsQuestion reports whether text reads as a question.
func IsQuestion(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ",.!")
	for _, w := range interrogatives {
		if first == w {
			return true
		}
	}
	return ContainsPhrase(text, "should i")
}

// ClassifyQuestion returns the question type, or "" when text is not a
// question.
func ClassifyQuestion(text string) QuestionType {
	if !IsQuestion(text) {
		return ""
	}
	for _, rule := range QuestionTable {
		if ContainsAny(text, rule.Patterns) {
			return rule.Type
		}
	}
	return QuestionGeneral
}

// Stance is the user's attitude toward what they are discussing.
type Stance string

const (
	StanceUncertain Stance = "uncertain"
	StanceMotivated Stance = "motivated"
	StanceResistant Stance = "resistant"
	StancePositive  Stance = "positive"
	StanceNegative  Stance = "negative"
	StanceNeutral   Stance = "neutral"
)

// StanceRule binds a stance to its phrases.
type StanceRule struct {
	Stance  Stance
	Phrases []string
}

// StanceTable is checked in order.
var StanceTable = []StanceRule{
	{StanceUncertain, []string{"don't know", "not sure", "confused", "uncertain", "unsure"}},
	{StanceMotivated, []string{"want to", "need to", "should", "have to", "going to try"}},
	{StanceResistant, []string{"can't", "won't", "impossible", "too hard", "no way"}},
	{StancePositive, []string{"love", "enjoy", "like", "appreciate"}},
	{StanceNegative, []string{"hate", "dislike", "can't stand", "annoying"}},
}

// ClassifyStance returns the first matching stance, or StanceNeutral.
func ClassifyStance(text string) Stance {
	for _, rule := range StanceTable {
		if ContainsAny(text, rule.Phrases) {
			return rule.Stance
		}
	}
	return StanceNeutral
}
