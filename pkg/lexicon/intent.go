package lexicon

// Intent is a coarse classification of what the user wants from a turn.
type Intent string

const (
	IntentAdviceSeeking       Intent = "advice_seeking"
	IntentVenting             Intent = "venting"
	IntentSeekingValidation   Intent = "seeking_validation"
	IntentSharingNews         Intent = "sharing_news"
	IntentSeekingSupport      Intent = "seeking_support"
	IntentProblemSolving      Intent = "problem_solving"
	IntentGeneralConversation Intent = "general_conversation"
	// IntentMemoryOverflow is reported on turns refused because memory is full.
	IntentMemoryOverflow Intent = "memory_overflow"
)

// VentingMinLength is the length a message must exceed to count as venting.
const VentingMinLength = 50

// IntentRule is one entry of the ordered intent classifier.
type IntentRule struct {
	Intent   Intent
	Triggers []string
	// MinLength, when set, must be exceeded by the raw message length.
	MinLength int
}

// IntentRules is the declared intent priority list.
var IntentRules = []IntentRule{
	{Intent: IntentAdviceSeeking, Triggers: []string{
		"what should i", "how do i", "should i", "what would you", "do you think i should",
		"advice", "recommend",
	}},
	{Intent: IntentVenting, MinLength: VentingMinLength, Triggers: []string{
		"annoying", "frustrated", "frustrating", "cannot believe", "can't believe", "so stupid",
		"hate when", "ugh", "argh", "fed up",
	}},
	{Intent: IntentSeekingValidation, Triggers: []string{
		"am i wrong", "am i overreacting", "is it okay", "is that normal", "is it normal",
		"does that make sense", "was i right", "am i crazy",
	}},
	{Intent: IntentSharingNews, Triggers: []string{
		"guess what", "exciting news", "wanted to tell you", "just happened", "update", "news",
		"i got the", "just found out",
	}},
	{Intent: IntentSeekingSupport, Triggers: []string{
		"going through", "struggling with", "having a hard time", "need someone to talk",
		"support", "help me cope", "need to talk", "vent",
	}},
	{Intent: IntentProblemSolving, Triggers: []string{
		"figure out", "how can i", "how to", "solve", "solution", "fix", "problem", "work out",
	}},
}

// ClassifyIntent returns the first matching intent. text must be lowercased;
// length is the rune count of the original message.
func ClassifyIntent(text string, length int) Intent {
	for _, rule := range IntentRules {
		if rule.MinLength > 0 && length <= rule.MinLength {
			continue
		}
		if ContainsAny(text, rule.Triggers) {
			return rule.Intent
		}
	}
	return IntentGeneralConversation
}
