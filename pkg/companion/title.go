package companion

import (
	"strings"
	"time"

	"github.com/papercomputeco/companion/pkg/lexicon"
)

type titleRule struct {
	title    string
	keywords []string
}

// titleRules are checked in order against the opening message.
var titleRules = []titleRule{
	{"🎯 Presentation Discussion", []string{"presentation"}},
	{"💼 Job Interview Talk", []string{"interview", "job interview"}},
	{"🤝 Work Meeting Discussion", []string{"meeting", "work meeting"}},
	{"💕 Relationship Conversation", []string{"relationship", "partner", "boyfriend", "girlfriend"}},
	{"👨‍👩‍👧‍👦 Family Discussion", []string{"family", "parents", "mom", "dad"}},
	{"🧘 Emotional Support", []string{"stressed", "anxiety", "worried", "overwhelmed"}},
	{"🌟 Positive Vibes", []string{"excited", "happy", "great news", "amazing"}},
	{"🎯 Goals & Dreams", []string{"goal", "dream", "future", "plan"}},
	{"💼 Work Discussion", []string{"work", "job", "career"}},
	{"🏥 Health Matters", []string{"health", "doctor", "medical"}},
}

const (
	titleWords       = 4
	titleMinWordSize = 4
)

// GenerateTitle names a conversation from its first message.
func GenerateTitle(message string, now time.Time) string {
	lower := strings.ToLower(message)
	for _, rule := range titleRules {
		if lexicon.ContainsAny(lower, rule.keywords) {
			return rule.title
		}
	}

	fields := strings.Fields(message)
	if len(fields) > titleWords {
		fields = fields[:titleWords]
	}
	var words []string
	for _, w := range fields {
		if len(w) >= titleMinWordSize {
			words = append(words, strings.ToUpper(w[:1])+strings.ToLower(w[1:]))
		}
	}
	if len(words) > 0 {
		return "💬 " + strings.Join(words, " ")
	}
	return "💭 Chat " + now.Format("01/02 15:04")
}
