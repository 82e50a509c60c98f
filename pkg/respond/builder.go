// Package respond composes replies from ordered template fragments chosen by
// a pluggable Selector.
package respond

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/papercomputeco/companion/pkg/analyzer"
	"github.com/papercomputeco/companion/pkg/facts"
	"github.com/papercomputeco/companion/pkg/lexicon"
	"github.com/papercomputeco/companion/pkg/memory"
)

// Config tunes the probabilistic parts of a reply.
type Config struct {
	// TransitionRate is the chance a plain exchange ends in a transition
	// sentence instead of a question.
	TransitionRate float64

	// NameRate is the chance the acknowledgment addresses the user by name.
	NameRate float64
}

const (
	DefaultTransitionRate = 0.3
	DefaultNameRate       = 0.3

	// minTurnsForTransition is how many earlier user turns must exist before
	// a follow-up may be swapped for a transition.
	minTurnsForTransition = 2
)

// DefaultConfig returns the stock rates.
func DefaultConfig() Config {
	return Config{TransitionRate: DefaultTransitionRate, NameRate: DefaultNameRate}
}

// Builder assembles replies.
type Builder struct {
	sel Selector
	cfg Config
}

// NewBuilder returns a Builder drawing template choices from sel.
func NewBuilder(sel Selector, cfg Config) *Builder {
	if sel == nil {
		sel = NewRandSelector(0)
	}
	return &Builder{sel: sel, cfg: cfg}
}

// Build composes a reply to message. known holds facts previously learned
// about the user keyed by fact key (name, profession, ...); it may be nil.
func (b *Builder) Build(a analyzer.Analysis, mem *memory.Memory, message string, known map[string]string) string {
	parts := []string{
		b.acknowledgment(a, known),
		b.empathy(a),
		b.contentRemark(a, message),
		b.profession(a, known),
		b.contextThread(a, mem),
		b.followUp(a, mem),
	}
	return b.join(a.Intent, parts)
}

func (b *Builder) acknowledgment(a analyzer.Analysis, known map[string]string) string {
	ack := b.sel.Pick(acknowledgments)

	var phrase string
	if len(a.KeyPhrases) > 0 && a.Specificity != analyzer.SpecificityGeneral {
		phrase = a.KeyPhrases[0]
	}

	var out string
	primary, hasEmotion := a.PrimaryEmotion()
	switch {
	case hasEmotion && phrase != "":
		out = fmt.Sprintf("%s you're feeling %s about %s.", ack, primary.Emotion.Adjective(), phrase)
	case hasEmotion:
		out = fmt.Sprintf("%s you're feeling %s.", ack, primary.Emotion.Adjective())
	case phrase != "":
		out = fmt.Sprintf("%s %s is really on your mind right now.", ack, phrase)
	default:
		out = fmt.Sprintf("%s this is important to you.", ack)
	}

	if name := known[facts.KeyName]; name != "" && b.sel.Chance(b.cfg.NameRate) {
		out = name + ", " + lowerFirst(out)
	}
	return out
}

func (b *Builder) empathy(a analyzer.Analysis) string {
	primary, ok := a.PrimaryEmotion()
	if !ok {
		return ""
	}
	if options := empathyTable[primary.Emotion][primary.Intensity]; len(options) > 0 {
		return b.sel.Pick(options)
	}
	descriptor, ok := emotionDescriptors[primary.Emotion]
	if !ok {
		descriptor = primary.Emotion.Adjective()
	}
	return fmt.Sprintf("%s %s %s.", b.sel.Pick(empathyConnectors), intensityAdverbs[primary.Intensity], descriptor)
}

func (b *Builder) contentRemark(a analyzer.Analysis, message string) string {
	if a.QuestionType != "" {
		if a.QuestionType == lexicon.QuestionExplanation {
			if lexicon.ContainsPhrase(strings.ToLower(message), "why") {
				return whyRemark
			}
			return howRemark
		}
		return questionRemarks[a.QuestionType]
	}
	if r, ok := intentRemarks[a.Intent]; ok {
		return r
	}
	if r, ok := stanceRemarks[a.Stance]; ok {
		return r
	}
	if r, ok := subjectRemarks[a.Subject]; ok {
		return r
	}
	return genericRemark
}

func (b *Builder) profession(a analyzer.Analysis, known map[string]string) string {
	profession := known[facts.KeyProfession]
	if profession == "" || a.Subject != lexicon.SubjectWork {
		return ""
	}
	return fmt.Sprintf(professionRemark, profession)
}

func (b *Builder) contextThread(a analyzer.Analysis, mem *memory.Memory) string {
	if mem == nil || !a.Threading.Any() {
		return ""
	}
	switch {
	case a.Threading.ExplicitReference:
		return b.sel.Pick(explicitThreads)
	case a.Threading.TopicContinuation:
		if topic, ok := mem.TopTopic(); ok {
			if display, ok := topicDisplay[topic]; ok {
				topic = display
			}
			return fmt.Sprintf(b.sel.Pick(topicThreads), topic)
		}
	}
	if a.Threading.EmotionalContinuation {
		if snap, ok := mem.RecentSnapshot(); ok {
			return fmt.Sprintf(b.sel.Pick(emotionalThreads), snap.Primary().Adjective())
		}
	}
	return ""
}

func (b *Builder) followUp(a analyzer.Analysis, mem *memory.Memory) string {
	if a.Intent == lexicon.IntentGeneralConversation &&
		len(a.Emotions) == 0 &&
		!a.IsQuestion &&
		mem != nil && mem.Len() >= minTurnsForTransition &&
		b.sel.Chance(b.cfg.TransitionRate) {
		return b.sel.Pick(transitions)
	}
	return b.sel.Pick(followUps[followUpFor(a)])
}

func followUpFor(a analyzer.Analysis) followUpKind {
	switch {
	case a.Intent == lexicon.IntentAdviceSeeking:
		return followUpDecision
	case a.Intent == lexicon.IntentVenting, a.Intent == lexicon.IntentSeekingSupport:
		return followUpFeeling
	case a.Subject == lexicon.SubjectRelationship, a.Subject == lexicon.SubjectFamily:
		return followUpRelationship
	case a.Temporal == lexicon.TemporalNearFuture, a.Temporal == lexicon.TemporalFuture:
		return followUpFuture
	default:
		return followUpExperience
	}
}

// join concatenates the non-empty fragments. One fragment is returned as
// is and two are space-joined. With three or more, an intent connector sits
// between the second and third.
func (b *Builder) join(intent lexicon.Intent, parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}

	switch len(kept) {
	case 0:
		return FallbackResponse
	case 1:
		return kept[0]
	case 2:
		return kept[0] + " " + kept[1]
	}

	options, ok := connectors[intent]
	if !ok {
		options = connectors[lexicon.IntentGeneralConversation]
	}
	head := kept[0] + " " + kept[1] + " " + b.sel.Pick(options) + " " + lowerFirst(kept[2])
	if len(kept) == 3 {
		return head
	}
	return head + " " + strings.Join(kept[3:], " ")
}

// lowerFirst lowercases the first letter unless it begins the pronoun "I".
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return s
	}
	if r == 'I' && (len(s) == 1 || s[1] == ' ' || s[1] == '\'') {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
