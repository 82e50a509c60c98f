// Package analyzer classifies a single message against the lexicon tables
// and the conversation's recent memory.
package analyzer

import (
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/papercomputeco/companion/pkg/lexicon"
	"github.com/papercomputeco/companion/pkg/memory"
)

// Analyze classifies message. Memory is only read. Empty input yields
// Neutral; Analyze never fails.
func Analyze(message string, mem *memory.Memory) Analysis {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return Neutral()
	}
	lower := strings.ToLower(trimmed)

	a := Analysis{
		Subject:         lexicon.PrimarySubject(lower),
		Topics:          lexicon.Subjects(lower),
		Intensity:       qualifier(lower),
		Temporal:        lexicon.ClassifyTemporal(lower),
		TimeExpressions: timeExpressions(lower),
		Intent:          lexicon.ClassifyIntent(lower, utf8.RuneCountInString(trimmed)),
		QuestionType:    lexicon.ClassifyQuestion(lower),
		IsQuestion:      lexicon.IsQuestion(lower),
		Stance:          lexicon.ClassifyStance(lower),
		People:          lexicon.People(lower),
		Events:          lexicon.Events(lower),
		Actions:         lexicon.Actions(lower),
		KeyPhrases:      keyPhrases(lower),
	}
	if a.Topics == nil {
		a.Topics = []lexicon.Subject{}
	}
	a.Emotions = detectEmotions(lower, a.Intensity)
	a.Sentiment = sentiment(a.Emotions)
	a.Specificity = specificity(lower, a)
	if mem != nil && !mem.Empty() {
		a.Threading = threading(lower, a, mem)
	}
	return a
}

// qualifier returns the message-level intensity implied by intensifiers and
// softeners. Intensifiers win when both are present.
func qualifier(lower string) lexicon.Intensity {
	switch {
	case lexicon.ContainsAny(lower, lexicon.Intensifiers):
		return lexicon.IntensityHigh
	case lexicon.ContainsAny(lower, lexicon.Softeners):
		return lexicon.IntensityLow
	default:
		return lexicon.IntensityMedium
	}
}

// detectEmotions records each emotion independently at the highest tier
// present. An intensifier raises every detected emotion to high; a softener
// never lowers a keyword tier.
func detectEmotions(lower string, q lexicon.Intensity) []lexicon.EmotionTag {
	tags := []lexicon.EmotionTag{}
	for _, entry := range lexicon.EmotionTable {
		tier := entry.Tiers.Highest(lower)
		if tier == lexicon.IntensityNone {
			continue
		}
		if q == lexicon.IntensityHigh {
			tier = lexicon.IntensityHigh
		}
		tags = append(tags, lexicon.EmotionTag{
			Emotion:   entry.Emotion,
			Intensity: tier,
			Score:     round2(tier.Score()),
		})
	}
	slices.SortStableFunc(tags, func(a, b lexicon.EmotionTag) int {
		return int(b.Intensity) - int(a.Intensity)
	})
	return tags
}

// sentiment is the score-weighted mean of emotion weights, in [-1, 1].
func sentiment(tags []lexicon.EmotionTag) float64 {
	var total, weight float64
	for _, t := range tags {
		entry, ok := lexicon.Entry(t.Emotion)
		if !ok {
			continue
		}
		total += entry.Weight * t.Intensity.Multiplier() * t.Score
		weight += t.Score
	}
	if weight == 0 {
		return 0
	}
	return round2(math.Max(-1, math.Min(1, total/weight)))
}

var timePattern = regexp.MustCompile(`\b(?:` +
	`\d{1,2}(?::\d{2})?\s?(?:am|pm)` +
	`|\d{1,2}:\d{2}` +
	`|noon|midnight|tonight` +
	`|(?:this|tomorrow|yesterday)\s(?:morning|afternoon|evening|night)` +
	`|in\s(?:a|an|a few|a couple of|\d+)\s(?:minute|hour|day|week|month|year)s?` +
	`|(?:a|an|a few|\d+)\s(?:minute|hour|day|week|month|year)s?\sago` +
	`|(?:next|last)\s(?:week|month|year|monday|tuesday|wednesday|thursday|friday|saturday|sunday)` +
	`|(?:on\s)?(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)` +
	`)\b`)

func timeExpressions(lower string) []string {
	return lo.Uniq(timePattern.FindAllString(lower, -1))
}

var (
	phrasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bmy ([a-z']+(?:\s+[a-z']+)*)`),
		regexp.MustCompile(`\bthe ([a-z']+(?:\s+[a-z']+)*)`),
		regexp.MustCompile(`\bthis ([a-z']+(?:\s+[a-z']+)*)`),
		regexp.MustCompile(`\b([a-z]+ing) (?:with|about|for)\b`),
	}
	phraseStops = []string{
		"and", "but", "or", "so", "because", "tomorrow", "today", "tonight", "yesterday",
		"is", "was", "are", "were", "has", "have", "had", "will", "that", "which", "who",
		"to", "with", "about", "for", "at", "in", "on", "of", "again", "now", "right",
	}
)

// maxPhraseWords bounds a key phrase.
const (
	maxPhraseWords = 3
	maxKeyPhrases  = 2
)

// keyPhrases extracts up to two noun-ish phrases. Possessives are rendered
// from the listener's side ("my job" becomes "your job").
func keyPhrases(lower string) []string {
	var out []string
	for i, re := range phrasePatterns {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			phrase := trimPhrase(m[1])
			if phrase == "" {
				continue
			}
			switch i {
			case 0:
				phrase = "your " + phrase
			case 1:
				phrase = "the " + phrase
			case 2:
				phrase = "this " + phrase
			}
			if !lo.Contains(out, phrase) {
				out = append(out, phrase)
			}
			if len(out) == maxKeyPhrases {
				return out
			}
		}
	}
	return out
}

func trimPhrase(raw string) string {
	var words []string
	for _, w := range strings.Fields(raw) {
		if lo.Contains(phraseStops, w) || len(words) == maxPhraseWords {
			break
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

var possessivePattern = regexp.MustCompile(`\b(?:my|our|his|her|their) [a-z]+`)

// specificity counts concrete references: event nouns, people, and
// possessive noun phrases.
func specificity(lower string, a Analysis) string {
	n := len(a.Events) + len(a.People) + len(possessivePattern.FindAllString(lower, -1))
	switch {
	case n >= 3:
		return SpecificityHigh
	case n >= 1:
		return SpecificityModerate
	default:
		return SpecificityGeneral
	}
}

// threading compares the message against the recent window of memory.
func threading(lower string, a Analysis, mem *memory.Memory) Threading {
	t := Threading{
		ExplicitReference: lexicon.ContainsAny(lower, lexicon.BackReferences),
	}

	recent := mem.RecentTopics()
	t.TopicContinuation = lo.SomeBy(a.Topics, func(s lexicon.Subject) bool {
		return lo.Contains(recent, string(s))
	})

	if snap, ok := mem.RecentSnapshot(); ok {
		prior := lo.Map(snap.Emotions, func(e lexicon.EmotionTag, _ int) lexicon.Emotion { return e.Emotion })
		t.EmotionalContinuation = lo.SomeBy(a.Emotions, func(e lexicon.EmotionTag) bool {
			return lo.Contains(prior, e.Emotion)
		})
	}
	return t
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
