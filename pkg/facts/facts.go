// Package facts extracts candidate user facts from free text with ordered
// regex groups. Candidates are proposals; reconciling them against stored
// facts is the storage layer's job.
package facts

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/papercomputeco/companion/pkg/lexicon"
)

// Fact types.
const (
	TypePersonalInfo = "personal_info"
	TypeInterest     = "interest"
)

// Fact keys.
const (
	KeyName       = "name"
	KeyProfession = "profession"
	KeyAge        = "age"
	KeyHobby      = "hobby"
)

// Candidate is an unvalidated fact proposed by extraction.
type Candidate struct {
	Type       string  `json:"type"`
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// group is one fact kind: the first pattern whose capture passes validate
// produces the candidate.
type group struct {
	factType   string
	key        string
	confidence float64
	patterns   []*regexp.Regexp
	// validate normalizes a capture, returning false to drop it.
	validate func(string) (string, bool)
}

// maxFreeTextLength bounds profession and interest captures.
const maxFreeTextLength = 50

var nameStoplist = map[string]bool{
	"A": true, "An": true, "The": true, "So": true, "Very": true, "Really": true,
	"Not": true, "Just": true, "Going": true, "Feeling": true, "Here": true, "Fine": true,
	"Sorry": true, "Tired": true, "Trying": true, "Still": true, "Okay": true, "Good": true,
	"At": true, "In": true, "On": true, "With": true, "From": true, "About": true, "Out": true,
	"Back": true, "Home": true, "Done": true, "Sure": true, "Glad": true, "Afraid": true,
}

// namePart is one name word: letters in any script, combining marks,
// apostrophes and hyphens.
const namePart = `([\p{L}\p{M}'-]+)`

var nonJobs = []string{"feeling", "going", "thinking", "happy", "sad", "excited", "worried", "frustrated"}

var groups = []group{
	{
		factType:   TypePersonalInfo,
		key:        KeyName,
		confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bmy name is ` + namePart),
			regexp.MustCompile(`\bi'm ` + namePart + `(?:\s|$|,|\.)`),
			regexp.MustCompile(`\bcall me ` + namePart),
			regexp.MustCompile(`\bi go by ` + namePart),
		},
		validate: validateName,
	},
	{
		factType:   TypePersonalInfo,
		key:        KeyProfession,
		confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bi work as (?:a |an )?([^.,!?]+)`),
			regexp.MustCompile(`\bmy job is (?:a |an )?([^.,!?]+)`),
			regexp.MustCompile(`\bi'm (?:a|an) ([^.,!?]+)`),
			regexp.MustCompile(`\bprofession is (?:a |an )?([^.,!?]+)`),
			regexp.MustCompile(`\bi do ([^.,!?]+) for work`),
		},
		validate: validateProfession,
	},
	{
		factType:   TypePersonalInfo,
		key:        KeyAge,
		confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bi'm (\d{1,2}) years old`),
			regexp.MustCompile(`\bi am (\d{1,2})\b`),
			regexp.MustCompile(`\bmy age is (\d{1,2})\b`),
			regexp.MustCompile(`\b(\d{1,2}) years old`),
		},
		validate: validateAge,
	},
	{
		factType:   TypeInterest,
		key:        KeyHobby,
		confidence: 0.7,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bi love ([^.,!?]+)`),
			regexp.MustCompile(`\bi enjoy ([^.,!?]+)`),
			regexp.MustCompile(`\bmy hobby is ([^.,!?]+)`),
			regexp.MustCompile(`\bi'm passionate about ([^.,!?]+)`),
			regexp.MustCompile(`\bi like ([^.,!?]+)`),
		},
		validate: validateFreeText,
	},
}

// Extract returns every candidate fact in message. It never deduplicates:
// the same message always yields the same candidates.
func Extract(message string) []Candidate {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return nil
	}

	var out []Candidate
	for _, g := range groups {
		if c, ok := g.match(lower); ok {
			out = append(out, c)
		}
	}
	return out
}

func (g group) match(lower string) (Candidate, bool) {
	for _, re := range g.patterns {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		value, ok := g.validate(strings.TrimSpace(m[1]))
		if !ok {
			continue
		}
		return Candidate{
			Type:       g.factType,
			Key:        g.key,
			Value:      value,
			Confidence: g.confidence,
		}, true
	}
	return Candidate{}, false
}

// validateName title-cases the first rune. Words ending in -ing ("having",
// "doing") are verbs after "i'm", never names.
func validateName(raw string) (string, bool) {
	raw = strings.Trim(raw, "'-")
	first, size := utf8.DecodeRuneInString(raw)
	if raw == "" || !unicode.IsLetter(first) {
		return "", false
	}
	if strings.HasSuffix(raw, "ing") && utf8.RuneCountInString(raw) > 4 {
		return "", false
	}
	name := string(unicode.ToUpper(first)) + raw[size:]
	if nameStoplist[name] || isEmotionWord(raw) {
		return "", false
	}
	return name, true
}

func validateProfession(raw string) (string, bool) {
	value, ok := validateFreeText(raw)
	if !ok {
		return "", false
	}
	for _, w := range nonJobs {
		if strings.Contains(value, w) {
			return "", false
		}
	}
	if lexicon.ContainsAny(value, lexicon.EmotionWords()) || lexicon.ContainsAny(value, lexicon.Softeners) {
		return "", false
	}
	return value, true
}

func validateAge(raw string) (string, bool) {
	age, err := strconv.Atoi(raw)
	if err != nil || age < 13 || age > 99 {
		return "", false
	}
	return strconv.Itoa(age), true
}

func validateFreeText(raw string) (string, bool) {
	if raw == "" || len(raw) >= maxFreeTextLength {
		return "", false
	}
	return raw, true
}

func isEmotionWord(word string) bool {
	for _, w := range lexicon.EmotionWords() {
		if w == word {
			return true
		}
	}
	for _, w := range lexicon.Intensifiers {
		if w == word {
			return true
		}
	}
	return false
}
