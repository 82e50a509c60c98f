// Package lexicon holds the typed keyword and phrase tables that drive
// message classification. Every table that is scanned with first-match
// semantics is an ordered slice; its order is the declared priority.
package lexicon

import "strings"

// Intensity is the detected strength of an emotion keyword match.
type Intensity int

const (
	IntensityNone Intensity = iota
	IntensityLow
	IntensityMedium
	IntensityHigh
)

func (i Intensity) String() string {
	switch i {
	case IntensityLow:
		return "low"
	case IntensityMedium:
		return "medium"
	case IntensityHigh:
		return "high"
	default:
		return "none"
	}
}

// MarshalText renders the intensity by name so JSON payloads carry "high"
// rather than 3.
func (i Intensity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText parses an intensity name.
func (i *Intensity) UnmarshalText(b []byte) error {
	*i = ParseIntensity(string(b))
	return nil
}

// Score maps the tier onto [0, 1].
func (i Intensity) Score() float64 {
	return float64(i) / 3.0
}

// Multiplier is the sentiment weight applied to an emotion at this tier.
func (i Intensity) Multiplier() float64 {
	switch i {
	case IntensityLow:
		return 0.3
	case IntensityMedium:
		return 0.7
	case IntensityHigh:
		return 1.0
	default:
		return 0
	}
}

// ParseIntensity returns IntensityNone for unknown names.
func ParseIntensity(s string) Intensity {
	switch strings.ToLower(s) {
	case "low":
		return IntensityLow
	case "medium":
		return IntensityMedium
	case "high":
		return IntensityHigh
	default:
		return IntensityNone
	}
}

// Tiers groups keywords by the intensity they signal.
type Tiers struct {
	Low    []string
	Medium []string
	High   []string
}

// Highest returns the strongest tier with a keyword present in text, which
// must already be lowercased.
func (t Tiers) Highest(text string) Intensity {
	switch {
	case ContainsAny(text, t.High):
		return IntensityHigh
	case ContainsAny(text, t.Medium):
		return IntensityMedium
	case ContainsAny(text, t.Low):
		return IntensityLow
	default:
		return IntensityNone
	}
}

// All returns every keyword across tiers.
func (t Tiers) All() []string {
	out := make([]string, 0, len(t.Low)+len(t.Medium)+len(t.High))
	out = append(out, t.Low...)
	out = append(out, t.Medium...)
	return append(out, t.High...)
}

// Intensifiers escalate the reported intensity to high.
var Intensifiers = []string{"really", "very", "extremely", "so", "incredibly", "super", "totally"}

// Softeners mark a message as low intensity.
var Softeners = []string{"a bit", "somewhat", "kind of", "slightly", "a little", "sort of"}

// ContainsPhrase reports whether phrase occurs in text on word boundaries.
// A possessive ('s) or plural (s, es) ending on the phrase still matches,
// so "boss" finds "boss's" and "bosses". Plural endings apply only to
// phrases of three or more bytes. Both arguments are expected to be
// lowercased.
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for offset := 0; ; {
		idx := strings.Index(text[offset:], phrase)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(phrase)
		if boundaryBefore(text, start) && inflectedBoundary(text, end, len(phrase)) {
			return true
		}
		offset = start + 1
		if offset >= len(text) {
			return false
		}
	}
}

// ContainsAny reports whether any phrase occurs in text.
func ContainsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			return true
		}
	}
	return false
}

// MatchAll returns the phrases that occur in text, in table order.
func MatchAll(text string, phrases []string) []string {
	var out []string
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			out = append(out, p)
		}
	}
	return out
}

func boundaryBefore(text string, i int) bool {
	return i == 0 || !isWordByte(text[i-1])
}

func boundaryAfter(text string, i int) bool {
	return i >= len(text) || !isWordByte(text[i])
}

var (
	possessiveEndings = []string{"'s", "’s"}
	pluralEndings     = []string{"s", "es"}
)

// inflectedBoundary reports whether a match ending at end closes a word,
// either directly or after a possessive or plural ending.
func inflectedBoundary(text string, end, phraseLen int) bool {
	if boundaryAfter(text, end) {
		return true
	}
	rest := text[end:]
	for _, suffix := range possessiveEndings {
		if strings.HasPrefix(rest, suffix) && boundaryAfter(text, end+len(suffix)) {
			return true
		}
	}
	if phraseLen < 3 {
		return false
	}
	for _, suffix := range pluralEndings {
		if strings.HasPrefix(rest, suffix) && boundaryAfter(text, end+len(suffix)) {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || b == '\'' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
