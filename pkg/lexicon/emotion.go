package lexicon

// Emotion is a detected emotional category.
type Emotion string

const (
	Anxiety     Emotion = "anxiety"
	Sadness     Emotion = "sadness"
	Happiness   Emotion = "happiness"
	Frustration Emotion = "frustration"
	Excitement  Emotion = "excitement"
	Anger       Emotion = "anger"
	Pride       Emotion = "pride"
	Relief      Emotion = "relief"
	Gratitude   Emotion = "gratitude"
	Confusion   Emotion = "confusion"
)

// EmotionEntry binds an emotion to its keyword tiers and the adjective used
// when the emotion is named back to the user.
type EmotionEntry struct {
	Emotion   Emotion
	Adjective string
	Tiers     Tiers
	// Weight is the signed contribution to message sentiment.
	Weight float64
}

// EmotionTag is one detected emotion on a message.
type EmotionTag struct {
	Emotion   Emotion   `json:"emotion"`
	Intensity Intensity `json:"intensity"`
	Score     float64   `json:"score"`
}

// EmotionTable is scanned in order; the order breaks score ties.
var EmotionTable = []EmotionEntry{
	{
		Emotion:   Anxiety,
		Adjective: "anxious",
		Weight:    -0.4,
		Tiers: Tiers{
			Low:    []string{"concerned", "uneasy", "apprehensive", "on edge"},
			Medium: []string{"worried", "anxious", "nervous", "stressed", "scared", "afraid", "stress"},
			High:   []string{"terrified", "panicked", "panicking", "overwhelmed", "frantic", "petrified"},
		},
	},
	{
		Emotion:   Sadness,
		Adjective: "sad",
		Weight:    -0.8,
		Tiers: Tiers{
			Low:    []string{"down", "blue", "disappointed", "bummed", "meh"},
			Medium: []string{"sad", "upset", "hurt", "unhappy", "dejected", "lonely"},
			High:   []string{"devastated", "heartbroken", "crushed", "distraught", "depressed", "miserable"},
		},
	},
	{
		Emotion:   Happiness,
		Adjective: "happy",
		Weight:    1.0,
		Tiers: Tiers{
			Low:    []string{"pleasant", "nice", "alright"},
			Medium: []string{"happy", "glad", "pleased", "cheerful", "content", "joyful"},
			High:   []string{"ecstatic", "overjoyed", "elated", "euphoric", "delighted"},
		},
	},
	{
		Emotion:   Frustration,
		Adjective: "frustrated",
		Weight:    -0.6,
		Tiers: Tiers{
			Low:    []string{"annoyed", "bothered", "irritated", "miffed", "annoying"},
			Medium: []string{"frustrated", "frustrating", "aggravated", "fed up", "sick of"},
			High:   []string{"exasperated", "at my wit's end", "fuming", "had enough"},
		},
	},
	{
		Emotion:   Excitement,
		Adjective: "excited",
		Weight:    0.8,
		Tiers: Tiers{
			Low:    []string{"interested", "intrigued", "curious", "looking forward"},
			Medium: []string{"excited", "enthusiastic", "eager", "pumped"},
			High:   []string{"thrilled", "exhilarated", "electrified", "can't wait", "amazing"},
		},
	},
	{
		Emotion:   Anger,
		Adjective: "angry",
		Weight:    -0.9,
		Tiers: Tiers{
			Low:    []string{"cross", "resentful", "bitter"},
			Medium: []string{"angry", "mad", "pissed"},
			High:   []string{"furious", "enraged", "livid", "incensed", "rage", "hate"},
		},
	},
	{
		Emotion:   Pride,
		Adjective: "proud",
		Weight:    0.7,
		Tiers: Tiers{
			Low:    []string{"satisfied"},
			Medium: []string{"proud", "accomplished", "achieved", "succeeded"},
			High:   []string{"triumphant", "nailed it"},
		},
	},
	{
		Emotion:   Relief,
		Adjective: "relieved",
		Weight:    0.5,
		Tiers: Tiers{
			Low:    []string{"calmer", "at ease"},
			Medium: []string{"relieved", "resolved", "finally over"},
			High:   []string{"weight off my shoulders", "huge relief"},
		},
	},
	{
		Emotion:   Gratitude,
		Adjective: "grateful",
		Weight:    0.9,
		Tiers: Tiers{
			Low:    []string{"lucky", "appreciative"},
			Medium: []string{"thankful", "grateful", "appreciate"},
			High:   []string{"blessed", "eternally grateful"},
		},
	},
	{
		Emotion:   Confusion,
		Adjective: "confused",
		Weight:    -0.2,
		Tiers: Tiers{
			Low:    []string{"unclear", "puzzled"},
			Medium: []string{"confused", "lost", "mixed up"},
			High:   []string{"baffled", "bewildered", "don't understand"},
		},
	},
}

// Entry looks up the table entry for an emotion.
func Entry(e Emotion) (EmotionEntry, bool) {
	for _, entry := range EmotionTable {
		if entry.Emotion == e {
			return entry, true
		}
	}
	return EmotionEntry{}, false
}

// Adjective returns the adjective form of e, or its raw name if unknown.
func (e Emotion) Adjective() string {
	if entry, ok := Entry(e); ok {
		return entry.Adjective
	}
	return string(e)
}

// Rank returns the table position of e, or len(EmotionTable) if unknown.
func (e Emotion) Rank() int {
	for i, entry := range EmotionTable {
		if entry.Emotion == e {
			return i
		}
	}
	return len(EmotionTable)
}

// IsPositive reports whether the emotion carries positive sentiment.
func (e Emotion) IsPositive() bool {
	entry, ok := Entry(e)
	return ok && entry.Weight > 0
}

// EmotionWords returns every emotion keyword across the table.
func EmotionWords() []string {
	var out []string
	for _, entry := range EmotionTable {
		out = append(out, entry.Tiers.All()...)
	}
	return out
}
