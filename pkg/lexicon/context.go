package lexicon

// Temporal is when the events of a message take place.
type Temporal string

const (
	TemporalImmediate   Temporal = "immediate"
	TemporalNearFuture  Temporal = "near_future"
	TemporalFuture      Temporal = "future"
	TemporalPast        Temporal = "past"
	TemporalUnspecified Temporal = "unspecified"
)

// TemporalRule binds a temporal context to its phrases.
type TemporalRule struct {
	Temporal Temporal
	Phrases  []string
}

// TemporalTable is checked in order.
var TemporalTable = []TemporalRule{
	{TemporalImmediate, []string{
		"right now", "currently", "at the moment", "today", "tonight", "this morning",
		"this afternoon", "this evening",
	}},
	{TemporalNearFuture, []string{
		"tomorrow", "later today", "this week", "next week", "this weekend", "soon",
		"in a few days", "coming up",
	}},
	{TemporalFuture, []string{
		"next month", "next year", "someday", "eventually", "in the future", "one day",
		"going to", "will", "plan to",
	}},
	{TemporalPast, []string{
		"yesterday", "last week", "last night", "last month", "last year", "ago", "earlier",
		"used to", "before",
	}},
}

// ClassifyTemporal returns the first matching temporal context.
func ClassifyTemporal(text string) Temporal {
	for _, rule := range TemporalTable {
		if ContainsAny(text, rule.Phrases) {
			return rule.Temporal
		}
	}
	return TemporalUnspecified
}

// UpcomingMarkers flag a sentence as describing an upcoming event.
var UpcomingMarkers = []string{"tomorrow", "next week", "tonight", "this weekend", "later today"}

// PeopleCategory groups referenced people.
type PeopleCategory struct {
	Name     string
	Keywords []string
}

// PeopleTable is the set of people categories that can be referenced.
var PeopleTable = []PeopleCategory{
	{"romantic_partner", []string{"boyfriend", "girlfriend", "partner", "husband", "wife", "fiance", "fiancee"}},
	{"family", []string{"mom", "dad", "mother", "father", "parents", "brother", "sister", "family", "son", "daughter"}},
	{"friends", []string{"friend", "friends", "buddy", "pal", "roommate"}},
	{"work_people", []string{"boss", "colleague", "coworker", "manager", "team", "client"}},
	{"professionals", []string{"doctor", "therapist", "teacher", "professor", "counselor", "lawyer"}},
}

// People returns the people categories referenced in text.
func People(text string) []string {
	var out []string
	for _, c := range PeopleTable {
		if ContainsAny(text, c.Keywords) {
			out = append(out, c.Name)
		}
	}
	return out
}

// ActionCategory groups verbs that describe what happened.
type ActionCategory struct {
	Name     string
	Keywords []string
}

// ActionTable classifies the kind of event described.
var ActionTable = []ActionCategory{
	{"conversation", []string{"talked to", "said to", "told", "conversation", "discussion"}},
	{"conflict", []string{"fight", "argument", "disagreement", "conflict", "yelled"}},
	{"achievement", []string{"won", "achieved", "accomplished", "finished", "passed", "got the job"}},
	{"loss", []string{"lost", "broke up", "ended", "died", "failed", "fired"}},
	{"change", []string{"started", "began", "changed", "moved", "new"}},
	{"decision", []string{"decided", "chose", "picked", "selected", "going with"}},
}

// Actions returns the action categories present in text.
func Actions(text string) []string {
	var out []string
	for _, c := range ActionTable {
		if ContainsAny(text, c.Keywords) {
			out = append(out, c.Name)
		}
	}
	return out
}

// EventNouns are concrete events a user can refer to.
var EventNouns = []string{
	"presentation", "interview", "meeting", "exam", "test", "deadline", "wedding",
	"appointment", "party", "date", "trip", "vacation", "surgery", "funeral", "birthday",
	"concert", "performance", "review", "launch", "move", "game", "recital", "graduation",
}

// Events returns the event nouns mentioned in text.
func Events(text string) []string {
	return MatchAll(text, EventNouns)
}

// BackReferences mark a message that explicitly refers to earlier turns.
var BackReferences = []string{
	"remember when", "like i said", "as i said", "as i mentioned", "i mentioned",
	"i told you", "about that", "that thing", "earlier i", "going back to", "still thinking about",
}
