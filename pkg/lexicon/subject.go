package lexicon

// Subject is the primary thing a message is about.
type Subject string

const (
	SubjectWork           Subject = "work"
	SubjectRelationship   Subject = "relationship"
	SubjectFamily         Subject = "family"
	SubjectHealth         Subject = "health"
	SubjectSchool         Subject = "school"
	SubjectFriendship     Subject = "friendship"
	SubjectPersonalGrowth Subject = "personal_growth"
	SubjectHobby          Subject = "hobby"
	SubjectDailyLife      Subject = "daily_life"
	SubjectEmotions       Subject = "emotions"
	SubjectGeneral        Subject = "general"
)

// SubjectRule maps a subject to its trigger keywords.
type SubjectRule struct {
	Subject  Subject
	Keywords []string
}

// SubjectTable is the declared subject priority list. The first rule with a
// keyword hit is the primary subject.
var SubjectTable = []SubjectRule{
	{SubjectWork, []string{
		"work", "job", "career", "boss", "colleague", "coworker", "office", "meeting",
		"project", "presentation", "deadline", "promotion", "interview", "workplace", "manager",
	}},
	{SubjectRelationship, []string{
		"boyfriend", "girlfriend", "partner", "husband", "wife", "dating", "relationship",
		"marriage", "crush", "romance",
	}},
	{SubjectFamily, []string{
		"mom", "dad", "mother", "father", "family", "parents", "parent", "sibling", "brother",
		"sister", "son", "daughter", "kids", "grandmother", "grandfather",
	}},
	{SubjectHealth, []string{
		"doctor", "health", "medical", "sick", "pain", "therapy", "medication", "sleep",
		"exercise", "diet", "fitness",
	}},
	{SubjectSchool, []string{
		"school", "college", "university", "class", "teacher", "professor", "exam",
		"homework", "semester", "grades",
	}},
	{SubjectFriendship, []string{"friend", "friends", "friendship", "buddy", "pal", "roommate"}},
	{SubjectPersonalGrowth, []string{
		"goal", "goals", "dream", "future", "change", "improve", "growth", "ambition", "habit",
	}},
	{SubjectHobby, []string{
		"hobby", "interest", "passion", "enjoy", "love doing", "favorite", "music", "game",
		"sport", "art", "reading", "travel",
	}},
	{SubjectDailyLife, []string{"today", "yesterday", "routine", "day", "morning", "evening", "weekend"}},
	{SubjectEmotions, []string{"feel", "feeling", "feelings", "emotion", "mood", "mental", "anxiety", "depression"}},
}

// Subjects returns every subject with a keyword hit, in priority order.
func Subjects(text string) []Subject {
	var out []Subject
	for _, rule := range SubjectTable {
		if ContainsAny(text, rule.Keywords) {
			out = append(out, rule.Subject)
		}
	}
	return out
}

// PrimarySubject returns the first subject hit, or SubjectGeneral.
func PrimarySubject(text string) Subject {
	for _, rule := range SubjectTable {
		if ContainsAny(text, rule.Keywords) {
			return rule.Subject
		}
	}
	return SubjectGeneral
}
