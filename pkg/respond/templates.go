package respond

import "github.com/papercomputeco/companion/pkg/lexicon"

// FallbackResponse is returned when no fragment could be produced.
const FallbackResponse = "I'm listening. Tell me more about what's on your mind."

var acknowledgments = []string{
	"I hear you saying",
	"It sounds like",
	"I can sense that",
	"What I'm understanding is",
	"It seems like",
	"I'm picking up that",
}

var empathyConnectors = []string{
	"That must be",
	"I imagine that feels",
	"It sounds like that's",
	"I can understand why that would be",
	"That seems like it would be",
	"I bet that's",
}

var empathyTable = map[lexicon.Emotion]map[lexicon.Intensity][]string{
	lexicon.Frustration: {
		lexicon.IntensityLow: {
			"That sounds mildly irritating.",
			"I can sense some frustration in your words. That's completely understandable.",
		},
		lexicon.IntensityMedium: {
			"That sounds really frustrating to deal with.",
			"I can really hear the frustration building up. That must be draining.",
		},
		lexicon.IntensityHigh: {
			"That sounds absolutely infuriating. I can understand why you'd be so upset.",
			"I can feel the intensity of your frustration. This sounds like it's reached a breaking point for you.",
		},
	},
	lexicon.Sadness: {
		lexicon.IntensityLow: {
			"That sounds like it's weighing on you a bit.",
			"I notice a hint of sadness in your words.",
		},
		lexicon.IntensityMedium: {
			"That sounds really hard to go through.",
			"It sounds like you're going through a tough time, and your feelings are completely valid.",
		},
		lexicon.IntensityHigh: {
			"That sounds heartbreaking. I can only imagine how difficult this must be.",
			"This sounds incredibly overwhelming and painful. You don't have to face this alone.",
		},
	},
	lexicon.Anxiety: {
		lexicon.IntensityLow: {
			"That sounds like it's creating some worry for you.",
			"It's natural to feel uneasy when things feel uncertain.",
		},
		lexicon.IntensityMedium: {
			"That sounds really stressful and anxiety-provoking.",
			"I can feel the weight of your worry. These kinds of concerns can really consume our thoughts.",
		},
		lexicon.IntensityHigh: {
			"That sounds overwhelming. That level of anxiety must be exhausting.",
			"I can feel the intensity of your anxiety. This level of worry must be incredibly overwhelming.",
		},
	},
	lexicon.Excitement: {
		lexicon.IntensityLow: {
			"That sounds nice!",
			"I can hear some enthusiasm in what you're sharing!",
		},
		lexicon.IntensityMedium: {
			"That sounds really exciting!",
			"Your excitement is really coming through!",
		},
		lexicon.IntensityHigh: {
			"That sounds absolutely amazing! I can feel your excitement!",
			"Your excitement is absolutely electric! I'm getting energized just hearing about this!",
		},
	},
	lexicon.Happiness: {
		lexicon.IntensityLow: {
			"That sounds pleasant.",
			"It's nice to hear you in good spirits.",
		},
		lexicon.IntensityMedium: {
			"That sounds really wonderful!",
			"Your happiness is really coming through!",
		},
		lexicon.IntensityHigh: {
			"That sounds incredible! I'm so happy for you!",
			"The joy in your message is wonderful to share in!",
		},
	},
}

// emotionDescriptors complete the generic empathy sentence.
var emotionDescriptors = map[lexicon.Emotion]string{
	lexicon.Anxiety:     "nerve-racking",
	lexicon.Sadness:     "painful",
	lexicon.Happiness:   "uplifting",
	lexicon.Frustration: "frustrating",
	lexicon.Excitement:  "exciting",
	lexicon.Anger:       "infuriating",
	lexicon.Pride:       "rewarding",
	lexicon.Relief:      "freeing",
	lexicon.Gratitude:   "meaningful",
	lexicon.Confusion:   "disorienting",
}

var intensityAdverbs = map[lexicon.Intensity]string{
	lexicon.IntensityLow:    "a little",
	lexicon.IntensityMedium: "really",
	lexicon.IntensityHigh:   "incredibly",
}

var questionRemarks = map[lexicon.QuestionType]string{
	lexicon.QuestionAdvice:      "That's a really important question you're asking. Let's think about what matters most to you in this situation.",
	lexicon.QuestionValidation:  "It sounds like you're wondering if your feelings or reactions are normal, which is such a human thing to question.",
	lexicon.QuestionOpinion:     "You're asking for my perspective, which means this is something you're really thinking through carefully.",
	lexicon.QuestionInformation: "The details of when and where can change how a situation feels.",
	lexicon.QuestionGeneral:     "That's a really good question you're asking.",
}

const (
	whyRemark = "That's such a thoughtful question. The 'why' behind things can be so important to understand."
	howRemark = "That's a great question. Understanding how things work can really help us navigate them better."
)

var intentRemarks = map[lexicon.Intent]string{
	lexicon.IntentSharingNews:       "I love that you wanted to share this with me! Tell me more about what makes this so exciting for you.",
	lexicon.IntentSeekingSupport:    "It sounds like you really needed to get this out. I'm here to listen to whatever you need to share.",
	lexicon.IntentVenting:           "It makes complete sense to need to let this out. I'm listening.",
	lexicon.IntentAdviceSeeking:     "I can tell you're looking for some direction on this. Let me think about this with you.",
	lexicon.IntentProblemSolving:    "Let's break this down together and look at it one piece at a time.",
	lexicon.IntentSeekingValidation: "What you're feeling is valid, and it makes sense that you'd want to check in about it.",
}

var stanceRemarks = map[lexicon.Stance]string{
	lexicon.StanceUncertain: "It sounds like you're in a place where you're not quite sure what to think or feel about this.",
	lexicon.StanceResistant: "It sounds like there are some real barriers that are making this feel impossible right now.",
	lexicon.StanceMotivated: "I can hear your determination to do something about this situation.",
}

var subjectRemarks = map[lexicon.Subject]string{
	lexicon.SubjectWork:           "Work situations can be so complex, especially when they affect how we feel day to day.",
	lexicon.SubjectRelationship:   "Relationships bring up such deep feelings, don't they? There's so much emotion involved.",
	lexicon.SubjectFamily:         "Family dynamics can be some of the most complicated relationships we navigate.",
	lexicon.SubjectHealth:         "Health concerns can be really scary and overwhelming, especially when we're not sure what's happening.",
	lexicon.SubjectSchool:         "School can pile on a lot at once, between the workload and everything riding on it.",
	lexicon.SubjectFriendship:     "Friendships matter so much, and it hurts when they feel complicated.",
	lexicon.SubjectPersonalGrowth: "It takes real courage to work on growing and changing as a person.",
}

const genericRemark = "That sounds like something that's really been on your mind."

// followUpKind selects a follow-up question set.
type followUpKind string

const (
	followUpExperience   followUpKind = "experience"
	followUpFeeling      followUpKind = "feeling"
	followUpDecision     followUpKind = "decision"
	followUpRelationship followUpKind = "relationship"
	followUpFuture       followUpKind = "future"
)

var followUps = map[followUpKind][]string{
	followUpExperience: {
		"What was that experience like?",
		"How did you handle that?",
		"What went through your mind when that happened?",
		"How are you processing that?",
	},
	followUpFeeling: {
		"How are you feeling about that now?",
		"What emotions are coming up for you?",
		"How is that sitting with you?",
		"What's your gut reaction to this?",
	},
	followUpDecision: {
		"What are you leaning towards?",
		"What feels right to you?",
		"What would help you decide?",
		"What's holding you back?",
	},
	followUpRelationship: {
		"How do you think they're feeling?",
		"What's your relationship like usually?",
		"Have you talked to them about this?",
		"What would you want them to know?",
	},
	followUpFuture: {
		"What are you hoping for?",
		"What would an ideal outcome look like?",
		"What's your next step?",
		"How do you see this playing out?",
	},
}

var transitions = []string{
	"Thanks for sharing that with me.",
	"I'm glad we're talking about this.",
	"I'm enjoying getting to know you better.",
	"I'm here whenever you want to keep going.",
}

var explicitThreads = []string{
	"I remember you bringing this up before.",
	"Thanks for coming back to that.",
}

var topicThreads = []string{
	"You've come back to %s a few times now, so it seems to be taking up a lot of space for you.",
	"It sounds like %s is still a big part of what's going on for you.",
}

var emotionalThreads = []string{
	"It sounds like you're still feeling %s from earlier.",
	"That %s feeling seems to be sticking around.",
}

var connectors = map[lexicon.Intent][]string{
	lexicon.IntentAdviceSeeking:       {"With that in mind,", "Thinking it through together,"},
	lexicon.IntentVenting:             {"And honestly,", "Whenever you're ready,"},
	lexicon.IntentSeekingSupport:      {"Take your time,", "Just so you know,"},
	lexicon.IntentSharingNews:         {"Now I'm curious,", "So,"},
	lexicon.IntentSeekingValidation:   {"For what it's worth,"},
	lexicon.IntentProblemSolving:      {"To figure out a next step,"},
	lexicon.IntentGeneralConversation: {"So,", "And,", "Also,"},
}

const professionRemark = "Given your work in %s, I imagine this has some unique challenges."

// topicDisplay renders a subject for a sentence.
var topicDisplay = map[string]string{
	string(lexicon.SubjectPersonalGrowth): "personal growth",
	string(lexicon.SubjectDailyLife):      "daily life",
	string(lexicon.SubjectEmotions):       "how you've been feeling",
}
