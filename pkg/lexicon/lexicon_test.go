package lexicon_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/lexicon"
)

var _ = Describe("ContainsPhrase", func() {
	It("matches on word boundaries", func() {
		Expect(lexicon.ContainsPhrase("i am so tired", "so")).To(BeTrue())
		Expect(lexicon.ContainsPhrase("i also went", "so")).To(BeFalse())
		Expect(lexicon.ContainsPhrase("what a day.", "day")).To(BeTrue())
		Expect(lexicon.ContainsPhrase("today", "day")).To(BeFalse())
	})

	It("keeps scanning past a non-boundary hit", func() {
		Expect(lexicon.ContainsPhrase("also so", "so")).To(BeTrue())
	})

	It("matches multi-word phrases", func() {
		Expect(lexicon.ContainsPhrase("i'm kind of lost", "kind of")).To(BeTrue())
	})

	It("matches possessive and plural endings", func() {
		Expect(lexicon.ContainsPhrase("my boss's comments", "boss")).To(BeTrue())
		Expect(lexicon.ContainsPhrase("my mom’s birthday", "mom")).To(BeTrue())
		Expect(lexicon.ContainsPhrase("three exams", "exam")).To(BeTrue())
		Expect(lexicon.ContainsPhrase("two deadlines", "deadline")).To(BeTrue())
		Expect(lexicon.ContainsPhrase("the bosses left", "boss")).To(BeTrue())
	})

	It("does not pluralize short phrases", func() {
		Expect(lexicon.ContainsPhrase("so is this", "i")).To(BeFalse())
		Expect(lexicon.ContainsPhrase("an sos call", "so")).To(BeFalse())
		Expect(lexicon.ContainsPhrase("bossy", "boss")).To(BeFalse())
	})

	It("never matches an empty phrase", func() {
		Expect(lexicon.ContainsPhrase("anything", "")).To(BeFalse())
	})
})

var _ = Describe("inflected keywords", func() {
	It("classifies subjects and people through possessives and plurals", func() {
		Expect(lexicon.PrimarySubject("my boss's comments made me furious")).To(Equal(lexicon.SubjectWork))
		Expect(lexicon.People("my boss's comments made me furious")).To(ConsistOf("work_people"))
		Expect(lexicon.People("my colleagues keep ignoring me")).To(ConsistOf("work_people"))
		Expect(lexicon.Events("i have three exams and two deadlines this week")).To(ConsistOf("exam", "deadline"))
	})
})

var _ = Describe("Intensity", func() {
	It("renders by name in JSON", func() {
		b, err := json.Marshal(map[string]lexicon.Intensity{"i": lexicon.IntensityHigh})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(Equal(`{"i":"high"}`))
	})

	It("parses names back", func() {
		var i lexicon.Intensity
		Expect(i.UnmarshalText([]byte("medium"))).To(Succeed())
		Expect(i).To(Equal(lexicon.IntensityMedium))
	})

	It("orders tiers", func() {
		Expect(lexicon.IntensityLow < lexicon.IntensityMedium).To(BeTrue())
		Expect(lexicon.IntensityHigh.Score()).To(BeNumerically("==", 1.0))
	})
})

var _ = Describe("Tables", func() {
	It("declares every emotion once with a non-empty tier", func() {
		seen := map[lexicon.Emotion]bool{}
		for _, entry := range lexicon.EmotionTable {
			Expect(seen[entry.Emotion]).To(BeFalse(), string(entry.Emotion))
			seen[entry.Emotion] = true
			Expect(entry.Adjective).NotTo(BeEmpty())
			Expect(entry.Tiers.All()).NotTo(BeEmpty())
		}
	})

	It("reports the highest tier present", func() {
		entry, ok := lexicon.Entry(lexicon.Anxiety)
		Expect(ok).To(BeTrue())
		Expect(entry.Tiers.Highest("a bit concerned but mostly terrified")).To(Equal(lexicon.IntensityHigh))
		Expect(entry.Tiers.Highest("just concerned")).To(Equal(lexicon.IntensityLow))
		Expect(entry.Tiers.Highest("fine")).To(Equal(lexicon.IntensityNone))
	})

	It("resolves subjects first-match", func() {
		Expect(lexicon.PrimarySubject("my boss and my mom")).To(Equal(lexicon.SubjectWork))
		Expect(lexicon.Subjects("my boss and my mom")).To(Equal([]lexicon.Subject{lexicon.SubjectWork, lexicon.SubjectFamily}))
		Expect(lexicon.PrimarySubject("nothing at all")).To(Equal(lexicon.SubjectGeneral))
	})

	DescribeTable("intent priority",
		func(text string, want lexicon.Intent) {
			Expect(lexicon.ClassifyIntent(text, len(text))).To(Equal(want))
		},
		Entry("advice first", "should i tell them the news", lexicon.IntentAdviceSeeking),
		Entry("short frustration is not venting", "ugh, annoying", lexicon.IntentGeneralConversation),
		Entry("long frustration is venting", "ugh, i cannot believe my landlord raised the rent again this year", lexicon.IntentVenting),
		Entry("validation", "am i overreacting here", lexicon.IntentSeekingValidation),
		Entry("news", "guess what happened", lexicon.IntentSharingNews),
		Entry("support", "i'm struggling with this", lexicon.IntentSeekingSupport),
		Entry("problem solving", "i need to figure out my budget", lexicon.IntentProblemSolving),
		Entry("default", "hello there", lexicon.IntentGeneralConversation),
	)

	DescribeTable("temporal priority",
		func(text string, want lexicon.Temporal) {
			Expect(lexicon.ClassifyTemporal(text)).To(Equal(want))
		},
		Entry("immediate", "i feel it right now", lexicon.TemporalImmediate),
		Entry("near future", "my exam is tomorrow", lexicon.TemporalNearFuture),
		Entry("future", "someday i will travel", lexicon.TemporalFuture),
		Entry("past", "it happened yesterday", lexicon.TemporalPast),
		Entry("unspecified", "cats are nice", lexicon.TemporalUnspecified),
	)

	It("classifies questions", func() {
		Expect(lexicon.ClassifyQuestion("should i quit?")).To(Equal(lexicon.QuestionAdvice))
		Expect(lexicon.ClassifyQuestion("why does this keep happening?")).To(Equal(lexicon.QuestionExplanation))
		Expect(lexicon.ClassifyQuestion("i went home")).To(BeEmpty())
		Expect(lexicon.ClassifyQuestion("huh?")).To(Equal(lexicon.QuestionGeneral))
	})

	It("classifies stance", func() {
		Expect(lexicon.ClassifyStance("i'm not sure about this")).To(Equal(lexicon.StanceUncertain))
		Expect(lexicon.ClassifyStance("the sky is blue")).To(Equal(lexicon.StanceNeutral))
	})

	It("finds people and events", func() {
		Expect(lexicon.People("my boss and my sister")).To(ConsistOf("family", "work_people"))
		Expect(lexicon.Events("the presentation before the meeting")).To(ConsistOf("presentation", "meeting"))
	})
})
