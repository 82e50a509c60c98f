package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/cliui"
	"github.com/papercomputeco/companion/pkg/lexicon"
)

var _ = Describe("cliui", func() {
	It("formats durations", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})

	It("marks success and failure", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("boom"))).To(Equal(cliui.FailMark))
	})

	It("reports the step result and passes the error through", func() {
		var buf bytes.Buffer
		err := cliui.Step(&buf, "Opening storage", func() error { return errors.New("locked") })
		Expect(err).To(MatchError("locked"))
		Expect(buf.String()).To(ContainSubstring("Opening storage"))
		Expect(buf.String()).To(HaveSuffix("\n"))
	})

	It("renders emotion badges", func() {
		Expect(cliui.EmotionBadges(nil)).To(BeEmpty())
		out := cliui.EmotionBadges([]lexicon.EmotionTag{
			{Emotion: lexicon.Anxiety, Intensity: lexicon.IntensityHigh},
			{Emotion: lexicon.Pride, Intensity: lexicon.IntensityLow},
		})
		Expect(out).To(ContainSubstring("anxiety(high)"))
		Expect(out).To(ContainSubstring("pride(low)"))
	})

	It("clamps the usage bar", func() {
		Expect(cliui.UsageBar(150)).To(HaveSuffix("100%"))
		Expect(cliui.UsageBar(-5)).To(HaveSuffix(" 0%"))
		Expect(cliui.UsageBar(42)).To(HaveSuffix("42%"))
	})

	It("writes key value lines", func() {
		var buf bytes.Buffer
		cliui.KeyValue(&buf, "messages", 12)
		Expect(buf.String()).To(ContainSubstring("messages:"))
		Expect(buf.String()).To(ContainSubstring("12"))
	})
})
