// Package cliui provides reusable terminal UI helpers (spinners, speaker
// labels, emotion badges, markdown rendering) for companion CLI commands.
package cliui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/companion/pkg/lexicon"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	NameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))

	UserLabel      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Render("You")
	AssistantLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true).Render("Companion")

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	var mu sync.Mutex

	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)

	mu.Lock()
	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// KeyValue writes one aligned "key: value" line.
func KeyValue(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "  %s %s\n", KeyStyle.Render(fmt.Sprintf("%-18s", key+":")), ValueStyle.Render(fmt.Sprint(value)))
}

// Warn renders a highlighted notice line.
func Warn(msg string) string {
	return warnStyle.Render("! " + msg)
}

// EmotionBadges renders detected emotions as "anxiety(high) pride(low)".
// It returns "" when no emotion was detected.
func EmotionBadges(tags []lexicon.EmotionTag) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		color := lipgloss.Color("203")
		if t.Emotion.IsPositive() {
			color = lipgloss.Color("114")
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(color).Render(
			fmt.Sprintf("%s(%s)", t.Emotion, t.Intensity),
		))
	}
	return strings.Join(parts, " ")
}

// UsageBar renders a ten-cell memory usage gauge for a percentage in [0, 100].
func UsageBar(percent float64) string {
	percent = max(0, min(100, percent))
	filled := int(percent / 10)
	color := lipgloss.Color("82")
	switch {
	case percent >= 90:
		color = lipgloss.Color("196")
	case percent >= 70:
		color = lipgloss.Color("214")
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		DimStyle.Render(strings.Repeat("░", 10-filled))
	return fmt.Sprintf("%s %.0f%%", bar, percent)
}

// RenderMarkdown renders markdown content for terminal display using glamour.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
