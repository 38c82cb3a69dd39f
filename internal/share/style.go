package share

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hintaro/hintaro/internal/config"
	"github.com/hintaro/hintaro/internal/viral"
)

// Score bands used for ring colors.
const (
	BandLow    = "low"
	BandMedium = "medium"
	BandHigh   = "high"
)

// ScoreBand buckets a score for coloring.
func ScoreBand(score int) string {
	switch {
	case score < 40:
		return BandLow
	case score < 70:
		return BandMedium
	default:
		return BandHigh
	}
}

// ScoreColor returns the ring colors for a score.
func ScoreColor(theme config.Theme, score int) config.ScoreColor {
	switch ScoreBand(score) {
	case BandLow:
		return theme.Scores.Low
	case BandMedium:
		return theme.Scores.Medium
	default:
		return theme.Scores.High
	}
}

// StampStyle returns the style for a stamp. Stamps stored verbatim may not
// match a theme key, so unknown values are matched by keyword.
func StampStyle(theme config.Theme, stamp viral.Stamp) config.StampStyle {
	if style, ok := theme.Stamps[string(stamp)]; ok {
		return style
	}
	s := strings.ToUpper(string(stamp))
	switch {
	case strings.Contains(s, "RED"):
		return theme.Stamps[string(viral.StampRed)]
	case strings.Contains(s, "MIXED"):
		return theme.Stamps[string(viral.StampMixed)]
	default:
		return theme.Stamps[string(viral.StampGreen)]
	}
}

// Stats is the small stat row under the score.
type Stats struct {
	Risk   string `json:"risk"`
	Timing string `json:"timing"`
	Tone   string `json:"tone"`
}

// FormatRisk renders an emotional risk as Low, Medium or High.
func FormatRisk(risk string) string {
	switch strings.ToLower(strings.TrimSpace(risk)) {
	case "high":
		return "High"
	case "low":
		return "Low"
	}
	return "Medium"
}

// FormatTiming condenses a recommended timing into a one-word hint.
func FormatTiming(timing string) string {
	if timing == "" {
		return "Wait"
	}
	t := strings.ToLower(timing)
	switch {
	case containsAny(t, "direct", "now", "immediate"):
		return "Now"
	case containsAny(t, "later", "wait", "hour"):
		return "Later"
	case containsAny(t, "never", "don't", "avoid"):
		return "Skip"
	}
	if utf8.RuneCountInString(timing) > 10 {
		return string([]rune(timing)[:10]) + "…"
	}
	return timing
}

// FormatTone capitalizes a tone, defaulting to Neutral.
func FormatTone(tone string) string {
	if tone == "" {
		return "Neutral"
	}
	r, size := utf8.DecodeRuneInString(tone)
	return string(unicode.ToUpper(r)) + strings.ToLower(tone[size:])
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
