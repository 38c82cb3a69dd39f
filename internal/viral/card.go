// Package viral turns analysis results into the bounded share card shown to
// users. Everything here is pure: no I/O, no shared state.
package viral

import (
	"strings"
	"unicode/utf8"
)

// Stamp is the categorical verdict printed on a card.
type Stamp string

const (
	StampGreen Stamp = "GREEN SIGNAL"
	StampMixed Stamp = "MIXED SIGNAL"
	StampRed   Stamp = "RED FLAG"
)

// RoastLevel controls how edgy the card copy may be.
type RoastLevel string

const (
	RoastMild  RoastLevel = "mild"
	RoastSpicy RoastLevel = "spicy"
)

// Risk is the normalized emotional risk of an analysis.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// TierFree is the only tier that never gets spicy cards.
const TierFree = "free"

const (
	MaxHeadlineLen = 28
	MaxQuoteLen    = 80

	defaultScore    = 50
	defaultHeadline = "Message Decoded"
)

// Card is the share card. Derived cards always carry every field; a
// normalized card may have an empty Headline.
type Card struct {
	Headline       string     `json:"headline,omitempty" jsonschema:"maxLength=28"`
	Stamp          Stamp      `json:"stamp" jsonschema:"required"`
	ShareableQuote string     `json:"shareable_quote" jsonschema:"required,maxLength=80"`
	ScoreVisual    int        `json:"score_visual" jsonschema:"required,minimum=0,maximum=100"`
	RoastLevel     RoastLevel `json:"roast_level" jsonschema:"required"`
}

// Embedded returns the card in the shape stored inside an analysis record.
func (c Card) Embedded() *EmbeddedCard {
	return &EmbeddedCard{
		Headline:       c.Headline,
		Stamp:          string(c.Stamp),
		ShareableQuote: c.ShareableQuote,
		ScoreVisual:    c.ScoreVisual,
		RoastLevel:     string(c.RoastLevel),
	}
}

// EmbeddedCard is a previously derived card as found in a stored record.
// Empty strings mean the field is absent. ScoreVisual is kept for round
// trips but never read.
type EmbeddedCard struct {
	Headline       string `json:"headline,omitempty"`
	Stamp          string `json:"stamp,omitempty"`
	ShareableQuote string `json:"shareable_quote,omitempty"`
	ScoreVisual    any    `json:"score_visual,omitempty"`
	RoastLevel     string `json:"roast_level,omitempty"`
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
