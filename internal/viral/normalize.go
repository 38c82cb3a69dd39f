package viral

import (
	"strings"
	"unicode"
)

const (
	quoteStrong = "Strong interest. Keep it smooth."
	quoteMixed  = "Mixed signal. Don't overinvest."
	quoteWeak   = "Red flag energy. Step back."
)

type sourceKind int

const (
	sourceNone sourceKind = iota
	sourceCard
	sourceSummary
)

// source is the embedded card a record carries, resolved once.
type source struct {
	kind sourceKind
	card *EmbeddedCard
}

// resolveSource prefers viral_card over the legacy viral_summary.
func resolveSource(r AnalysisRecord) source {
	switch {
	case r.ViralCard != nil:
		return source{kind: sourceCard, card: r.ViralCard}
	case r.ViralSummary != nil:
		return source{kind: sourceSummary, card: r.ViralSummary}
	}
	return source{kind: sourceNone}
}

func (s source) headline() string {
	if s.kind == sourceNone {
		return ""
	}
	return s.card.Headline
}

func (s source) stamp() string {
	if s.kind == sourceNone {
		return ""
	}
	return s.card.Stamp
}

func (s source) quote() string {
	if s.kind == sourceNone {
		return ""
	}
	return s.card.ShareableQuote
}

func (s source) roast() string {
	if s.kind == sourceNone {
		return ""
	}
	return s.card.RoastLevel
}

// Normalize rebuilds a renderable card from a stored record. The score is
// always recomputed from interest_level; stored sub-fields are reused
// verbatim when present. Normalize is idempotent.
func Normalize(analysis AnalysisRecord) Card {
	score := clampedInterest(analysis.InterestLevel)
	src := resolveSource(analysis)

	stamp := Stamp(src.stamp())
	if stamp == "" {
		stamp = ScoreOnlyStamp(score)
	}

	quote := cleanQuote(truncate(src.quote(), MaxQuoteLen))
	if quote == "" {
		quote = fallbackQuote(score)
	}

	roast := RoastLevel(src.roast())
	if roast == "" {
		roast = RoastMild
	}

	return Card{
		Headline:       truncate(src.headline(), MaxHeadlineLen),
		Stamp:          stamp,
		ShareableQuote: quote,
		ScoreVisual:    score,
		RoastLevel:     roast,
	}
}

// cleanQuote drops trailing question marks and surrounding whitespace.
// Whitespace after a question mark does not protect it ("Really? " becomes
// "Really"); stripping the two separately would let a second pass change
// the quote again.
func cleanQuote(s string) string {
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return r == '?' || unicode.IsSpace(r)
	})
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}

func fallbackQuote(score int) string {
	switch {
	case score >= 70:
		return quoteStrong
	case score >= 40:
		return quoteMixed
	default:
		return quoteWeak
	}
}
