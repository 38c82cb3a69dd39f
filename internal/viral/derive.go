package viral

import (
	"fmt"
	"strings"
)

var defaultToneMarkers = []string{"flirty", "teasing", "playful", "suggestive", "cheeky", "bold"}

// DefaultToneMarkers returns the tone substrings that allow a spicy card.
func DefaultToneMarkers() []string {
	return append([]string(nil), defaultToneMarkers...)
}

// Deriver builds cards at analysis time.
type Deriver struct {
	markers []string
}

// NewDeriver creates a deriver matching tones against markers. An empty
// list means the default markers.
func NewDeriver(markers []string) *Deriver {
	var clean []string
	for _, m := range markers {
		if m = lower(m); m != "" {
			clean = append(clean, m)
		}
	}
	if len(clean) == 0 {
		clean = DefaultToneMarkers()
	}
	return &Deriver{markers: clean}
}

var defaultDeriver = NewDeriver(nil)

// Derive builds a card with the default tone markers.
func Derive(analysis AnalysisRecord, tier string) Card {
	return defaultDeriver.Derive(analysis, tier)
}

// Derive maps an analysis and the caller's subscription tier to a card.
// It never fails; missing input falls back to defaults.
func (d *Deriver) Derive(analysis AnalysisRecord, tier string) Card {
	sig := analysis.signals()
	src := resolveSource(analysis)
	stamp := RiskAwareStamp(sig.score, sig.risk)

	headline := src.headline()
	if headline == "" {
		headline = truncate(sig.intent, MaxHeadlineLen)
	}
	if headline == "" {
		headline = defaultHeadline
	}

	quote := src.quote()
	if quote == "" {
		quote = fmt.Sprintf("Interest at %d%% - %s", sig.score, strings.ToLower(string(stamp)))
	}

	return Card{
		Headline:       truncate(headline, MaxHeadlineLen),
		Stamp:          stamp,
		ShareableQuote: truncate(quote, MaxQuoteLen),
		ScoreVisual:    sig.score,
		RoastLevel:     d.roast(tier, sig),
	}
}

func (d *Deriver) roast(tier string, sig signals) RoastLevel {
	if tier == TierFree || sig.risk == RiskHigh {
		return RoastMild
	}
	for _, m := range d.markers {
		if strings.Contains(sig.tone, m) {
			return RoastSpicy
		}
	}
	return RoastMild
}
