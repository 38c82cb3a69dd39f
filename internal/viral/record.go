package viral

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"unicode"
)

// AnalysisRecord is an analysis as produced upstream or read back from
// storage. InterestLevel keeps its loose shape (number, "80%" or nil).
type AnalysisRecord struct {
	InterestLevel     any           `json:"interest_level,omitempty" jsonschema:"oneof_type=string;integer"`
	EmotionalRisk     string        `json:"emotional_risk,omitempty" jsonschema:"enum=low,enum=medium,enum=high"`
	Tone              string        `json:"tone,omitempty"`
	Intent            string        `json:"intent,omitempty"`
	RecommendedTiming string        `json:"recommended_timing,omitempty"`
	ViralCard         *EmbeddedCard `json:"viral_card,omitempty"`
	ViralSummary      *EmbeddedCard `json:"viral_summary,omitempty"`
}

// UnmarshalJSON tolerates fields of the wrong type: they are treated as
// absent instead of failing the whole record.
func (r *AnalysisRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*r = RecordFromMap(m)
	return nil
}

// RecordFromMap builds a record from a decoded JSON object.
func RecordFromMap(m map[string]any) AnalysisRecord {
	return AnalysisRecord{
		InterestLevel:     m["interest_level"],
		EmotionalRisk:     getString(m, "emotional_risk"),
		Tone:              getString(m, "tone"),
		Intent:            getString(m, "intent"),
		RecommendedTiming: getString(m, "recommended_timing"),
		ViralCard:         embeddedFromAny(m["viral_card"]),
		ViralSummary:      embeddedFromAny(m["viral_summary"]),
	}
}

func embeddedFromAny(v any) *EmbeddedCard {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return &EmbeddedCard{
		Headline:       getString(m, "headline"),
		Stamp:          getString(m, "stamp"),
		ShareableQuote: getString(m, "shareable_quote"),
		ScoreVisual:    m["score_visual"],
		RoastLevel:     getString(m, "roast_level"),
	}
}

func getString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// signals is the strictly typed view the rules run on.
type signals struct {
	score  int
	risk   Risk
	tone   string
	intent string
}

func (r AnalysisRecord) signals() signals {
	return signals{
		score:  parseInterest(r.InterestLevel),
		risk:   parseRisk(r.EmotionalRisk),
		tone:   lower(r.Tone),
		intent: r.Intent,
	}
}

// Interest levels are saturated to this range before any other rule sees
// them, so out-of-range input keeps its sign.
const (
	maxInterest = math.MaxInt32
	minInterest = math.MinInt32
)

// parseInterest reads an interest level without clamping to [0,100].
// Anything it cannot read becomes 50.
func parseInterest(v any) int {
	switch n := v.(type) {
	case nil:
		return defaultScore
	case int:
		return saturate(int64(n))
	case int64:
		return saturate(n)
	case float64:
		return floatScore(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return saturate(i)
		}
		if f, err := n.Float64(); err == nil {
			return floatScore(f)
		}
		return defaultScore
	case string:
		if i, ok := leadingInt(strings.Replace(n, "%", "", 1)); ok {
			return i
		}
		return defaultScore
	}
	return defaultScore
}

// leadingInt reads an optional sign and the digits that follow, ignoring
// leading whitespace and anything after the digits: "80abc" is 80, "72.5"
// is 72 and "1e20" is 1.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n int64
	digits := 0
	for ; digits < len(s) && s[digits] >= '0' && s[digits] <= '9'; digits++ {
		if n <= maxInterest {
			n = n*10 + int64(s[digits]-'0')
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return saturate(n), true
}

func floatScore(f float64) int {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return defaultScore
	case f >= maxInterest:
		return maxInterest
	case f <= minInterest:
		return minInterest
	}
	return int(f)
}

func saturate(n int64) int {
	return int(min(maxInterest, max(minInterest, n)))
}

// clampedInterest is parseInterest bounded to [0,100].
func clampedInterest(v any) int {
	return min(100, max(0, parseInterest(v)))
}

func parseRisk(s string) Risk {
	switch r := Risk(lower(s)); r {
	case RiskLow, RiskMedium, RiskHigh:
		return r
	}
	return RiskMedium
}
