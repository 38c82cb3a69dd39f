package viral

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func TestDeriveStampTable(t *testing.T) {
	tests := []struct {
		interest string
		risk     string
		want     Stamp
	}{
		{"80%", "low", StampGreen},
		{"80%", "high", StampRed},
		{"75%", "medium", StampGreen},
		{"74%", "low", StampMixed},
		{"50%", "medium", StampMixed},
		{"45%", "low", StampMixed},
		{"44%", "low", StampRed},
		{"20%", "low", StampRed},
	}

	for _, tt := range tests {
		t.Run(tt.interest+"/"+tt.risk, func(t *testing.T) {
			card := Derive(AnalysisRecord{InterestLevel: tt.interest, EmotionalRisk: tt.risk}, "free")
			if card.Stamp != tt.want {
				t.Errorf("stamp = %q, want %q", card.Stamp, tt.want)
			}
		})
	}
}

func TestRiskAwareStampAllScores(t *testing.T) {
	for score := 0; score <= 100; score++ {
		for _, risk := range []Risk{RiskLow, RiskMedium, RiskHigh} {
			var want Stamp
			switch {
			case score >= 75 && risk != RiskHigh:
				want = StampGreen
			case score >= 45 && score <= 74:
				want = StampMixed
			default:
				want = StampRed
			}
			if got := RiskAwareStamp(score, risk); got != want {
				t.Errorf("RiskAwareStamp(%d, %s) = %q, want %q", score, risk, got, want)
			}
		}
	}
}

func TestDeriveRoastLevel(t *testing.T) {
	tests := []struct {
		tier string
		risk string
		tone string
		want RoastLevel
	}{
		{"free", "low", "flirty", RoastMild},
		{"pro", "low", "flirty", RoastSpicy},
		{"plus", "high", "flirty", RoastMild},
		{"max", "low", "neutral", RoastMild},
		{"max", "low", "playful", RoastSpicy},
		{"plus", "low", "teasing", RoastSpicy},
		{"pro", "medium", "Very CHEEKY and warm", RoastSpicy},
		{"pro", "", "bold", RoastSpicy},
		{"Free", "low", "flirty", RoastSpicy}, // tier comparison is literal
	}

	for _, tt := range tests {
		rec := AnalysisRecord{InterestLevel: "80%", EmotionalRisk: tt.risk, Tone: tt.tone}
		if got := Derive(rec, tt.tier).RoastLevel; got != tt.want {
			t.Errorf("tier=%s risk=%s tone=%q: roast = %q, want %q", tt.tier, tt.risk, tt.tone, got, tt.want)
		}
	}
}

func TestDeriveCustomToneMarkers(t *testing.T) {
	d := NewDeriver([]string{"  Chaotic "})
	rec := AnalysisRecord{InterestLevel: 90, EmotionalRisk: "low", Tone: "chaotic good"}
	if got := d.Derive(rec, "pro").RoastLevel; got != RoastSpicy {
		t.Errorf("expected spicy with custom marker, got %q", got)
	}
	rec.Tone = "flirty"
	if got := d.Derive(rec, "pro").RoastLevel; got != RoastMild {
		t.Errorf("expected mild once default markers are replaced, got %q", got)
	}
}

func TestDeriveMinimalInput(t *testing.T) {
	got := Derive(AnalysisRecord{}, "free")
	want := Card{
		Headline:       "Message Decoded",
		Stamp:          StampMixed,
		ShareableQuote: "Interest at 50% - mixed signal",
		ScoreVisual:    50,
		RoastLevel:     RoastMild,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Derive(empty) mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveScoreVisual(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{"80%", 80},
		{"50%", 50},
		{" 63 % ", 63},
		{"72.5%", 72},
		{"abc", 50},
		{"", 50},
		{nil, 50},
		{42, 42},
		{float64(88), 88},
		{json.Number("91"), 91},
		{"150%", 150}, // not clamped at derivation time
		{true, 50},
		{"80abc", 80},
		{"75% (high)", 75},
		{"80 percent", 80},
		{"+64", 64},
		{"1e20", 1},
		{"%", 50},
		{"99999999999999999999%", math.MaxInt32},
		{"-99999999999999999999", math.MinInt32},
		{float64(1e20), math.MaxInt32},
		{float64(-1e20), math.MinInt32},
		{json.Number("1e20"), math.MaxInt32},
		{int64(math.MaxInt64), math.MaxInt32},
	}
	for _, tt := range tests {
		if got := Derive(AnalysisRecord{InterestLevel: tt.in}, "pro").ScoreVisual; got != tt.want {
			t.Errorf("interest %v: score_visual = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDeriveOverflowingInterestStaysPositive(t *testing.T) {
	card := Derive(AnalysisRecord{InterestLevel: json.Number("1e20"), EmotionalRisk: "low"}, "pro")
	if card.Stamp != StampGreen {
		t.Errorf("stamp = %q, want GREEN SIGNAL", card.Stamp)
	}
	if want := "Interest at 2147483647% - green signal"; card.ShareableQuote != want {
		t.Errorf("quote = %q, want %q", card.ShareableQuote, want)
	}
}

func TestDeriveUnknownRiskIsMedium(t *testing.T) {
	// medium risk at 80 is green; high would be red
	card := Derive(AnalysisRecord{InterestLevel: "80%", EmotionalRisk: "catastrophic"}, "free")
	if card.Stamp != StampGreen {
		t.Errorf("expected GREEN SIGNAL for unknown risk, got %q", card.Stamp)
	}
	card = Derive(AnalysisRecord{InterestLevel: "80%", EmotionalRisk: " HIGH "}, "free")
	if card.Stamp != StampRed {
		t.Errorf("expected RED FLAG for upper-case high risk, got %q", card.Stamp)
	}
}

func TestDeriveHeadlineSources(t *testing.T) {
	long := "Wants to see you again very soon, obviously"

	card := Derive(AnalysisRecord{Intent: long}, "free")
	if card.Headline != long[:MaxHeadlineLen] {
		t.Errorf("headline = %q, want intent prefix", card.Headline)
	}

	card = Derive(AnalysisRecord{
		Intent:    long,
		ViralCard: &EmbeddedCard{Headline: "They are so into you, no doubt about it"},
	}, "free")
	if card.Headline != "They are so into you, no dou" {
		t.Errorf("headline = %q, want truncated embedded headline", card.Headline)
	}

	card = Derive(AnalysisRecord{ViralSummary: &EmbeddedCard{Headline: "Legacy"}}, "free")
	if card.Headline != "Legacy" {
		t.Errorf("headline = %q, want legacy embedded headline", card.Headline)
	}
}

func TestDeriveQuote(t *testing.T) {
	card := Derive(AnalysisRecord{InterestLevel: "20%"}, "free")
	if card.ShareableQuote != "Interest at 20% - red flag" {
		t.Errorf("quote = %q", card.ShareableQuote)
	}

	longQuote := strings.Repeat("ha", 60)
	card = Derive(AnalysisRecord{ViralCard: &EmbeddedCard{ShareableQuote: longQuote}}, "free")
	if len(card.ShareableQuote) != MaxQuoteLen {
		t.Errorf("quote length = %d, want %d", len(card.ShareableQuote), MaxQuoteLen)
	}
}

func TestDeriveIgnoresEmbeddedScoreAndStamp(t *testing.T) {
	rec := AnalysisRecord{
		InterestLevel: "30%",
		EmotionalRisk: "low",
		ViralCard:     &EmbeddedCard{Stamp: "GREEN SIGNAL", ScoreVisual: 99},
	}
	card := Derive(rec, "pro")
	if card.ScoreVisual != 30 {
		t.Errorf("score_visual = %d, want 30", card.ScoreVisual)
	}
	if card.Stamp != StampRed {
		t.Errorf("stamp = %q, want computed RED FLAG", card.Stamp)
	}
}

func TestDeriveLengthCapsUnicode(t *testing.T) {
	rec := AnalysisRecord{
		Intent:    strings.Repeat("😊", 40),
		ViralCard: &EmbeddedCard{ShareableQuote: strings.Repeat("é", 200)},
	}
	card := Derive(rec, "max")
	if n := utf8.RuneCountInString(card.Headline); n != MaxHeadlineLen {
		t.Errorf("headline runes = %d, want %d", n, MaxHeadlineLen)
	}
	if n := utf8.RuneCountInString(card.ShareableQuote); n != MaxQuoteLen {
		t.Errorf("quote runes = %d, want %d", n, MaxQuoteLen)
	}
	if !utf8.ValidString(card.Headline) || !utf8.ValidString(card.ShareableQuote) {
		t.Error("truncation produced invalid UTF-8")
	}
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	embedded := &EmbeddedCard{Headline: "Keep me", ShareableQuote: "Original?"}
	rec := AnalysisRecord{InterestLevel: "70%", ViralCard: embedded}
	_ = Derive(rec, "pro")
	_ = Normalize(rec)
	if embedded.Headline != "Keep me" || embedded.ShareableQuote != "Original?" {
		t.Errorf("embedded card mutated: %+v", embedded)
	}
}
