package share

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hintaro/hintaro/internal/config"
	"github.com/hintaro/hintaro/internal/viral"
)

// ringRadius is the radius of the score ring drawn on the card.
const ringRadius = 54

// View is everything a template or API client needs to draw one card.
type View struct {
	ID          string            `json:"id,omitempty"`
	Card        viral.Card        `json:"card"`
	Caption     string            `json:"caption"`
	BrandName   string            `json:"brand_name"`
	BrandDomain string            `json:"brand_domain"`
	Format      Format            `json:"format"`
	Size        Size              `json:"size"`
	StampStyle  config.StampStyle `json:"stamp_style"`
	ScoreBand   string            `json:"score_band"`
	ScoreColor  config.ScoreColor `json:"score_color"`
	Ring        Ring              `json:"ring"`
	Stats       Stats             `json:"stats"`
	ExportName  string            `json:"export_name"`
}

// Ring holds SVG stroke values for the score ring.
type Ring struct {
	Radius        int     `json:"radius"`
	Circumference float64 `json:"circumference"`
	Offset        float64 `json:"offset"`
}

// Renderer turns stored analyses into card views.
type Renderer struct {
	brand config.Brand
	theme config.Theme
	now   func() time.Time
}

// NewRenderer creates a renderer for a brand and theme.
func NewRenderer(brand config.Brand, theme config.Theme) *Renderer {
	return &Renderer{brand: brand, theme: theme, now: time.Now}
}

// Render normalizes the record's card and builds its view.
func (r *Renderer) Render(record viral.AnalysisRecord, format Format) View {
	card := viral.Normalize(record)
	return View{
		Card:        card,
		Caption:     Caption(card, r.brand.Domain),
		BrandName:   r.brand.Name,
		BrandDomain: r.brand.Domain,
		Format:      format,
		Size:        format.Size(),
		StampStyle:  StampStyle(r.theme, card.Stamp),
		ScoreBand:   ScoreBand(card.ScoreVisual),
		ScoreColor:  ScoreColor(r.theme, card.ScoreVisual),
		Ring:        scoreRing(card.ScoreVisual),
		Stats: Stats{
			Risk:   FormatRisk(record.EmotionalRisk),
			Timing: FormatTiming(record.RecommendedTiming),
			Tone:   FormatTone(record.Tone),
		},
		ExportName: ExportName(r.brand.Name, format, r.now()),
	}
}

// Caption is the text copied alongside a shared card.
func Caption(card viral.Card, domain string) string {
	lead := card.Headline
	if lead == "" {
		lead = string(card.Stamp)
	}
	return fmt.Sprintf("%s • Interest: %d%% — %s", lead, card.ScoreVisual, domain)
}

// ExportName is the file name suggested for a downloaded card image.
func ExportName(brand string, format Format, t time.Time) string {
	return fmt.Sprintf("%s-scorecard-%s-%d.png", slug(brand), format, t.UnixMilli())
}

func scoreRing(score int) Ring {
	c := 2 * math.Pi * ringRadius
	frac := float64(min(100, max(0, score))) / 100
	return Ring{Radius: ringRadius, Circumference: c, Offset: c * (1 - frac)}
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "card"
	}
	return out
}
