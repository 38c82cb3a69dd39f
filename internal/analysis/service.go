package analysis

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hintaro/hintaro/internal/database"
	"github.com/hintaro/hintaro/internal/share"
	"github.com/hintaro/hintaro/internal/viral"
)

// Analysis is a stored analysis with its record decoded.
type Analysis struct {
	ID        string               `json:"id"`
	Tier      string               `json:"tier"`
	CreatedAt string               `json:"created_at,omitempty"`
	Record    viral.AnalysisRecord `json:"-"`
	Raw       map[string]any       `json:"analysis"`
}

// Service creates and renders analyses.
type Service struct {
	db       *database.DB
	deriver  *viral.Deriver
	renderer *share.Renderer
	logger   *zap.Logger
	newID    func() string
}

// NewService creates an analysis service.
func NewService(db *database.DB, deriver *viral.Deriver, renderer *share.Renderer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:       db,
		deriver:  deriver,
		renderer: renderer,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// CreateFromText parses model output and stores it. See Create.
func (s *Service) CreateFromText(tier, text string) (*Analysis, viral.Card, error) {
	raw, err := ParseResponse(text)
	if err != nil {
		return nil, viral.Card{}, err
	}
	return s.Create(tier, raw)
}

// Create derives the card for an analysis, embeds it under viral_card and
// stores the record. Unknown upstream fields are kept as-is.
func (s *Service) Create(tier string, raw map[string]any) (*Analysis, viral.Card, error) {
	tier, err := NormalizeTier(tier)
	if err != nil {
		return nil, viral.Card{}, err
	}
	if raw == nil {
		return nil, viral.Card{}, ErrEmptyAnalysis
	}

	card, stored := Embed(raw, s.deriver, tier)

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, viral.Card{}, fmt.Errorf("encoding analysis: %w", err)
	}

	id := s.newID()
	if err := s.db.InsertAnalysis(id, tier, string(data)); err != nil {
		return nil, viral.Card{}, fmt.Errorf("storing analysis: %w", err)
	}
	s.logger.Info("analysis stored",
		zap.String("id", id),
		zap.String("tier", tier),
		zap.String("stamp", string(card.Stamp)),
		zap.Int("score", card.ScoreVisual))

	a, err := s.Get(id)
	if err != nil {
		return nil, viral.Card{}, err
	}
	return a, card, nil
}

// Embed derives a card from raw and returns it together with a copy of raw
// that carries the card under viral_card. raw itself is not modified.
func Embed(raw map[string]any, deriver *viral.Deriver, tier string) (viral.Card, map[string]any) {
	card := deriver.Derive(viral.RecordFromMap(raw), tier)
	stored := maps.Clone(raw)
	stored["viral_card"] = card
	return card, stored
}

// Get loads one analysis.
func (s *Service) Get(id string) (*Analysis, error) {
	row, err := s.db.GetAnalysis(id)
	if err != nil {
		return nil, fmt.Errorf("loading analysis: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return decode(*row)
}

// Recent lists the newest analyses first.
func (s *Service) Recent(limit int) ([]Analysis, error) {
	rows, err := s.db.GetRecentAnalyses(limit)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	out := make([]Analysis, 0, len(rows))
	for _, row := range rows {
		a, err := decode(row)
		if err != nil {
			s.logger.Warn("skipping unreadable analysis", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

// Delete removes an analysis and everything attached to it.
func (s *Service) Delete(id string) error {
	existed, err := s.db.DeleteAnalysis(id)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.Info("analysis deleted", zap.String("id", id))
	return nil
}

// Card renders the share card for a stored analysis.
func (s *Service) Card(id string, format share.Format) (*share.View, error) {
	a, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	v := s.renderer.Render(a.Record, format)
	v.ID = a.ID
	return &v, nil
}

func decode(row database.Analysis) (*Analysis, error) {
	raw, err := ParseResponse(row.AnalysisJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding analysis %s: %w", row.ID, err)
	}
	a := &Analysis{
		ID:     row.ID,
		Tier:   row.Tier,
		Record: viral.RecordFromMap(raw),
		Raw:    raw,
	}
	if row.CreatedAt != nil {
		a.CreatedAt = *row.CreatedAt
	}
	return a, nil
}
