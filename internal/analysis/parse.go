package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyAnalysis     = errors.New("empty analysis")
	ErrMalformedAnalysis = errors.New("malformed analysis")
	ErrInvalidTier       = errors.New("invalid subscription tier")
	ErrNotFound          = errors.New("analysis not found")
)

// Tiers lists the accepted subscription tiers.
var Tiers = []string{"free", "pro", "plus", "max"}

// NormalizeTier validates a tier. An empty tier is treated as free.
// Comparison is case-sensitive.
func NormalizeTier(tier string) (string, error) {
	if tier == "" {
		return "free", nil
	}
	for _, t := range Tiers {
		if tier == t {
			return tier, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTier, tier)
}

// ParseResponse decodes analysis JSON as returned by the model, handling
// markdown code fences. Numbers are kept as json.Number.
func ParseResponse(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)

	// Strip markdown code fences
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines)
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
	}
	if text == "" {
		return nil, ErrEmptyAnalysis
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var result map[string]any
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	if result == nil {
		return nil, ErrEmptyAnalysis
	}
	return result, nil
}
