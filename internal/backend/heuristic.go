package backend

import (
	"context"
	"fmt"

	"github.com/ironsheep/screenshot-prefilter/internal/detection"
	"github.com/ironsheep/screenshot-prefilter/internal/imaging"
	"github.com/ironsheep/screenshot-prefilter/internal/taxonomy"
)

// Heuristic is the asset-free backend. It only ever reports credit_card;
// Deep and Light produce identical output.
type Heuristic struct {
	decode imaging.DecodeOptions
}

// NewHeuristic returns a heuristic backend that decodes with opts.
func NewHeuristic(opts imaging.DecodeOptions) *Heuristic {
	return &Heuristic{decode: opts}
}

// Name implements Backend.
func (h *Heuristic) Name() string { return NameHeuristic }

// Initialize implements Backend; there is nothing to load.
func (h *Heuristic) Initialize() error { return nil }

// Categories implements Backend.
func (h *Heuristic) Categories(mode taxonomy.Mode) []taxonomy.Category {
	if !mode.Enabled() {
		return nil
	}
	return []taxonomy.Category{taxonomy.CreditCard}
}

// Analyze implements Backend.
func (h *Heuristic) Analyze(ctx context.Context, data []byte, mode taxonomy.Mode) (Outcome, error) {
	out := Outcome{Backend: NameHeuristic}
	if !mode.Enabled() {
		return out, nil
	}

	result, fingerprint, err := h.score(data)
	if err != nil {
		return out, err
	}
	out.Fingerprint = fingerprint
	if result.IsCard {
		out.Scores.Set(string(taxonomy.CreditCard), result.Score)
	}
	return out, nil
}

// Score decodes data and returns the full signal breakdown.
func (h *Heuristic) Score(data []byte) (detection.CardResult, error) {
	result, _, err := h.score(data)
	return result, err
}

func (h *Heuristic) score(data []byte) (detection.CardResult, string, error) {
	img, err := imaging.Decode(data, h.decode)
	if err != nil {
		return detection.CardResult{}, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return detection.CardScore(imaging.NewRaster(img)), imaging.Fingerprint(img), nil
}
