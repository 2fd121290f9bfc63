package detection

import (
	"math"

	"github.com/ironsheep/screenshot-prefilter/internal/imaging"
)

// HeuristicThreshold is the card score above which the heuristic backend
// reports a payment card.
const HeuristicThreshold = 0.3

// Signal weights; they sum to 1.
const (
	WeightAspect = 0.25
	WeightColor  = 0.25
	WeightEdge   = 0.20
	WeightShape  = 0.15
	WeightSize   = 0.15
)

// Signals holds the individual heuristic scores for one image.
type Signals struct {
	Aspect float64 `json:"aspect"`
	Color  float64 `json:"color"`
	Edge   float64 `json:"edge"`
	Shape  float64 `json:"shape"`
	Size   float64 `json:"size"`
}

// CardResult is the weighted card score with its inputs.
type CardResult struct {
	Signals Signals `json:"signals"`
	Score   float64 `json:"score"`
	IsCard  bool    `json:"is_card"`
}

// ExtractSignals runs all five extractors over r.
func ExtractSignals(r *imaging.Raster) Signals {
	w, h := r.Width(), r.Height()
	return Signals{
		Aspect: AspectRatioScore(w, h),
		Color:  ColorScore(r),
		Edge:   EdgeScore(r),
		Shape:  ShapeScore(r),
		Size:   SizeScore(w, h),
	}
}

// Combine applies the fixed weights.
func (s Signals) Combine() float64 {
	score := WeightAspect*s.Aspect +
		WeightColor*s.Color +
		WeightEdge*s.Edge +
		WeightShape*s.Shape +
		WeightSize*s.Size
	return math.Min(1, math.Max(0, score))
}

// CardScore scores r and applies HeuristicThreshold.
func CardScore(r *imaging.Raster) CardResult {
	s := ExtractSignals(r)
	score := s.Combine()
	return CardResult{
		Signals: s,
		Score:   score,
		IsCard:  score > HeuristicThreshold,
	}
}
