package detection

import (
	"math"

	"github.com/ironsheep/screenshot-prefilter/internal/imaging"
)

// CardAspectRatio is the ISO/IEC 7810 ID-1 width:height ratio.
const CardAspectRatio = 1.586

// AspectTolerance is the relative distance from CardAspectRatio at which
// AspectRatioScore reaches 0.
const AspectTolerance = 0.30

const (
	colorTargetSamples = 1000
	colorScale         = 1.5
)

// Edge parameters.
const (
	edgeBorder      = 10
	edgeInset       = 20
	edgeAcrossStep  = 5
	edgeAlongStep   = 20
	edgeSharpDiff   = 100
	edgeScoreFactor = 2.0
)

// Shape parameters.
const (
	compositionDivisor = 20
	compositionMin     = 8
	compositionMax     = 60
	compositionNorm    = 35.0
	symmetryRowStep    = 20
	symmetryColStep    = 10
	symmetryTolerance  = 30
)

// Size parameters.
const (
	sizeBandMin = 150
	sizeBandMax = 800
	sizePeak    = 350
	sizeOutBand = 0.3
)

// AspectRatioScore rates how close width:height is to a payment card.
//
// The score is 1 at the target ratio and falls off linearly, reaching 0
// once the ratio is 30% of the target away (at or below 1.1102, at or above
// 2.0618). Portrait images have a ratio below 1 and always score 0.
func AspectRatioScore(width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	ratio := float64(width) / float64(height)
	return math.Max(0, 1-math.Abs(ratio-CardAspectRatio)/CardAspectRatio/AspectTolerance)
}

// ColorScore samples about 1000 pixels at a fixed stride and returns the
// share matching the card palette or the glossy band, scaled by 1.5 and
// capped at 1.
func ColorScore(r *imaging.Raster) float64 {
	total := r.Pixels()
	if total == 0 {
		return 0
	}
	stride := total / colorTargetSamples
	if stride < 1 {
		stride = 1
	}

	w := r.Width()
	samples, matches := 0, 0
	for i := 0; i < total; i += stride {
		red, green, blue := r.RGB(i%w, i/w)
		samples++
		if imaging.IsCardPalette(red, green, blue) || imaging.IsGlossy(red, green, blue) {
			matches++
		}
	}
	return math.Min(1, float64(matches)/float64(samples)*colorScale)
}

// EdgeScore looks for a sharp frame around the image.
//
// On each side it walks a 10px border strip (every 5px across the strip,
// every 20px along it) and compares each pixel with the one 20px further
// inward. A pair whose summed channel difference exceeds 100 is a sharp
// edge. Pairs whose inward partner falls outside the image are skipped. The
// score is matches/samples*2, capped at 1, and 0 when no pair fits.
func EdgeScore(r *imaging.Raster) float64 {
	w, h := r.Width(), r.Height()
	inside := func(x, y int) bool { return x >= 0 && y >= 0 && x < w && y < h }

	samples, matches := 0, 0
	compare := func(x1, y1, x2, y2 int) {
		if !inside(x1, y1) || !inside(x2, y2) {
			return
		}
		r1, g1, b1 := r.RGB(x1, y1)
		r2, g2, b2 := r.RGB(x2, y2)
		samples++
		if imaging.ChannelDistance(r1, g1, b1, r2, g2, b2) > edgeSharpDiff {
			matches++
		}
	}

	for d := 0; d < edgeBorder; d += edgeAcrossStep {
		for x := 0; x < w; x += edgeAlongStep {
			compare(x, d, x, d+edgeInset)         // top
			compare(x, h-1-d, x, h-1-d-edgeInset) // bottom
		}
		for y := 0; y < h; y += edgeAlongStep {
			compare(d, y, d+edgeInset, y)         // left
			compare(w-1-d, y, w-1-d-edgeInset, y) // right
		}
	}

	if samples == 0 {
		return 0
	}
	return math.Min(1, float64(matches)/float64(samples)*edgeScoreFactor)
}

// ShapeScore is the mean of CompositionScore and SymmetryScore.
func ShapeScore(r *imaging.Raster) float64 {
	return (CompositionScore(r) + SymmetryScore(r)) / 2
}

// CompositionScore counts distinct coarse colours on a grid whose step is
// sqrt(pixels)/20. Between 8 and 60 colours the score is count/35 capped at
// 1; fewer or more colours score 0.
func CompositionScore(r *imaging.Raster) float64 {
	step := int(math.Sqrt(float64(r.Pixels())) / compositionDivisor)
	if step < 1 {
		step = 1
	}

	seen := make(map[uint16]struct{})
	for y := 0; y < r.Height(); y += step {
		for x := 0; x < r.Width(); x += step {
			seen[imaging.CoarseColor(r.RGB(x, y))] = struct{}{}
		}
	}

	n := len(seen)
	if n < compositionMin || n > compositionMax {
		return 0
	}
	return math.Min(1, float64(n)/compositionNorm)
}

// SymmetryScore returns the share of pixels in the left quarter (every 20
// rows, every 10 columns) whose horizontal mirror is within 30 units on
// every channel.
func SymmetryScore(r *imaging.Raster) float64 {
	w, h := r.Width(), r.Height()
	samples, matches := 0, 0
	for y := 0; y < h; y += symmetryRowStep {
		for x := 0; x < w/4; x += symmetryColStep {
			r1, g1, b1 := r.RGB(x, y)
			r2, g2, b2 := r.RGB(w-1-x, y)
			samples++
			if imaging.WithinTolerance(r1, g1, b1, r2, g2, b2, symmetryTolerance) {
				matches++
			}
		}
	}
	if samples == 0 {
		return 0
	}
	return float64(matches) / float64(samples)
}

// SizeScore rates the longest side. Inside [150, 800] it is
// 1 - |side-350|/350 floored at 0; outside the band it is a flat 0.3, a weak
// signal rather than a disqualifier.
func SizeScore(width, height int) float64 {
	side := width
	if height > side {
		side = height
	}
	if side < sizeBandMin || side > sizeBandMax {
		return sizeOutBand
	}
	return math.Max(0, 1-math.Abs(float64(side-sizePeak))/sizePeak)
}
