package imaging

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette thresholds for IsCardPalette, in 8-bit channel units unless noted.
const (
	nearBlackMax      = 50
	nearWhiteMin      = 220
	blueDominance     = 30
	goldRedMin        = 180
	goldGreenMin      = 140
	goldBlueMax       = 110
	silverSpread      = 20
	silverMin         = 150
	silverMax         = 225
	holoSaturationMax = 0.15 // HSV saturation, 0-1
	holoValueMin      = 0.5  // HSV value, 0-1

	glossyLumaMin = 120.0
	glossyLumaMax = 240.0
)

// Luminance returns ITU-R BT.601 luma for 8-bit channels (0-255).
func Luminance(r, g, b int) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// IsCardPalette reports whether a pixel looks like a payment-card colour:
// near-black or near-white extremes, a blue-dominant tone, metallic gold or
// silver, or a bright low-saturation holographic tone.
func IsCardPalette(r, g, b int) bool {
	switch {
	case r < nearBlackMax && g < nearBlackMax && b < nearBlackMax:
		return true
	case r > nearWhiteMin && g > nearWhiteMin && b > nearWhiteMin:
		return true
	case b > r+blueDominance && b > g+blueDominance:
		return true
	case r > goldRedMin && g > goldGreenMin && b < goldBlueMax && r >= g:
		return true
	case isSilver(r, g, b):
		return true
	}
	return isHolographic(r, g, b)
}

// IsGlossy reports whether a pixel falls in the mid-range brightness band
// typical of light reflecting off a laminated card.
func IsGlossy(r, g, b int) bool {
	l := Luminance(r, g, b)
	return l >= glossyLumaMin && l <= glossyLumaMax
}

func isSilver(r, g, b int) bool {
	if absInt(r-g) >= silverSpread || absInt(g-b) >= silverSpread || absInt(r-b) >= silverSpread {
		return false
	}
	return r >= silverMin && r <= silverMax
}

func isHolographic(r, g, b int) bool {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	_, s, v := c.Hsv()
	return s < holoSaturationMax && v > holoValueMin
}

// CoarseColor buckets a pixel into one of 512 colours (3 bits per channel).
func CoarseColor(r, g, b int) uint16 {
	return uint16(r>>5)<<6 | uint16(g>>5)<<3 | uint16(b>>5)
}
