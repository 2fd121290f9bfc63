// Package detection estimates whether an image is a photograph of a payment
// card, using pixel statistics only.
//
// # Signals
//
// Five independent extractors each return a score in [0, 1]:
//
//   - Aspect: closeness of the longer/shorter side ratio to the ISO/IEC 7810
//     ID-1 card ratio (1.586), with a 30% tolerance band
//   - Color: share of sampled pixels in a card palette or a glossy
//     brightness band
//   - Edge: share of sharp transitions between a 10px border strip and the
//     pixels 20px further inward
//   - Shape: mean of a composition score (distinct coarse colours) and a
//     horizontal mirror-symmetry score
//   - Size: closeness of the longest side to 350px inside a 150-800px band,
//     with a flat 0.3 outside the band
//
// # Card Score
//
// CardScore combines the signals with fixed weights
// (0.25, 0.25, 0.20, 0.15, 0.15). A score above HeuristicThreshold (0.3)
// counts as a card. The threshold is lower than the 0.5 used for learned
// models because these signals are individually weak.
//
// # Determinism
//
// Sampling uses fixed strides, never random numbers, so identical pixels
// always produce identical scores.
//
// # Limitations
//
// The scorer looks for card-like framing and colour, not card content.
// Cards photographed at steep angles, cropped tightly or held against a
// busy background can score below the threshold, and plain bordered
// graphics at card proportions can score above it.
package detection
