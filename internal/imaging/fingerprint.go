package imaging

import (
	"image"

	"github.com/corona10/goimagehash"
)

// Fingerprint returns the perceptual difference hash of img as a string,
// or "" if hashing fails. Fingerprints are evidence only; nothing decides
// on them.
func Fingerprint(img image.Image) string {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return ""
	}
	return hash.ToString()
}
