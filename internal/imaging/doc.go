// Package imaging provides the image plumbing the prefilter scores on.
//
// This package decodes raw image bytes (PNG, JPEG, GIF, WebP, BMP, TIFF),
// applies EXIF orientation, exposes the result as an 8-bit RGB raster, and
// packs rasters into normalized tensors for the learned-model backend. It
// also carries the colour predicates and pixel-difference helpers used by the
// heuristic signal extractors in package detection.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// Raster hides the source image's bounds offset, so (0,0) is always the
// top-left pixel regardless of how the image was decoded or cropped.
//
// # Thread Safety
//
// Every function is stateless. A Raster is read-only after construction and
// may be shared between goroutines.
//
// # Color Representation
//
// Raster.RGB returns 8-bit components as ints (0-255) so callers can subtract
// without overflow. Alpha is ignored; transparent regions read as their
// premultiplied colour.
//
// # Error Handling
//
// Decode returns errors for empty input, unrecognized formats, zero-sized
// images and images above the configured pixel limit (ErrTooLarge). Metadata
// problems never fail a decode: an unreadable EXIF block means "no rotation".
//
// # Performance Considerations
//
// Decoding is the dominant cost. Decode checks dimensions with
// image.DecodeConfig before allocating pixels, so oversized images are
// rejected without being expanded in memory.
package imaging
