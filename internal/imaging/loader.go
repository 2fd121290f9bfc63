package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrTooLarge is returned when an image's pixel count exceeds the limit.
var ErrTooLarge = errors.New("image exceeds pixel limit")

// ErrEmpty is returned when there are no bytes to decode.
var ErrEmpty = errors.New("image data is empty")

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// MaxPixels rejects images whose width*height is larger. Zero disables
	// the check.
	MaxPixels int

	// IgnoreOrientation skips the EXIF orientation fix-up.
	IgnoreOrientation bool
}

// ImageInfo contains metadata about an encoded image.
type ImageInfo struct {
	// Width is the image width in pixels, before orientation is applied.
	Width int `json:"width"`

	// Height is the image height in pixels, before orientation is applied.
	Height int `json:"height"`

	// Format is the decoder name reported by the image package:
	// "png", "jpeg", "gif", "webp", "bmp" or "tiff".
	Format string `json:"format"`

	// Orientation is the EXIF orientation tag (1-8); 1 when absent.
	Orientation int `json:"orientation"`

	// SizeBytes is the length of the encoded data.
	SizeBytes int `json:"size_bytes"`
}

// Inspect reads an image's header without decoding pixel data.
func Inspect(data []byte) (*ImageInfo, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	return &ImageInfo{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      format,
		Orientation: readOrientation(data, format),
		SizeBytes:   len(data),
	}, nil
}

// Decode turns encoded bytes into an upright image.
//
// The header is read first so that zero-sized or oversized images are
// rejected before pixel memory is allocated. Unless opts.IgnoreOrientation is
// set, the EXIF orientation tag is applied so that width and height match
// what a viewer would display.
//
// # Errors
//
//   - ErrEmpty if data is empty
//   - ErrTooLarge if the pixel count exceeds opts.MaxPixels
//   - a wrapped decoder error if the format is unknown or the data is corrupt
func Decode(data []byte, opts DecodeOptions) (image.Image, error) {
	info, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", info.Width, info.Height)
	}
	if opts.MaxPixels > 0 && info.Width*info.Height > opts.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrTooLarge, info.Width, info.Height, opts.MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if !opts.IgnoreOrientation {
		img = applyOrientation(img, info.Orientation)
	}
	return img, nil
}

// ReadFile reads an image file, refusing files larger than maxBytes.
// A maxBytes of zero or less disables the limit.
func ReadFile(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	if maxBytes <= 0 {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("image file %s larger than %d bytes", path, maxBytes)
	}
	return data, nil
}
