package prefilter

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/screenshot-prefilter/internal/imaging"
)

// ErrDataUnavailable means a screenshot has neither bytes nor a readable file.
var ErrDataUnavailable = errors.New("image data unavailable")

// ImageSource produces the encoded bytes for a screenshot.
type ImageSource interface {
	Bytes(ctx context.Context, shot Screenshot) ([]byte, error)
}

// LocalSource prefers in-memory bytes and falls back to reading Path.
type LocalSource struct {
	// MaxBytes caps file reads; zero means unlimited.
	MaxBytes int64
}

// Bytes implements ImageSource. Every failure wraps ErrDataUnavailable.
func (s LocalSource) Bytes(ctx context.Context, shot Screenshot) ([]byte, error) {
	if len(shot.Data) > 0 {
		return shot.Data, nil
	}
	if shot.Path == "" {
		return nil, ErrDataUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	data, err := imaging.ReadFile(shot.Path, s.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrDataUnavailable, shot.Path)
	}
	return data, nil
}
