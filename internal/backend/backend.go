// Package backend produces raw per-category scores from image bytes.
//
// Two variants implement Backend: Heuristic, which runs the pixel-statistics
// card scorer and needs no assets, and Learned, which runs ONNX models
// described by a manifest. Service owns one of each, initializes the learned
// variant exactly once per process, and falls back to the heuristic variant
// for any call where the learned path fails.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/screenshot-prefilter/internal/taxonomy"
)

// LearnedThreshold is the probability above which a learned-model output
// counts as a detection.
const LearnedThreshold = 0.5

// Variant names reported in Outcome.Backend and Status.
const (
	NameHeuristic = "heuristic"
	NameLearned   = "learned"
)

var (
	// ErrDecode means the image bytes could not be decoded.
	ErrDecode = errors.New("image decode failed")

	// ErrModelUnavailable means no learned model is loaded for the mode.
	ErrModelUnavailable = errors.New("learned model unavailable")

	// ErrInference means the model runtime failed or returned unusable output.
	ErrInference = errors.New("inference failed")
)

// InitError reports why the learned backend could not be initialized.
// It never makes the process unusable: the heuristic backend still runs.
type InitError struct {
	Path string
	Err  error
}

func (e *InitError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("learned backend init failed: %v", e.Err)
	}
	return fmt.Sprintf("learned backend init failed (%s): %v", e.Path, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Outcome is what a backend returns for one image.
type Outcome struct {
	// Scores holds only detections that passed the backend's threshold.
	Scores taxonomy.RawScores

	// Backend is the variant name that produced Scores.
	Backend string

	// Fingerprint is a perceptual hash of the decoded image.
	Fingerprint string
}

// Backend scores images.
type Backend interface {
	// Name returns NameHeuristic or NameLearned.
	Name() string

	// Initialize prepares the backend. It may be called more than once.
	Initialize() error

	// Analyze scores one encoded image under mode. ModeOff never reaches a
	// backend through Service.
	Analyze(ctx context.Context, data []byte, mode taxonomy.Mode) (Outcome, error)

	// Categories lists what Analyze can report under mode.
	Categories(mode taxonomy.Mode) []taxonomy.Category
}
