package backend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/ironsheep/screenshot-prefilter/internal/imaging"
	"github.com/ironsheep/screenshot-prefilter/internal/taxonomy"
)

// DefaultManifestFile is looked up inside the model directory.
const DefaultManifestFile = "manifest.yaml"

// LearnedConfig locates the model assets.
type LearnedConfig struct {
	ModelDir          string
	ManifestFile      string
	SharedLibraryPath string
	Decode            imaging.DecodeOptions
}

type modelSession struct {
	spec ModelSpec
	geom inputGeometry
	run  runner
}

// Learned runs ONNX classifiers: a single-output card model for Light and a
// multi-output model for Deep.
type Learned struct {
	cfg LearnedConfig

	// open is swapped in tests.
	open    func(modelPath string, spec ModelSpec) (runner, inputGeometry, error)
	runtime func(libPath, modelDir string) error

	mu       sync.RWMutex
	manifest *Manifest
	sessions map[taxonomy.Mode]*modelSession
}

// NewLearned returns an uninitialized learned backend.
func NewLearned(cfg LearnedConfig) *Learned {
	if cfg.ManifestFile == "" {
		cfg.ManifestFile = DefaultManifestFile
	}
	return &Learned{
		cfg:      cfg,
		open:     openSession,
		runtime:  initRuntime,
		sessions: make(map[taxonomy.Mode]*modelSession),
	}
}

// Name implements Backend.
func (l *Learned) Name() string { return NameLearned }

// ManifestPath is where Initialize reads the manifest from.
func (l *Learned) ManifestPath() string {
	if filepath.IsAbs(l.cfg.ManifestFile) {
		return l.cfg.ManifestFile
	}
	return filepath.Join(l.cfg.ModelDir, l.cfg.ManifestFile)
}

// Initialize loads the manifest and opens a session per declared model.
// It succeeds when at least one model loads; a mode whose model failed
// reports ErrModelUnavailable from Analyze.
func (l *Learned) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.sessions) > 0 {
		return nil
	}
	if l.cfg.ModelDir == "" {
		return &InitError{Err: fmt.Errorf("%w: no model directory configured", ErrModelUnavailable)}
	}

	manifestPath := l.ManifestPath()
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return &InitError{Path: manifestPath, Err: err}
	}
	if err := l.runtime(l.cfg.SharedLibraryPath, l.cfg.ModelDir); err != nil {
		return &InitError{Path: l.cfg.SharedLibraryPath, Err: err}
	}

	var errs []error
	for _, mode := range []taxonomy.Mode{taxonomy.ModeLight, taxonomy.ModeDeep} {
		spec := manifest.Spec(mode)
		if spec == nil {
			continue
		}
		modelPath := spec.File
		if !filepath.IsAbs(modelPath) {
			modelPath = filepath.Join(l.cfg.ModelDir, modelPath)
		}
		run, geom, err := l.open(modelPath, *spec)
		if err != nil {
			log.Printf("[Backend] %s model unavailable: %v", mode, err)
			errs = append(errs, &InitError{Path: modelPath, Err: err})
			continue
		}
		log.Printf("[Backend] loaded %s model %s (%dx%d %s)", mode, modelPath, geom.width, geom.height, geom.layout)
		l.sessions[mode] = &modelSession{spec: *spec, geom: geom, run: run}
	}

	if len(l.sessions) == 0 {
		if len(errs) == 0 {
			return &InitError{Path: manifestPath, Err: ErrModelUnavailable}
		}
		return errors.Join(errs...)
	}
	l.manifest = manifest
	return nil
}

// Loaded reports whether a model is available for mode.
func (l *Learned) Loaded(mode taxonomy.Mode) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.sessions[mode]
	return ok
}

// Categories implements Backend.
func (l *Learned) Categories(mode taxonomy.Mode) []taxonomy.Category {
	l.mu.RLock()
	sess, ok := l.sessions[mode]
	l.mu.RUnlock()
	if !ok {
		return nil
	}
	if mode == taxonomy.ModeLight {
		return []taxonomy.Category{taxonomy.CreditCard}
	}

	cats := make([]taxonomy.Category, 0, len(sess.spec.Categories))
	for _, key := range sess.spec.Categories {
		if c, ok := taxonomy.CategoryForKey(key); ok {
			cats = append(cats, c)
		}
	}
	return cats
}

// Analyze implements Backend.
func (l *Learned) Analyze(ctx context.Context, data []byte, mode taxonomy.Mode) (Outcome, error) {
	out := Outcome{Backend: NameLearned}
	if !mode.Enabled() {
		return out, nil
	}

	l.mu.RLock()
	sess, ok := l.sessions[mode]
	l.mu.RUnlock()
	if !ok {
		return out, fmt.Errorf("%w for %s mode", ErrModelUnavailable, mode)
	}

	img, err := imaging.Decode(data, l.cfg.Decode)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	tensor, err := imaging.PackTensor(img, sess.geom.width, sess.geom.height, sess.geom.layout)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	raw, err := sess.run.Run(tensor)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInference, err)
	}
	scores, err := interpretOutputs(mode, raw, sess.spec.Categories)
	if err != nil {
		return out, err
	}

	out.Scores = scores
	out.Fingerprint = imaging.Fingerprint(img)
	return out, nil
}

// Close releases every open session.
func (l *Learned) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for mode, sess := range l.sessions {
		if err := sess.run.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s session: %w", mode, err))
		}
		delete(l.sessions, mode)
	}
	return errors.Join(errs...)
}

// interpretOutputs turns model probabilities into thresholded scores. Light
// reads one probability for credit_card. Deep pairs outputs with categories
// positionally, up to MaxDeepCategories.
func interpretOutputs(mode taxonomy.Mode, raw []float32, categories []string) (taxonomy.RawScores, error) {
	var scores taxonomy.RawScores
	if len(raw) == 0 {
		return scores, fmt.Errorf("%w: model returned no outputs", ErrInference)
	}

	if mode == taxonomy.ModeLight {
		if p := float64(raw[0]); p > LearnedThreshold {
			scores.Set(string(taxonomy.CreditCard), p)
		}
		return scores, nil
	}

	n := min(len(raw), len(categories), MaxDeepCategories)
	for i := 0; i < n; i++ {
		if p := float64(raw[i]); p > LearnedThreshold {
			scores.Set(categories[i], p)
		}
	}
	return scores, nil
}
