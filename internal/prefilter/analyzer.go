// Package prefilter decides whether a screenshot may leave the device.
//
// Analyzer resolves the mode, fetches image bytes, scores them through a
// backend and maps the result onto the category taxonomy. Every failure on
// that path yields an allowed verdict; callers cannot tell a failed analysis
// from a clean one except through the log.
package prefilter

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/time/rate"

	"github.com/ironsheep/screenshot-prefilter/internal/backend"
	"github.com/ironsheep/screenshot-prefilter/internal/taxonomy"
)

// Scorer is the backend surface the analyzer needs. *backend.Service
// implements it.
type Scorer interface {
	Initialize() error
	Analyze(ctx context.Context, data []byte, mode taxonomy.Mode) (backend.Outcome, error)
	Status() backend.Status
}

// FailureKind classifies why an analysis failed open.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInitialization
	FailureDecode
	FailureDataUnavailable
	FailureBackendRuntime
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureInitialization:
		return "initialization"
	case FailureDecode:
		return "decode"
	case FailureDataUnavailable:
		return "data_unavailable"
	default:
		return "backend_runtime"
	}
}

// ClassifyFailure maps an error from any analysis step to its kind.
// Unrecognized errors are backend runtime failures.
func ClassifyFailure(err error) FailureKind {
	var initErr *backend.InitError
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrDataUnavailable):
		return FailureDataUnavailable
	case errors.As(err, &initErr):
		return FailureInitialization
	case errors.Is(err, backend.ErrDecode):
		return FailureDecode
	default:
		return FailureBackendRuntime
	}
}

// Analyzer is the mode-aware analysis pipeline.
type Analyzer struct {
	scorer  Scorer
	prefs   PreferenceStore
	source  ImageSource
	limiter *rate.Limiter
	debug   bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithPreferences sets the store holding the persisted mode.
func WithPreferences(store PreferenceStore) Option {
	return func(a *Analyzer) { a.prefs = store }
}

// WithImageSource sets how screenshot bytes are obtained.
func WithImageSource(src ImageSource) Option {
	return func(a *Analyzer) { a.source = src }
}

// WithBatchRate paces AnalyzeMany to at most perSecond subjects per second.
// Zero or negative disables pacing.
func WithBatchRate(perSecond float64) Option {
	return func(a *Analyzer) {
		if perSecond > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			a.limiter = nil
		}
	}
}

// WithDebug enables per-subject log lines.
func WithDebug(debug bool) Option {
	return func(a *Analyzer) { a.debug = debug }
}

// New returns an Analyzer scoring through scorer. Without options it keeps
// preferences in memory and reads bytes with an unlimited LocalSource.
func New(scorer Scorer, opts ...Option) *Analyzer {
	a := &Analyzer{
		scorer: scorer,
		prefs:  NewMemoryStore(),
		source: LocalSource{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetMode returns the persisted mode. Missing, unreadable or unrecognized
// values resolve to taxonomy.DefaultMode.
func (a *Analyzer) GetMode() taxonomy.Mode {
	value, ok, err := a.prefs.Get(ModePreferenceKey)
	if err != nil {
		log.Printf("[Prefilter] reading mode preference failed, using %s: %v", taxonomy.DefaultMode, err)
		return taxonomy.DefaultMode
	}
	if !ok {
		return taxonomy.DefaultMode
	}
	return taxonomy.ParseMode(value)
}

// SetMode persists mode.
func (a *Analyzer) SetMode(mode taxonomy.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid mode %q", string(mode))
	}
	if err := a.prefs.Set(ModePreferenceKey, mode.String()); err != nil {
		return fmt.Errorf("save mode: %w", err)
	}
	return nil
}

// IsEnabled reports whether the persisted mode is not Off.
func (a *Analyzer) IsEnabled() bool {
	return a.GetMode().Enabled()
}

// BackendStatus reports the backend state.
func (a *Analyzer) BackendStatus() backend.Status {
	return a.scorer.Status()
}

// ReadImage returns the bytes the analyzer would score for shot.
func (a *Analyzer) ReadImage(ctx context.Context, shot Screenshot) ([]byte, error) {
	return a.source.Bytes(ctx, shot)
}

// ResolveMode returns mode parsed, or the persisted mode when mode is empty.
func (a *Analyzer) ResolveMode(mode taxonomy.Mode) taxonomy.Mode {
	if mode == "" {
		return a.GetMode()
	}
	return taxonomy.ParseMode(string(mode))
}

// Analyze decides whether shot may be transmitted. An empty mode uses the
// persisted preference. A blocked verdict comes with a copy of shot carrying
// the marker tags; otherwise shot is returned as given.
func (a *Analyzer) Analyze(ctx context.Context, shot Screenshot, mode taxonomy.Mode) (taxonomy.Verdict, Screenshot) {
	return a.analyze(ctx, shot, a.ResolveMode(mode))
}

func (a *Analyzer) analyze(ctx context.Context, shot Screenshot, mode taxonomy.Mode) (taxonomy.Verdict, Screenshot) {
	if !mode.Enabled() {
		return taxonomy.Allowed(), shot
	}

	data, err := a.source.Bytes(ctx, shot)
	if err != nil {
		return a.failOpen(shot, err), shot
	}

	if err := a.scorer.Initialize(); err != nil && a.debug {
		log.Printf("[Prefilter] backend in fallback: %v", err)
	}

	out, err := a.scorer.Analyze(ctx, data, mode)
	if err != nil {
		return a.failOpen(shot, err), shot
	}

	verdict := taxonomy.BuildVerdict(out.Scores, mode)
	verdict.Backend = out.Backend
	verdict.Fingerprint = out.Fingerprint

	if !verdict.Blocked() {
		if a.debug {
			log.Printf("[Prefilter] %s allowed (%s, %s)", shot.ID, mode, out.Backend)
		}
		return verdict, shot
	}

	log.Printf("[Prefilter] %s blocked: %v confidence=%.2f mode=%s backend=%s", shot.ID, verdict.Categories, verdict.Confidence, mode, out.Backend)
	return verdict, shot.WithTags(TagSensitive, TagPrivacyBlocked)
}

func (a *Analyzer) failOpen(shot Screenshot, err error) taxonomy.Verdict {
	log.Printf("[Prefilter] %s allowed after %s failure: %v", shot.ID, ClassifyFailure(err), err)
	return taxonomy.Allowed()
}
