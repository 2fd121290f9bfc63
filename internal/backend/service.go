package backend

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/screenshot-prefilter/internal/taxonomy"
)

// State is the initialization state of a Service.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateReadyFallback
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateReadyFallback:
		return "ready_fallback"
	default:
		return "uninitialized"
	}
}

// Status describes the backend for diagnostics.
type Status struct {
	Initialized         bool                `json:"initialized"`
	LearnedModelLoaded  bool                `json:"learned_model_loaded"`
	AvailableCategories []taxonomy.Category `json:"available_categories"`
	State               string              `json:"state"`
	InitError           string              `json:"init_error,omitempty"`
}

// Service selects between the learned and heuristic backends. The learned
// backend is initialized at most once per Service; every caller after the
// first sees the same outcome.
type Service struct {
	heuristic Backend
	learned   Backend

	once    sync.Once
	state   atomic.Int32
	initErr error
	useML   bool
}

// NewService returns a Service. learned may be nil, in which case every
// call uses heuristic.
func NewService(heuristic, learned Backend) *Service {
	return &Service{heuristic: heuristic, learned: learned}
}

// Initialize loads the learned backend on first call and records whether it
// is usable. A non-nil error means the Service runs on the heuristic backend;
// it is informational.
func (s *Service) Initialize() error {
	s.once.Do(func() {
		s.state.Store(int32(StateInitializing))
		if s.learned == nil {
			log.Printf("[Backend] no learned backend configured, using %s", s.heuristic.Name())
			s.state.Store(int32(StateReadyFallback))
			return
		}
		if err := s.learned.Initialize(); err != nil {
			log.Printf("[Backend] falling back to %s: %v", s.heuristic.Name(), err)
			s.initErr = err
			s.state.Store(int32(StateReadyFallback))
			return
		}
		s.useML = true
		s.state.Store(int32(StateReady))
	})
	return s.initErr
}

// State returns the current initialization state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Analyze scores data with the learned backend when it is loaded, retrying
// with the heuristic backend if that call fails for any reason.
func (s *Service) Analyze(ctx context.Context, data []byte, mode taxonomy.Mode) (Outcome, error) {
	if !mode.Enabled() {
		return Outcome{}, nil
	}
	s.Initialize()

	if s.useML {
		out, err := s.learned.Analyze(ctx, data, mode)
		if err == nil {
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return out, err
		}
		log.Printf("[Backend] %s %s analysis failed, retrying with %s: %v", s.learned.Name(), mode, s.heuristic.Name(), err)
	}
	return s.heuristic.Analyze(ctx, data, mode)
}

// Categories returns what the active backend can report under mode.
func (s *Service) Categories(mode taxonomy.Mode) []taxonomy.Category {
	s.Initialize()
	if s.useML {
		if cats := s.learned.Categories(mode); len(cats) > 0 {
			return cats
		}
	}
	return s.heuristic.Categories(mode)
}

// Status reports the backend state without triggering initialization.
func (s *Service) Status() Status {
	state := s.State()
	st := Status{
		State:               state.String(),
		AvailableCategories: []taxonomy.Category{},
	}
	if state != StateReady && state != StateReadyFallback {
		return st
	}

	st.Initialized = true
	st.LearnedModelLoaded = s.useML
	if s.initErr != nil {
		st.InitError = s.initErr.Error()
	}

	seen := make(map[taxonomy.Category]bool)
	for _, mode := range []taxonomy.Mode{taxonomy.ModeLight, taxonomy.ModeDeep} {
		for _, c := range s.Categories(mode) {
			if !seen[c] {
				seen[c] = true
				st.AvailableCategories = append(st.AvailableCategories, c)
			}
		}
	}
	return st
}
