package prefilter

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/screenshot-prefilter/internal/taxonomy"
)

// Result pairs a verdict with the possibly tagged screenshot.
type Result struct {
	Verdict    taxonomy.Verdict `json:"verdict"`
	Screenshot Screenshot       `json:"screenshot"`
}

// ProgressFunc is called after each subject with its 1-based position.
type ProgressFunc func(current, total int)

// AnalyzeMany analyzes shots one at a time under a single resolved mode and
// returns results keyed by screenshot ID. Shots without an ID get a random
// one. When ctx is cancelled it stops before the next subject and returns
// the results so far with ctx's error.
func (a *Analyzer) AnalyzeMany(ctx context.Context, shots []Screenshot, mode taxonomy.Mode, onProgress ProgressFunc) (map[string]Result, error) {
	resolved := a.ResolveMode(mode)
	total := len(shots)
	results := make(map[string]Result, total)

	for i, shot := range shots {
		if err := ctx.Err(); err != nil {
			log.Printf("[Prefilter] batch cancelled after %d of %d", i, total)
			return results, err
		}
		if a.limiter != nil && resolved.Enabled() {
			if err := a.pace(ctx); err != nil {
				log.Printf("[Prefilter] batch cancelled after %d of %d", i, total)
				return results, err
			}
		}

		if shot.ID == "" {
			shot.ID = uuid.NewString()
		}
		verdict, updated := a.analyze(ctx, shot, resolved)
		results[shot.ID] = Result{Verdict: verdict, Screenshot: updated}
		if a.debug && verdict.Fingerprint != "" {
			log.Printf("[Prefilter] batch %d/%d %s fingerprint=%s allow=%t", i+1, total, shot.ID, verdict.Fingerprint, verdict.Allow)
		}

		if onProgress != nil {
			onProgress(i+1, total)
		}
	}
	return results, nil
}

// pace blocks until the limiter admits one more subject. It fails only once
// ctx is done, with ctx's error.
func (a *Analyzer) pace(ctx context.Context) error {
	res := a.limiter.Reserve()
	delay := res.Delay()
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	}
}
