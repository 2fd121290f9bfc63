package taxonomy

// Score is one raw backend confidence keyed by an internal category key.
type Score struct {
	Key        string  `json:"key"`
	Confidence float64 `json:"confidence"`
}

// RawScores is an insertion-ordered key -> confidence mapping produced by a
// backend. Keys are unique; setting an existing key replaces its value in
// place. The zero value is empty and ready to use.
type RawScores struct {
	scores []Score
}

// Set records a confidence for key, clamping it into [0, 1].
func (r *RawScores) Set(key string, confidence float64) {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	for i := range r.scores {
		if r.scores[i].Key == key {
			r.scores[i].Confidence = confidence
			return
		}
	}
	r.scores = append(r.scores, Score{Key: key, Confidence: confidence})
}

// Get returns the confidence recorded for key.
func (r RawScores) Get(key string) (float64, bool) {
	for _, s := range r.scores {
		if s.Key == key {
			return s.Confidence, true
		}
	}
	return 0, false
}

// Len returns the number of recorded keys.
func (r RawScores) Len() int {
	return len(r.scores)
}

// Scores returns a copy of the entries in insertion order.
func (r RawScores) Scores() []Score {
	out := make([]Score, len(r.scores))
	copy(out, r.scores)
	return out
}

// Verdict is the allow/block decision with its supporting evidence.
type Verdict struct {
	// Allow is true when the image may be sent to the external service.
	Allow bool `json:"allow"`

	// Categories lists detected categories in score order, without duplicates.
	Categories []Category `json:"categories"`

	// Confidence is the highest score among Categories, or 0.
	Confidence float64 `json:"confidence"`

	// ExtractedText is reserved for the OCR collaborator and never set here.
	ExtractedText *string `json:"extracted_text,omitempty"`

	// Backend names the variant that produced the scores ("learned" or
	// "heuristic"). Empty when no backend ran.
	Backend string `json:"backend,omitempty"`

	// Fingerprint is a perceptual hash of the analyzed image, when available.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Allowed returns the safe verdict: allowed, no categories, zero confidence.
func Allowed() Verdict {
	return Verdict{Allow: true, Categories: []Category{}}
}

// BuildVerdict maps raw scores onto the taxonomy. Unknown keys and
// categories not eligible under mode are dropped; the remaining categories
// decide the outcome, so Allow always equals len(Categories) == 0.
func BuildVerdict(scores RawScores, mode Mode) Verdict {
	v := Allowed()
	seen := make(map[Category]bool, scores.Len())
	for _, s := range scores.scores {
		c, ok := CategoryForKey(s.Key)
		if !ok || !c.Eligible(mode) {
			continue
		}
		if s.Confidence > v.Confidence {
			v.Confidence = s.Confidence
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		v.Categories = append(v.Categories, c)
	}
	v.Allow = len(v.Categories) == 0
	return v
}

// Blocked reports whether the verdict prevents transmission.
func (v Verdict) Blocked() bool {
	return !v.Allow
}

// HasCategory reports whether c is among the detected categories.
func (v Verdict) HasCategory(c Category) bool {
	for _, got := range v.Categories {
		if got == c {
			return true
		}
	}
	return false
}
