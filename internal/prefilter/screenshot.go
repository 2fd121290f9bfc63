package prefilter

import (
	"slices"

	"github.com/google/uuid"
)

// Marker tags added to a screenshot when analysis blocks it.
const (
	TagSensitive      = "sensitive"
	TagPrivacyBlocked = "privacy-blocked"
)

// Screenshot is the subject of analysis. Values are treated as immutable:
// the analyzer returns updated copies and never writes through a caller's
// slices.
type Screenshot struct {
	ID   string   `json:"id"`
	Data []byte   `json:"-"`
	Path string   `json:"path,omitempty"`
	Tags []string `json:"tags"`
}

// NewScreenshot returns a screenshot with a fresh random ID.
func NewScreenshot(data []byte, path string) Screenshot {
	return Screenshot{ID: uuid.NewString(), Data: data, Path: path, Tags: []string{}}
}

// HasTag reports whether tag is present.
func (s Screenshot) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}

// WithTags returns a copy of s with each tag added once. Existing tags keep
// their order; s itself is not modified.
func (s Screenshot) WithTags(tags ...string) Screenshot {
	out := s
	out.Tags = make([]string, 0, len(s.Tags)+len(tags))
	out.Tags = append(out.Tags, s.Tags...)
	for _, tag := range tags {
		if !slices.Contains(out.Tags, tag) {
			out.Tags = append(out.Tags, tag)
		}
	}
	return out
}
