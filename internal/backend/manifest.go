package backend

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/screenshot-prefilter/internal/taxonomy"
)

// MaxDeepCategories is the largest Deep output vector we interpret.
const MaxDeepCategories = 4

// DefaultDeepCategories is the output order assumed when a deep model entry
// omits its categories list.
var DefaultDeepCategories = []string{
	string(taxonomy.CreditCard),
	string(taxonomy.BankStatement),
	string(taxonomy.PasswordManager),
	string(taxonomy.CryptoWallet),
}

// ModelSpec describes one ONNX model file.
type ModelSpec struct {
	// File is relative to the model directory unless absolute.
	File string `yaml:"file"`

	// Input and Output name the tensors to bind. Empty means "first one".
	Input  string `yaml:"input"`
	Output string `yaml:"output"`

	// Layout forces "nchw" or "nhwc"; empty infers it from the input shape.
	Layout string `yaml:"layout"`

	// Categories pairs output positions with category keys (deep only).
	Categories []string `yaml:"categories"`
}

// Manifest lists the model used for each mode. Either entry may be absent;
// calls in a mode without a model fall back to the heuristic backend.
type Manifest struct {
	Light *ModelSpec `yaml:"light"`
	Deep  *ModelSpec `yaml:"deep"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest and fills in default deep categories.
func (m *Manifest) Validate() error {
	if m.Light == nil && m.Deep == nil {
		return errors.New("manifest declares no models")
	}
	if m.Light != nil && strings.TrimSpace(m.Light.File) == "" {
		return errors.New("manifest: light model has no file")
	}
	if m.Deep != nil {
		if strings.TrimSpace(m.Deep.File) == "" {
			return errors.New("manifest: deep model has no file")
		}
		if len(m.Deep.Categories) == 0 {
			m.Deep.Categories = append([]string(nil), DefaultDeepCategories...)
		}
		if len(m.Deep.Categories) > MaxDeepCategories {
			return fmt.Errorf("manifest: deep model lists %d categories, max %d", len(m.Deep.Categories), MaxDeepCategories)
		}
		seen := make(map[taxonomy.Category]bool)
		for _, key := range m.Deep.Categories {
			c, ok := taxonomy.CategoryForKey(key)
			if !ok {
				return fmt.Errorf("manifest: unknown deep category %q", key)
			}
			if seen[c] {
				return fmt.Errorf("manifest: duplicate deep category %q", key)
			}
			seen[c] = true
		}
	}
	for _, spec := range []*ModelSpec{m.Light, m.Deep} {
		if spec == nil {
			continue
		}
		switch strings.ToLower(spec.Layout) {
		case "", "nchw", "nhwc":
		default:
			return fmt.Errorf("manifest: unknown layout %q", spec.Layout)
		}
	}
	return nil
}

// Spec returns the model entry for mode, or nil.
func (m *Manifest) Spec(mode taxonomy.Mode) *ModelSpec {
	switch mode {
	case taxonomy.ModeLight:
		return m.Light
	case taxonomy.ModeDeep:
		return m.Deep
	default:
		return nil
	}
}
