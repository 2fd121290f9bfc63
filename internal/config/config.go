// Package config loads the prefilter server configuration.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds prefilter configuration.
type Config struct {
	Preferences PreferencesConfig `yaml:"preferences"`
	Model       ModelConfig       `yaml:"model"`
	Images      ImagesConfig      `yaml:"images"`
	Batch       BatchConfig       `yaml:"batch"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type PreferencesConfig struct {
	Path string `yaml:"path"` // YAML file holding the persisted mode
}

type ModelConfig struct {
	Dir           string `yaml:"dir"`            // directory holding the manifest and .onnx files
	Manifest      string `yaml:"manifest"`       // relative to Dir unless absolute
	SharedLibrary string `yaml:"shared_library"` // onnxruntime library; empty probes common locations
}

type ImagesConfig struct {
	MaxBytes  int64 `yaml:"max_bytes"`
	MaxPixels int   `yaml:"max_pixels"`
}

type BatchConfig struct {
	MaxPerSecond float64 `yaml:"max_per_second"` // 0 = unpaced
}

type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

const (
	DefaultPreferencesPath = "~/.screenshot-prefilter/preferences.yaml"
	DefaultModelDir        = "./models"
	DefaultManifest        = "manifest.yaml"
	DefaultMaxBytes        = 50 * 1024 * 1024
	DefaultMaxPixels       = 100_000_000
)

// Load reads configuration from a YAML file and applies environment
// overrides. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			cfg = &Config{}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	cfg.Preferences.Path = expandHome(cfg.Preferences.Path)
	cfg.Model.Dir = expandHome(cfg.Model.Dir)

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Preferences: PreferencesConfig{Path: DefaultPreferencesPath},
		Model: ModelConfig{
			Dir:      DefaultModelDir,
			Manifest: DefaultManifest,
		},
		Images: ImagesConfig{
			MaxBytes:  DefaultMaxBytes,
			MaxPixels: DefaultMaxPixels,
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Preferences.Path == "" {
		cfg.Preferences.Path = DefaultPreferencesPath
	}
	if cfg.Model.Dir == "" {
		cfg.Model.Dir = DefaultModelDir
	}
	if cfg.Model.Manifest == "" {
		cfg.Model.Manifest = DefaultManifest
	}
	if cfg.Images.MaxBytes <= 0 {
		cfg.Images.MaxBytes = DefaultMaxBytes
	}
	if cfg.Images.MaxPixels <= 0 {
		cfg.Images.MaxPixels = DefaultMaxPixels
	}
	if cfg.Batch.MaxPerSecond < 0 {
		cfg.Batch.MaxPerSecond = 0
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("PREFILTER_MODEL_DIR")); v != "" {
		cfg.Model.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("PREFILTER_PREFERENCES_PATH")); v != "" {
		cfg.Preferences.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); v != "" {
		cfg.Model.SharedLibrary = v
	}
	if v := strings.TrimSpace(os.Getenv("PREFILTER_LOG_LEVEL")); v != "" {
		cfg.Logging.Debug = strings.EqualFold(v, "debug")
	}
	if v := strings.TrimSpace(os.Getenv("PREFILTER_BATCH_RATE")); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Batch.MaxPerSecond = rate
		}
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
