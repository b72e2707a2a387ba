package callz

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// defaultMaxCalls bounds the flat ledger when no limit is configured.
const defaultMaxCalls = 1000

// Config controls tracer recording behavior. Validate before use; the
// constructors do this for you.
type Config struct {
	// Threshold is the minimum duration a call must reach to be recorded.
	// Shorter calls still execute, they just are not stored.
	Threshold time.Duration
	// MaxCalls bounds the flat ledger. When full, the oldest entry is
	// evicted first.
	MaxCalls int
	// AutoOutput emits one log line per recorded call.
	AutoOutput bool
	// TrackHierarchy forwards start/end notifications to the call tree.
	// Only consulted by EnhancedTracer.
	TrackHierarchy bool
}

// DefaultConfig returns the defaults applied to fields left unset in a
// config file.
func DefaultConfig() Config {
	return Config{
		Threshold:      0,
		MaxCalls:       defaultMaxCalls,
		AutoOutput:     false,
		TrackHierarchy: true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxCalls <= 0 {
		return errors.Errorf("max_calls must be positive, got %d", c.MaxCalls)
	}
	if c.Threshold < 0 {
		return errors.Errorf("threshold must not be negative, got %s", c.Threshold)
	}
	return nil
}

// fileConfig is the YAML shape. Durations are written as strings accepted
// by time.ParseDuration ("10ms", "1.5s"). Pointers distinguish unset fields
// from zero values.
type fileConfig struct {
	Threshold      *string `yaml:"threshold"`
	MaxCalls       *int    `yaml:"max_calls"`
	AutoOutput     *bool   `yaml:"auto_output"`
	TrackHierarchy *bool   `yaml:"track_hierarchy"`
}

// LoadConfig reads a tracer configuration from a YAML file. Missing fields
// keep their defaults; the result is validated before it is returned.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}

	cfg := DefaultConfig()
	if fc.Threshold != nil {
		d, err := time.ParseDuration(*fc.Threshold)
		if err != nil {
			return Config{}, errors.Wrapf(err, "parse threshold %q", *fc.Threshold)
		}
		cfg.Threshold = d
	}
	if fc.MaxCalls != nil {
		cfg.MaxCalls = *fc.MaxCalls
	}
	if fc.AutoOutput != nil {
		cfg.AutoOutput = *fc.AutoOutput
	}
	if fc.TrackHierarchy != nil {
		cfg.TrackHierarchy = *fc.TrackHierarchy
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
