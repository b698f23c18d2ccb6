package logmerge

import (
	"fmt"
	"os"

	"github.com/creastat/logmerge/core"
	"gopkg.in/yaml.v3"
)

// Config holds merge configuration
type Config struct {
	// SkipPolicy decides what a source's turn does after a skipped entry or failed fetch
	SkipPolicy core.SkipPolicy `yaml:"skip_policy"`

	// Retry bounds SkipPolicyRetry; ignored under SkipPolicyDrop
	Retry core.RetryConfig `yaml:"retry"`

	// PrimeConcurrency caps in-flight first fetches in concurrent mode; the rest
	// wait in registration order. Zero puts all first fetches in flight at once.
	PrimeConcurrency int `yaml:"prime_concurrency"`

	// LogLevel is used when no logger is supplied to the Builder
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration matching the classic merge:
// no retries, all sources primed at once
func DefaultConfig() Config {
	return Config{
		SkipPolicy:       core.SkipPolicyDrop,
		Retry:            core.DefaultRetryConfig(),
		PrimeConcurrency: 0,
		LogLevel:         "info",
	}
}

// Validate reports the first invalid field, if any
func (c Config) Validate() error {
	return validateConfig(c)
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}
