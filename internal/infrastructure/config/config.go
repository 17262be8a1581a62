package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable read by Load.
const Prefix = "PIPECHAIN"

// ProfileEnv names the variable pointing at an optional tuning profile.
const ProfileEnv = Prefix + "_PROFILE"

// Buffer sizing policies.
const (
	PolicyGeometric = "geometric"
	PolicyUniform   = "uniform"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds all application configuration.
type Config struct {
	Logging LogConfig     `envconfig:"LOG" toml:"log" yaml:"log"`
	Buffer  BufferConfig  `envconfig:"BUFFER" toml:"buffer" yaml:"buffer"`
	Worker  WorkerConfig  `envconfig:"WORKER" toml:"worker" yaml:"worker"`
	Metrics MetricsConfig `envconfig:"METRICS" toml:"metrics" yaml:"metrics"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" toml:"level" yaml:"level"`
	Development bool   `envconfig:"DEV" toml:"dev" yaml:"dev"`
}

// BufferConfig controls the capacity of the supervisor's per-stage rings.
//
// With the geometric policy stage i of n gets Unit*Factor^(n-i+Exponent)
// bytes, clamped to Max. The uniform policy gives every stage
// Unit*Factor^Exponent, clamped to Max.
type BufferConfig struct {
	Policy   string `envconfig:"POLICY" toml:"policy" yaml:"policy"`
	Unit     int    `envconfig:"UNIT" toml:"unit" yaml:"unit"`
	Factor   int    `envconfig:"FACTOR" toml:"factor" yaml:"factor"`
	Exponent int    `envconfig:"EXPONENT" toml:"exponent" yaml:"exponent"`
	Max      int    `envconfig:"MAX" toml:"max" yaml:"max"`
}

// WorkerConfig holds per-stage relay settings.
type WorkerConfig struct {
	ChunkSize int `envconfig:"CHUNK_SIZE" toml:"chunk_size" yaml:"chunk_size"`
}

// MetricsConfig controls the metrics dump written at the end of a run.
type MetricsConfig struct {
	File string `envconfig:"FILE" toml:"file" yaml:"file"`
}

// Load builds the configuration from defaults, then the profile named by
// PIPECHAIN_PROFILE (if any), then PIPECHAIN_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ProfileEnv); path != "" {
		if err := LoadProfile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
	}

	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{
			Level:       "warn",
			Development: false,
		},
		Buffer: BufferConfig{
			Policy:   PolicyGeometric,
			Unit:     1024,
			Factor:   3,
			Exponent: 4,
			Max:      64 << 20,
		},
		Worker: WorkerConfig{
			ChunkSize: 64 << 10,
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Buffer.Policy {
	case PolicyGeometric, PolicyUniform:
	default:
		return fmt.Errorf("%w: unknown buffer policy %q", ErrInvalid, c.Buffer.Policy)
	}
	if c.Buffer.Unit <= 0 || c.Buffer.Factor <= 0 || c.Buffer.Max <= 0 {
		return fmt.Errorf("%w: buffer unit, factor and max must be positive", ErrInvalid)
	}
	if c.Buffer.Exponent < 0 {
		return fmt.Errorf("%w: buffer exponent must not be negative", ErrInvalid)
	}
	if c.Worker.ChunkSize <= 0 {
		return fmt.Errorf("%w: worker chunk size must be positive", ErrInvalid)
	}
	return nil
}
