package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Logging config
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Buffer config
	assert.Equal(t, PolicyGeometric, cfg.Buffer.Policy)
	assert.Equal(t, 1024, cfg.Buffer.Unit)
	assert.Equal(t, 3, cfg.Buffer.Factor)
	assert.Equal(t, 4, cfg.Buffer.Exponent)
	assert.Equal(t, 64<<20, cfg.Buffer.Max)

	// Worker config
	assert.Equal(t, 64<<10, cfg.Worker.ChunkSize)

	// Metrics config
	assert.Empty(t, cfg.Metrics.File)

	assert.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, PolicyGeometric, cfg.Buffer.Policy)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PIPECHAIN_LOG_LEVEL":         "debug",
		"PIPECHAIN_LOG_DEV":           "true",
		"PIPECHAIN_BUFFER_POLICY":     "uniform",
		"PIPECHAIN_BUFFER_UNIT":       "4096",
		"PIPECHAIN_BUFFER_FACTOR":     "2",
		"PIPECHAIN_BUFFER_EXPONENT":   "3",
		"PIPECHAIN_BUFFER_MAX":        "1048576",
		"PIPECHAIN_WORKER_CHUNK_SIZE": "512",
		"PIPECHAIN_METRICS_FILE":      "/tmp/pipechain.prom",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, PolicyUniform, cfg.Buffer.Policy)
	assert.Equal(t, 4096, cfg.Buffer.Unit)
	assert.Equal(t, 2, cfg.Buffer.Factor)
	assert.Equal(t, 3, cfg.Buffer.Exponent)
	assert.Equal(t, 1048576, cfg.Buffer.Max)
	assert.Equal(t, 512, cfg.Worker.ChunkSize)
	assert.Equal(t, "/tmp/pipechain.prom", cfg.Metrics.File)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("PIPECHAIN_WORKER_CHUNK_SIZE", "100")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, 100, cfg.Worker.ChunkSize)

	// Verify default values still apply
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 1024, cfg.Buffer.Unit)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown policy", key: "PIPECHAIN_BUFFER_POLICY", value: "fibonacci"},
		{name: "zero unit", key: "PIPECHAIN_BUFFER_UNIT", value: "0"},
		{name: "negative exponent", key: "PIPECHAIN_BUFFER_EXPONENT", value: "-1"},
		{name: "zero chunk", key: "PIPECHAIN_WORKER_CHUNK_SIZE", value: "0"},
		{name: "not a number", key: "PIPECHAIN_BUFFER_MAX", value: "lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)

			// LoadOrDefault falls back instead of failing.
			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}

func TestLoadProfileLayering(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "profile.toml",
			content: `
[buffer]
policy = "uniform"
unit = 2048

[worker]
chunk_size = 4096
`,
		},
		{
			name: "yaml",
			file: "profile.yaml",
			content: `
buffer:
  policy: uniform
  unit: 2048
worker:
  chunk_size: 4096
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			t.Setenv(ProfileEnv, path)
			// Environment wins over the profile.
			t.Setenv("PIPECHAIN_WORKER_CHUNK_SIZE", "8192")

			cfg, err := Load()
			require.NoError(t, err)

			assert.Equal(t, PolicyUniform, cfg.Buffer.Policy)
			assert.Equal(t, 2048, cfg.Buffer.Unit)
			assert.Equal(t, 3, cfg.Buffer.Factor, "keys absent from the profile keep defaults")
			assert.Equal(t, 8192, cfg.Worker.ChunkSize)
		})
	}
}

func TestLoadProfileErrors(t *testing.T) {
	dir := t.TempDir()

	unsupported := filepath.Join(dir, "profile.ini")
	require.NoError(t, os.WriteFile(unsupported, []byte("x=1"), 0o600))
	assert.ErrorIs(t, LoadProfile(unsupported, Default()), ErrInvalid)

	broken := filepath.Join(dir, "profile.toml")
	require.NoError(t, os.WriteFile(broken, []byte("[buffer\n"), 0o600))
	assert.Error(t, LoadProfile(broken, Default()))

	assert.Error(t, LoadProfile(filepath.Join(dir, "missing.yaml"), Default()))

	t.Setenv(ProfileEnv, filepath.Join(dir, "missing.toml"))
	_, err := Load()
	assert.Error(t, err)
}
