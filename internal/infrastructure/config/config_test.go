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

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, 1024, cfg.Server.MaxConns)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)

	assert.Equal(t, 1024, cfg.Kernel.PipeCapacity)
	assert.Equal(t, 1024, cfg.Kernel.MaxFDs)
	assert.Equal(t, 1024, cfg.Kernel.MaxEvents)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Empty(t, cfg.Logging.Outputs)
	assert.False(t, cfg.Logging.Sampling)

	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	require.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":               "9000",
		"HOST":               "127.0.0.1",
		"MAX_CONNS":          "0",
		"CORS_ORIGINS":       "http://a.local,http://b.local",
		"LOG_OUTPUTS":        "stderr,/tmp/ipcd.log",
		"LOG_SAMPLING":       "true",
		"IPC_PIPE_CAPACITY":  "4096",
		"IPC_MAX_FDS":        "64",
		"IPC_MAX_EVENTS":     "32",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"RATE_LIMIT_RPS":     "500",
		"RATE_LIMIT_BURST":   "1000",
		"RATE_LIMIT_ENABLED": "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 0, cfg.Server.MaxConns)
	assert.Equal(t, 4096, cfg.Kernel.PipeCapacity)
	assert.Equal(t, 64, cfg.Kernel.MaxFDs)
	assert.Equal(t, 32, cfg.Kernel.MaxEvents)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"stderr", "/tmp/ipcd.log"}, cfg.Logging.Outputs)
	assert.True(t, cfg.Logging.Sampling)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 1024, cfg.Kernel.PipeCapacity)
}

func TestLoadRejectsInvalidKernelSizes(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "pipe capacity", key: "IPC_PIPE_CAPACITY"},
		{name: "descriptor limit", key: "IPC_MAX_FDS"},
		{name: "max events", key: "IPC_MAX_EVENTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, "0")
			_, err := Load()
			assert.Error(t, err)

			cfg := LoadOrDefault()
			assert.Equal(t, 1024, cfg.Kernel.PipeCapacity)
		})
	}
}

func TestLoadRejectsNegativeConnectionLimit(t *testing.T) {
	t.Setenv("MAX_CONNS", "-1")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadBadEnvironmentValue(t *testing.T) {
	t.Setenv("IPC_MAX_FDS", "lots")
	_, err := Load()
	assert.Error(t, err)
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWithFile(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "yaml",
			file: "ipcd.yaml",
			body: "server:\n  port: \"7000\"\nkernel:\n  pipe_capacity: 256\nlogging:\n  level: debug\n",
		},
		{
			name: "toml",
			file: "ipcd.toml",
			body: "[server]\nport = \"7000\"\n\n[kernel]\npipe_capacity = 256\n\n[logging]\nlevel = \"debug\"\n",
		},
		{
			name: "json",
			file: "ipcd.json",
			body: `{"server":{"port":"7000"},"kernel":{"pipe_capacity":256},"logging":{"level":"debug"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithFile(writeFile(t, tt.file, tt.body))
			require.NoError(t, err)

			assert.Equal(t, "7000", cfg.Server.Port)
			assert.Equal(t, 256, cfg.Kernel.PipeCapacity)
			assert.Equal(t, "debug", cfg.Logging.Level)

			// untouched by the file
			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 1024, cfg.Kernel.MaxFDs)
		})
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "ipcd.yaml", "server:\n  port: \"7000\"\n  host: 10.0.0.1\n")
	t.Setenv(FileEnv, path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
}

func TestLoadWithFileErrors(t *testing.T) {
	_, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadWithFile(writeFile(t, "ipcd.ini", "port=1"))
	assert.ErrorContains(t, err, "unsupported")

	_, err = LoadWithFile(writeFile(t, "ipcd.json", "{"))
	assert.Error(t, err)
}
