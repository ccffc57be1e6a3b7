package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /var/lib/draftmate/data.db
api_port: 9090
log_level: debug
provider: mock
session_salt: file-salt
max_retries: 1
`), 0o644))

	t.Setenv("DRAFTMATE_SESSION_SALT", "env-salt")
	t.Setenv("DRAFTMATE_MAX_RETRIES", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/draftmate/data.db", cfg.DBPath)
	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "env-salt", cfg.SessionSalt, "environment wins over file")
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("DRAFTMATE_SESSION_SALT", "s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestValidateFailsFastWithoutSalt(t *testing.T) {
	cfg := Default()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_salt")
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"retries too high", func(c *Config) { c.MaxRetries = 6 }, "max_retries"},
		{"retries negative", func(c *Config) { c.MaxRetries = -1 }, "max_retries"},
		{"bad port", func(c *Config) { c.APIPort = 0 }, "api_port"},
		{"unknown provider", func(c *Config) { c.Provider = "openrouter" }, "provider"},
		{"tracing without endpoint", func(c *Config) { c.TracingEnabled = true }, "tracing_endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.SessionSalt = "s"
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAcceptsZeroRetries(t *testing.T) {
	cfg := Default()
	cfg.SessionSalt = "s"
	cfg.MaxRetries = 0

	assert.NoError(t, cfg.Validate())
}
