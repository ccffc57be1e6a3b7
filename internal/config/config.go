// Package config holds application configuration, loaded from an
// optional YAML file with DRAFTMATE_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration for the application.
type Config struct {
	// DBPath is the sqlite database file; empty means in-memory stores.
	DBPath string `koanf:"db_path"`

	// APIPort is the port the API server listens on.
	APIPort int `koanf:"api_port"`

	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`

	// Provider selects the completion backend: anthropic, gemini, mock.
	Provider string `koanf:"provider"`

	// Model overrides the provider's default model name.
	Model string `koanf:"model"`

	// MaxRetries bounds FAIL-triggered redraft passes per turn.
	MaxRetries int `koanf:"max_retries"`

	// SessionSalt is the shared secret for session id derivation.
	// Required; validated at startup, never defaulted.
	SessionSalt string `koanf:"session_salt"`

	// TemplatesPath is an optional template YAML file, hot-reloaded in
	// serve mode.
	TemplatesPath string `koanf:"templates_path"`

	// TracingEnabled indicates whether OpenTelemetry tracing is enabled.
	TracingEnabled bool `koanf:"tracing_enabled"`

	// TracingEndpoint is the OTLP gRPC endpoint for trace export.
	TracingEndpoint string `koanf:"tracing_endpoint"`
}

// Default returns the configuration defaults applied before file and
// environment loading.
func Default() *Config {
	return &Config{
		APIPort:    8080,
		LogLevel:   "info",
		Provider:   "anthropic",
		MaxRetries: 2,
	}
}

// Load reads configuration from path (optional, may be "") and applies
// DRAFTMATE_* environment variables on top. DRAFTMATE_SESSION_SALT is
// the usual way to supply the salt.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := Default()
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("DRAFTMATE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DRAFTMATE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable. The session salt is
// required here, at startup, rather than lazily defaulted at first use.
func (c *Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return NewConfigError("api_port must be between 1 and 65535")
	}
	if c.MaxRetries < 0 || c.MaxRetries > 5 {
		return NewConfigError("max_retries must be between 0 and 5")
	}
	if c.SessionSalt == "" {
		return NewConfigError("session_salt is required (set DRAFTMATE_SESSION_SALT)")
	}
	switch c.Provider {
	case "anthropic", "gemini", "mock":
	default:
		return NewConfigError(fmt.Sprintf("provider %q is not one of anthropic, gemini, mock", c.Provider))
	}
	if c.TracingEnabled && c.TracingEndpoint == "" {
		return NewConfigError("tracing_endpoint must be set when tracing is enabled")
	}
	if c.TemplatesPath != "" {
		if _, err := os.Stat(c.TemplatesPath); err != nil {
			return NewConfigError(fmt.Sprintf("templates_path %q is not readable: %v", c.TemplatesPath, err))
		}
	}
	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	return e.message
}
