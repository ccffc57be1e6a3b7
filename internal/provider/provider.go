// Package provider implements completion-service abstractions for the
// draftmate step agents. Every step's text-completion call goes through
// the Provider interface; agents treat the returned text as untrusted
// and own translating provider failures into their local fallbacks.
package provider

import (
	"context"
)

// Request is a single completion request. Each step agent sends one
// system prompt plus one user payload; no multi-turn tool use.
type Request struct {
	// SystemPrompt is the step's instruction block.
	SystemPrompt string

	// UserPrompt is the step's JSON payload or user text.
	UserPrompt string

	// MaxTokens overrides the provider default when > 0.
	MaxTokens int

	// Temperature overrides the provider default when >= 0.
	// Use a negative value to keep the provider default.
	Temperature float64
}

// Usage contains token usage information.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the completion result.
type Response struct {
	// Content is the raw text returned by the model.
	Content string

	// Usage contains token accounting when the provider reports it.
	Usage Usage
}

// Provider defines the interface for completion providers.
type Provider interface {
	// Complete sends one request and returns the complete response.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name for logging and display.
	Name() string

	// Model returns the model identifier being used.
	Model() string
}

// Config contains common configuration for providers.
type Config struct {
	// Model is the model identifier (e.g., "claude-sonnet-4-5-20250929").
	Model string

	// MaxTokens is the default maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness. Drafting steps run warmer than
	// classification steps; the default favors determinism.
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   2048,
		Temperature: 0.2,
	}
}
