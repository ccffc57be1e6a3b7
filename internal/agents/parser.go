package agents

import (
	"context"
	"strings"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/provider"
	"github.com/draftmate/draftmate/internal/types"
)

// Parser extracts the structured request from raw user text.
type Parser struct {
	provider provider.Provider
	logger   *logging.Logger
}

// NewParser creates the input parsing agent.
func NewParser(p provider.Provider) *Parser {
	return &Parser{provider: p, logger: logging.GetLogger("agents.parser")}
}

// Parse runs the extraction. Fallback on any completion or parse
// failure: treat the raw text itself as the primary request with no
// clarification, so the chain continues in a degraded state.
func (a *Parser) Parse(ctx context.Context, rawInput string, metadata map[string]string) *types.ParsedInput {
	payload := map[string]interface{}{"user_text": rawInput}
	if len(metadata) > 0 {
		payload["metadata"] = metadata
	}

	resp, err := a.provider.Complete(ctx, provider.Request{
		SystemPrompt: parserSystemPrompt,
		UserPrompt:   marshalPayload(payload),
		Temperature:  0,
	})
	if err != nil {
		a.logger.WithContext(ctx).Warn("Input parsing call failed, using raw text: %v", err)
		return fallbackParsed(rawInput)
	}

	var parsed types.ParsedInput
	if err := decodeJSON(resp.Content, &parsed); err != nil {
		a.logger.WithContext(ctx).Warn("Input parsing output unparseable, using raw text: %v", err)
		return fallbackParsed(rawInput)
	}

	if parsed.PrimaryRequest == "" {
		parsed.PrimaryRequest = strings.TrimSpace(rawInput)
	}
	// Clarification without questions is unusable for the caller; treat
	// it as parseable input instead.
	if parsed.RequiresClarification && len(parsed.ClarificationQuestions) == 0 {
		a.logger.WithContext(ctx).Warn("Parser requested clarification without questions, continuing")
		parsed.RequiresClarification = false
	}
	return &parsed
}

func fallbackParsed(rawInput string) *types.ParsedInput {
	noteFallback(StepParse)
	return &types.ParsedInput{
		PrimaryRequest:        strings.TrimSpace(rawInput),
		RequiresClarification: false,
	}
}
