package agents

import (
	"context"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/provider"
	"github.com/draftmate/draftmate/internal/types"
)

// Confidence assigned when classification degrades to the fallback label.
const fallbackConfidence = 0.2

// IntentDetector classifies the request into the closed intent taxonomy.
// The engine short-circuits this agent entirely when a UI override is
// present; by the time Detect runs the intent is always model-sourced.
type IntentDetector struct {
	provider provider.Provider
	logger   *logging.Logger
}

// NewIntentDetector creates the intent detection agent.
func NewIntentDetector(p provider.Provider) *IntentDetector {
	return &IntentDetector{provider: p, logger: logging.GetLogger("agents.intent")}
}

// Detect classifies the parsed request. Fallback on completion failure,
// unparseable output, or an out-of-taxonomy label: "other" with low
// confidence.
func (a *IntentDetector) Detect(ctx context.Context, parsed *types.ParsedInput) types.IntentResult {
	fallback := types.IntentResult{
		Label:      types.IntentOther,
		Confidence: fallbackConfidence,
		Source:     types.SourceModel,
	}

	payload := map[string]interface{}{
		"primary_request": parsed.PrimaryRequest,
		"key_points":      parsed.KeyPoints,
	}
	if parsed.SubjectHint != "" {
		payload["subject_hint"] = parsed.SubjectHint
	}

	resp, err := a.provider.Complete(ctx, provider.Request{
		SystemPrompt: intentSystemPrompt,
		UserPrompt:   marshalPayload(payload),
		Temperature:  0,
	})
	if err != nil {
		a.logger.WithContext(ctx).Warn("Intent detection call failed, falling back to other: %v", err)
		noteFallback(StepIntent)
		return fallback
	}

	var out struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := decodeJSON(resp.Content, &out); err != nil {
		a.logger.WithContext(ctx).Warn("Intent detection output unparseable, falling back to other: %v", err)
		noteFallback(StepIntent)
		return fallback
	}

	label, ok := types.ParseIntent(out.Label)
	if !ok {
		a.logger.WithContext(ctx).Warn("Intent label %q outside taxonomy, falling back to other", out.Label)
		noteFallback(StepIntent)
		return fallback
	}

	confidence := out.Confidence
	if confidence < 0 || confidence > 1 {
		confidence = fallbackConfidence
	}
	return types.IntentResult{Label: label, Confidence: confidence, Source: types.SourceModel}
}
