package agents

import (
	"context"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/provider"
	"github.com/draftmate/draftmate/internal/types"
)

// ToneStylist selects a tone from the closed tone taxonomy. Like the
// intent detector, it never runs when the tone is ui-sourced.
type ToneStylist struct {
	provider provider.Provider
	logger   *logging.Logger
}

// NewToneStylist creates the tone stylist agent.
func NewToneStylist(p provider.Provider) *ToneStylist {
	return &ToneStylist{provider: p, logger: logging.GetLogger("agents.tone")}
}

// Style selects a tone for the request. Fallback on completion failure,
// unparseable output, or an out-of-taxonomy label: neutral.
func (a *ToneStylist) Style(ctx context.Context, parsed *types.ParsedInput, intent types.Intent, continuity *types.Summary) types.ToneResult {
	fallback := types.ToneResult{Label: types.ToneNeutral, Source: types.SourceModel}

	payload := map[string]interface{}{
		"primary_request": parsed.PrimaryRequest,
		"intent":          string(intent),
	}
	if parsed.RelationshipHint != "" {
		payload["relationship_hint"] = parsed.RelationshipHint
	}
	if continuity != nil {
		payload["prior_relationship"] = continuity.Relationship
		payload["prior_tone"] = continuity.LastTone
	}

	resp, err := a.provider.Complete(ctx, provider.Request{
		SystemPrompt: toneSystemPrompt,
		UserPrompt:   marshalPayload(payload),
		Temperature:  0,
	})
	if err != nil {
		a.logger.WithContext(ctx).Warn("Tone styling call failed, falling back to neutral: %v", err)
		noteFallback(StepTone)
		return fallback
	}

	var out struct {
		Label string `json:"label"`
	}
	if err := decodeJSON(resp.Content, &out); err != nil {
		a.logger.WithContext(ctx).Warn("Tone styling output unparseable, falling back to neutral: %v", err)
		noteFallback(StepTone)
		return fallback
	}

	label, ok := types.ParseTone(out.Label)
	if !ok {
		a.logger.WithContext(ctx).Warn("Tone label %q outside taxonomy, falling back to neutral", out.Label)
		noteFallback(StepTone)
		return fallback
	}
	return types.ToneResult{Label: label, Source: types.SourceModel}
}
