package agents

import (
	"context"
	"strings"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/provider"
	"github.com/draftmate/draftmate/internal/types"
)

// Personalizer refines the draft with the user's profile and the
// continuity snapshot for the resolved recipient.
type Personalizer struct {
	provider provider.Provider
	logger   *logging.Logger
}

// NewPersonalizer creates the personalization agent.
func NewPersonalizer(p provider.Provider) *Personalizer {
	return &Personalizer{provider: p, logger: logging.GetLogger("agents.personalize")}
}

// Personalize returns the personalized draft. Strictly fail-soft: any
// completion or parse failure returns the input draft unchanged. An
// unknown user (empty profile, no continuity) skips the completion call
// entirely so nothing can be fabricated.
func (a *Personalizer) Personalize(ctx context.Context, draft types.Draft, profile types.Profile, continuity *types.Summary) types.Draft {
	if draft.IsZero() {
		return draft
	}
	if len(profile) == 0 && continuity == nil {
		a.logger.WithContext(ctx).Debug("No profile or continuity, skipping personalization")
		return draft
	}

	payload := map[string]interface{}{
		"draft":        draft,
		"user_profile": profile,
	}
	if continuity != nil {
		payload["prior_interactions"] = continuity
	}

	resp, err := a.provider.Complete(ctx, provider.Request{
		SystemPrompt: personalizeSystemPrompt,
		UserPrompt:   marshalPayload(payload),
		Temperature:  0,
	})
	if err != nil {
		a.logger.WithContext(ctx).Warn("Personalization call failed, keeping original draft: %v", err)
		noteFallback(StepPersonalize)
		return draft
	}

	var out struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := decodeJSON(resp.Content, &out); err != nil {
		a.logger.WithContext(ctx).Warn("Personalization output unparseable, keeping original draft: %v", err)
		noteFallback(StepPersonalize)
		return draft
	}
	if strings.TrimSpace(out.Body) == "" {
		return draft
	}

	subject := strings.TrimSpace(out.Subject)
	if subject == "" {
		subject = draft.Subject
	}
	return types.Draft{Subject: subject, Body: strings.TrimSpace(out.Body)}
}
