package agents

import (
	"context"
	"strings"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/provider"
	"github.com/draftmate/draftmate/internal/template"
	"github.com/draftmate/draftmate/internal/types"
)

// DraftWriter produces the email draft from the deterministic plan.
// It is the only agent invoked more than once per turn: the engine
// re-enters it on the bounded FAIL retry edge with the prior draft and
// the validator's revision instructions.
type DraftWriter struct {
	provider provider.Provider
	engine   *template.Engine
	logger   *logging.Logger
}

// NewDraftWriter creates the draft writer agent.
func NewDraftWriter(p provider.Provider, engine *template.Engine) *DraftWriter {
	return &DraftWriter{
		provider: p,
		engine:   engine,
		logger:   logging.GetLogger("agents.draft"),
	}
}

// WriteInput carries everything a drafting pass depends on.
type WriteInput struct {
	Parsed      *types.ParsedInput
	Intent      types.Intent
	Tone        types.Tone
	Constraints types.Constraints
	Recipient   types.Recipient
	Continuity  *types.Summary

	// Revision pass only.
	PriorDraft           types.Draft
	RevisionInstructions []string
}

// Write produces a draft. Drafting is slightly creative; a fixed 0.7
// temperature matches the original's creative model route. Fallback on
// completion or parse failure: the plan's rendered skeleton becomes the
// draft, visibly degraded but structurally complete.
func (a *DraftWriter) Write(ctx context.Context, in WriteInput) types.Draft {
	plan := a.engine.BuildPlan(ctx, template.PlanInput{
		Intent:      in.Intent,
		Tone:        in.Tone,
		Constraints: in.Constraints,
		Parsed:      in.Parsed,
		Recipient:   in.Recipient,
	})

	a.logger.WithContext(ctx).DebugWithFields("Built drafting plan",
		logging.Field("template_id", plan.TemplateID),
		logging.Field("tone", string(plan.Tone)),
		logging.Field("length_hint", plan.LengthHint),
		logging.Field("max_words", plan.LengthBudget.MaxWords),
	)

	payload := map[string]interface{}{
		"parsed_input": in.Parsed,
		"intent":       string(in.Intent),
		"tone":         string(in.Tone),
		"constraints":  in.Constraints,
		"plan": map[string]interface{}{
			"template_id":   plan.TemplateID,
			"length_hint":   plan.LengthHint,
			"length_budget": plan.LengthBudget,
			"format":        plan.Format,
		},
		"rendered_skeleton": plan.RenderedSkeleton,
	}
	if in.Continuity != nil {
		payload["prior_interactions"] = in.Continuity
	}
	if len(in.RevisionInstructions) > 0 {
		payload["prior_draft"] = in.PriorDraft
		payload["revision_instructions"] = in.RevisionInstructions
	}

	resp, err := a.provider.Complete(ctx, provider.Request{
		SystemPrompt: draftSystemPrompt,
		UserPrompt:   marshalPayload(payload),
		Temperature:  0.7,
	})
	if err != nil {
		a.logger.WithContext(ctx).Warn("Draft writing call failed, using rendered skeleton: %v", err)
		return skeletonDraft(plan)
	}

	var out struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := decodeJSON(resp.Content, &out); err != nil {
		a.logger.WithContext(ctx).Warn("Draft output unparseable, using rendered skeleton: %v", err)
		return skeletonDraft(plan)
	}
	if strings.TrimSpace(out.Body) == "" {
		a.logger.WithContext(ctx).Warn("Draft output has empty body, using rendered skeleton")
		return skeletonDraft(plan)
	}

	subject := strings.TrimSpace(out.Subject)
	if subject == "" {
		subject = plan.Placeholders["subject"]
	}
	return types.Draft{Subject: subject, Body: strings.TrimSpace(out.Body)}
}

// skeletonDraft converts the rendered skeleton into a usable draft.
// The skeleton's own "Subject:" line moves into the subject field.
func skeletonDraft(plan template.Plan) types.Draft {
	noteFallback(StepDraft)
	body := plan.RenderedSkeleton
	subject := plan.Placeholders["subject"]

	lines := strings.SplitN(body, "\n", 2)
	if len(lines) == 2 && strings.HasPrefix(lines[0], "Subject:") {
		subject = strings.TrimSpace(strings.TrimPrefix(lines[0], "Subject:"))
		body = lines[1]
	}
	return types.Draft{Subject: subject, Body: strings.TrimSpace(body)}
}
