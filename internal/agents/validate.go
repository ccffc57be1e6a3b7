package agents

import (
	"context"
	"strings"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/provider"
	"github.com/draftmate/draftmate/internal/types"
)

// Validator reviews the personalized draft and produces the three-way
// validation report that drives the engine's terminal transitions.
type Validator struct {
	provider provider.Provider
	logger   *logging.Logger
}

// NewValidator creates the review validator agent.
func NewValidator(p provider.Provider) *Validator {
	return &Validator{provider: p, logger: logging.GetLogger("agents.validate")}
}

// ValidateInput carries the material under review.
type ValidateInput struct {
	Draft       types.Draft
	Intent      types.Intent
	Tone        types.Tone
	Constraints types.Constraints
}

// Validate reviews the draft. Fallback on completion or parse failure:
// PASS with a summary marking the review as degraded. An unreachable
// validator must not burn the retry budget or block delivery, and the
// caller can still see the review never happened.
func (a *Validator) Validate(ctx context.Context, in ValidateInput) *types.ValidationReport {
	payload := map[string]interface{}{
		"draft":       in.Draft,
		"intent":      string(in.Intent),
		"tone":        string(in.Tone),
		"constraints": in.Constraints,
	}

	resp, err := a.provider.Complete(ctx, provider.Request{
		SystemPrompt: validatorSystemPrompt,
		UserPrompt:   marshalPayload(payload),
		Temperature:  0,
	})
	if err != nil {
		a.logger.WithContext(ctx).Warn("Validation call failed, accepting draft unreviewed: %v", err)
		return degradedReport()
	}

	var out struct {
		Status               string   `json:"status"`
		Summary              string   `json:"summary"`
		RevisionInstructions []string `json:"revision_instructions"`
		PolicyReason         string   `json:"policy_reason"`
		ConstraintResolution *struct {
			DropMustInclude   []string `json:"drop_must_include"`
			AddMustAvoid      []string `json:"add_must_avoid"`
			OverrideToneLabel string   `json:"override_tone_label"`
		} `json:"constraint_resolution"`
	}
	if err := decodeJSON(resp.Content, &out); err != nil {
		a.logger.WithContext(ctx).Warn("Validation output unparseable, accepting draft unreviewed: %v", err)
		return degradedReport()
	}

	report := &types.ValidationReport{
		Summary:              strings.TrimSpace(out.Summary),
		RevisionInstructions: out.RevisionInstructions,
		PolicyReason:         strings.TrimSpace(out.PolicyReason),
	}

	switch strings.ToUpper(strings.TrimSpace(out.Status)) {
	case string(types.StatusPass):
		report.Status = types.StatusPass
	case string(types.StatusFail):
		report.Status = types.StatusFail
		// A FAIL without instructions gives the writer nothing to fix.
		if len(report.RevisionInstructions) == 0 {
			report.RevisionInstructions = []string{"Revise the draft to address: " + report.Summary}
		}
	case string(types.StatusBlocked):
		report.Status = types.StatusBlocked
		if report.PolicyReason == "" {
			report.PolicyReason = report.Summary
		}
	default:
		a.logger.WithContext(ctx).Warn("Validation status %q unrecognized, accepting draft unreviewed", out.Status)
		return degradedReport()
	}

	if report.Status == types.StatusFail && out.ConstraintResolution != nil {
		report.ConstraintResolution = &types.ConstraintResolution{
			DropMustInclude:   out.ConstraintResolution.DropMustInclude,
			AddMustAvoid:      out.ConstraintResolution.AddMustAvoid,
			OverrideToneLabel: out.ConstraintResolution.OverrideToneLabel,
		}
	}
	return report
}

func degradedReport() *types.ValidationReport {
	noteFallback(StepValidate)
	return &types.ValidationReport{
		Status:  types.StatusPass,
		Summary: "validator unavailable; draft accepted without review",
	}
}
