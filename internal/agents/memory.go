package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/provider"
	"github.com/draftmate/draftmate/internal/types"
)

// Memorizer merges the finished turn into the rolling continuity
// summary for the (user, recipient) pair. The engine invokes it only on
// PASS, and owns the store write; this agent only computes the merge.
type Memorizer struct {
	provider provider.Provider
	logger   *logging.Logger
}

// NewMemorizer creates the memory agent.
func NewMemorizer(p provider.Provider) *Memorizer {
	return &Memorizer{provider: p, logger: logging.GetLogger("agents.memory")}
}

// MergeInput carries the material to fold into continuity.
type MergeInput struct {
	Existing *types.Summary
	Draft    types.Draft
	Intent   types.Intent
	Tone     types.Tone
}

// Merge produces the updated summary. Fallback on completion or parse
// failure: a deterministic merge that appends one history line and
// updates the last intent/tone, preserving the existing relationship.
func (a *Memorizer) Merge(ctx context.Context, in MergeInput) types.Summary {
	payload := map[string]interface{}{
		"existing_summary": in.Existing,
		"draft":            in.Draft,
		"intent":           string(in.Intent),
		"tone":             string(in.Tone),
	}

	resp, err := a.provider.Complete(ctx, provider.Request{
		SystemPrompt: memorySystemPrompt,
		UserPrompt:   marshalPayload(payload),
		Temperature:  0,
	})
	if err != nil {
		a.logger.WithContext(ctx).Warn("Memory merge call failed, using deterministic merge: %v", err)
		return deterministicMerge(in)
	}

	var out struct {
		Summary *types.Summary `json:"summary"`
	}
	if err := decodeJSON(resp.Content, &out); err != nil || out.Summary == nil {
		a.logger.WithContext(ctx).Warn("Memory merge output unparseable, using deterministic merge: %v", err)
		return deterministicMerge(in)
	}

	summary := *out.Summary
	if summary.LastIntent == "" {
		summary.LastIntent = string(in.Intent)
	}
	if summary.LastTone == "" {
		summary.LastTone = string(in.Tone)
	}
	// The model must merge, not replace: a summary that dropped existing
	// relationship context gets it back.
	if summary.Relationship == "" && in.Existing != nil {
		summary.Relationship = in.Existing.Relationship
	}
	return summary
}

func deterministicMerge(in MergeInput) types.Summary {
	noteFallback(StepMemory)
	summary := types.Summary{
		LastIntent: string(in.Intent),
		LastTone:   string(in.Tone),
	}
	if in.Existing != nil {
		summary.Relationship = in.Existing.Relationship
		summary.History = append([]string(nil), in.Existing.History...)
	}

	line := fmt.Sprintf("sent a %s email", strings.ReplaceAll(string(in.Intent), "_", " "))
	if in.Draft.Subject != "" {
		line += fmt.Sprintf(" (%q)", in.Draft.Subject)
	}
	summary.History = append(summary.History, line)
	return summary
}
