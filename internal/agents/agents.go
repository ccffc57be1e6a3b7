// Package agents implements the seven single-responsibility step agents
// of the drafting pipeline. Each agent is a pure transformation of the
// accumulated workflow state into a partial update, backed by one
// completion call with a strict output contract and a documented
// fallback for malformed output. No agent ever lets a completion
// failure escape as an error; degraded output is always usable.
package agents

import (
	"encoding/json"
	"strings"

	"github.com/draftmate/draftmate/internal/metrics"
)

// Step names, used in logs, metrics, and trace spans.
const (
	StepParse       = "input_parser"
	StepIntent      = "intent_detection"
	StepTone        = "tone_stylist"
	StepDraft       = "draft_writer"
	StepPersonalize = "personalization"
	StepValidate    = "review_validator"
	StepMemory      = "memory"
)

// noteFallback records a degraded step result in the step metrics.
func noteFallback(step string) {
	metrics.StepFallbacksTotal.WithLabelValues(step).Inc()
}

// decodeJSON parses a completion result into out. Models wrap JSON in
// markdown fences or prose more often than not, so the first balanced
// top-level object is extracted before decoding.
func decodeJSON(content string, out interface{}) error {
	return json.Unmarshal([]byte(extractJSON(content)), out)
}

func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.Index(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// marshalPayload renders the user-prompt payload for a completion call.
// Encoding a map of plain values cannot fail; errors are ignored.
func marshalPayload(payload map[string]interface{}) string {
	raw, _ := json.MarshalIndent(payload, "", "  ")
	return string(raw)
}
