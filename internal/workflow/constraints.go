package workflow

import (
	"strconv"
	"strings"

	"github.com/draftmate/draftmate/internal/types"
)

// uiIntentOverride interprets the caller's intent field. Empty and the
// UI's "auto" spellings mean no override; an off-taxonomy label is
// ignored rather than misfiled as "other".
func uiIntentOverride(raw string) (types.Intent, bool) {
	if isAuto(raw) {
		return "", false
	}
	label, ok := types.ParseIntent(raw)
	if !ok {
		return "", false
	}
	return label, true
}

// uiToneOverride does the same for tone.
func uiToneOverride(raw string) (types.Tone, bool) {
	if isAuto(raw) {
		return "", false
	}
	label, ok := types.ParseTone(raw)
	if !ok {
		return "", false
	}
	return label, true
}

func isAuto(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto", "(auto)", "none":
		return true
	}
	return false
}

// mergeConstraints folds parsed constraints and UI metadata into the
// effective constraint set. Metadata wins on every conflict.
func mergeConstraints(parsed types.Constraints, metadata map[string]string) types.Constraints {
	merged := parsed
	merged.MustInclude = append([]string(nil), parsed.MustInclude...)
	merged.MustAvoid = append([]string(nil), parsed.MustAvoid...)

	if raw, ok := metadata["use_bullets"]; ok {
		if v, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			merged.UseBullets = &v
		}
	}
	if raw, ok := metadata["bullet_count"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			merged.BulletCount = &n
		}
	}
	if raw, ok := metadata["length"]; ok {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "short", "medium", "long":
			merged.LengthHint = strings.ToLower(strings.TrimSpace(raw))
		}
	}
	if raw, ok := metadata["must_include"]; ok {
		merged.MustInclude = appendItems(merged.MustInclude, raw)
	}
	if raw, ok := metadata["must_avoid"]; ok {
		merged.MustAvoid = appendItems(merged.MustAvoid, raw)
	}
	return merged
}

// appendItems splits a comma-separated metadata value and appends the
// items not already present.
func appendItems(existing []string, raw string) []string {
	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		seen[item] = true
	}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" && !seen[item] {
			existing = append(existing, item)
			seen[item] = true
		}
	}
	return existing
}
