// Package store provides the keyed lookup stores consumed by the
// workflow: email templates by (intent, tone), user profiles by user id,
// and continuity summaries by (user id, recipient key).
//
// Two implementations exist: embedded SQLite for real runs and pure
// in-memory stores for tests. Both provide key-level isolation for
// concurrent turns; no global locking is required by callers.
package store

import (
	"context"
	"time"

	"github.com/draftmate/draftmate/internal/types"
)

// Template is a stored email template keyed by (intent, tone).
type Template struct {
	ID     string            `json:"template_id" yaml:"template_id"`
	Intent types.Intent      `json:"intent" yaml:"intent"`
	Tone   types.Tone        `json:"tone" yaml:"tone"`
	Name   string            `json:"name" yaml:"name"`
	Body   string            `json:"body" yaml:"body"`
	Meta   map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// ContinuityEntry is a persisted continuity summary with identity and
// timestamps. Upserted only on PASS outcomes.
type ContinuityEntry struct {
	UserID       string        `json:"user_id"`
	RecipientKey string        `json:"recipient_key"`
	Summary      types.Summary `json:"summary"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// TemplateStore is a read-mostly template catalog.
type TemplateStore interface {
	// BestTemplate returns the best template for (intent, tone) using the
	// fallback chain: exact match, intent+neutral, other+tone,
	// other+neutral. Returns nil (no error) when nothing matches;
	// callers fall back to the built-in generic skeleton.
	BestTemplate(ctx context.Context, intent types.Intent, tone types.Tone) (*Template, error)

	// UpsertTemplate inserts or replaces a template by id.
	UpsertTemplate(ctx context.Context, tpl Template) error
}

// ProfileStore resolves personalization profiles by user id.
type ProfileStore interface {
	// Profile returns the profile for a user id. An unknown id yields an
	// empty (never nil) profile; the lookup never fails on unknown ids.
	Profile(ctx context.Context, userID string) (types.Profile, error)

	// UpsertProfile inserts or replaces a user's profile.
	UpsertProfile(ctx context.Context, userID string, profile types.Profile) error
}

// ContinuityStore is the durable cross-session memory, keyed uniquely
// by (user id, recipient key).
type ContinuityStore interface {
	// Summary returns the prior summary for the pair, or nil when the
	// pair has no history.
	Summary(ctx context.Context, userID, recipientKey string) (*types.Summary, error)

	// Upsert writes the summary for the pair, creating or replacing it.
	// Concurrent upserts for distinct pairs must not interfere.
	Upsert(ctx context.Context, userID, recipientKey string, summary types.Summary) error
}

// fallbackChain is the template selection order shared by all
// implementations.
func fallbackChain(intent types.Intent, tone types.Tone) [][2]string {
	return [][2]string{
		{string(intent), string(tone)},
		{string(intent), string(types.ToneNeutral)},
		{string(types.IntentOther), string(tone)},
		{string(types.IntentOther), string(types.ToneNeutral)},
	}
}
