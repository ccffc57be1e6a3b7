package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftmate/draftmate/internal/types"
)

// Both implementations must satisfy the same contract; each test runs
// against memory and sqlite.
func eachStores(t *testing.T, fn func(t *testing.T, templates TemplateStore, profiles ProfileStore, continuity ContinuityStore)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		m := NewMemoryStores()
		fn(t, m.Templates, m.Profiles, m.Continuity)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		fn(t, s, s, s)
	})
}

func TestTemplateFallbackChain(t *testing.T) {
	eachStores(t, func(t *testing.T, templates TemplateStore, _ ProfileStore, _ ContinuityStore) {
		ctx := context.Background()
		_, err := SeedDefaults(ctx, templates)
		require.NoError(t, err)

		// Exact match.
		tpl, err := templates.BestTemplate(ctx, types.IntentRequest, types.ToneFormal)
		require.NoError(t, err)
		require.NotNil(t, tpl)
		assert.Equal(t, "request_formal_v1", tpl.ID)

		// Intent match, tone falls back to neutral.
		tpl, err = templates.BestTemplate(ctx, types.IntentFollowUp, types.ToneAssertive)
		require.NoError(t, err)
		require.NotNil(t, tpl)
		assert.Equal(t, "follow_up_neutral_v1", tpl.ID)

		// No intent match falls through to the generic template.
		tpl, err = templates.BestTemplate(ctx, types.IntentScheduling, types.ToneConcise)
		require.NoError(t, err)
		require.NotNil(t, tpl)
		assert.Equal(t, "other_neutral_v1", tpl.ID)
	})
}

func TestTemplateFallbackPrefersOtherWithTone(t *testing.T) {
	eachStores(t, func(t *testing.T, templates TemplateStore, _ ProfileStore, _ ContinuityStore) {
		ctx := context.Background()
		require.NoError(t, templates.UpsertTemplate(ctx, Template{
			ID: "other_concise_v1", Intent: types.IntentOther, Tone: types.ToneConcise, Body: "b",
		}))
		require.NoError(t, templates.UpsertTemplate(ctx, Template{
			ID: "other_neutral_v1", Intent: types.IntentOther, Tone: types.ToneNeutral, Body: "b",
		}))

		tpl, err := templates.BestTemplate(ctx, types.IntentScheduling, types.ToneConcise)
		require.NoError(t, err)
		require.NotNil(t, tpl)
		assert.Equal(t, "other_concise_v1", tpl.ID, "other+tone outranks other+neutral")
	})
}

func TestTemplateNoMatchReturnsNil(t *testing.T) {
	eachStores(t, func(t *testing.T, templates TemplateStore, _ ProfileStore, _ ContinuityStore) {
		tpl, err := templates.BestTemplate(context.Background(), types.IntentInfo, types.ToneFriendly)
		require.NoError(t, err)
		assert.Nil(t, tpl)
	})
}

func TestTemplateUpsertReplaces(t *testing.T) {
	eachStores(t, func(t *testing.T, templates TemplateStore, _ ProfileStore, _ ContinuityStore) {
		ctx := context.Background()
		tpl := Template{ID: "t1", Intent: types.IntentInfo, Tone: types.ToneNeutral, Body: "v1"}
		require.NoError(t, templates.UpsertTemplate(ctx, tpl))

		tpl.Body = "v2"
		require.NoError(t, templates.UpsertTemplate(ctx, tpl))

		got, err := templates.BestTemplate(ctx, types.IntentInfo, types.ToneNeutral)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "v2", got.Body)
	})
}

func TestProfileUnknownUserIsEmptyNotNil(t *testing.T) {
	eachStores(t, func(t *testing.T, _ TemplateStore, profiles ProfileStore, _ ContinuityStore) {
		profile, err := profiles.Profile(context.Background(), "nobody")
		require.NoError(t, err)
		require.NotNil(t, profile)
		assert.Empty(t, profile)
	})
}

func TestProfileRoundTrip(t *testing.T) {
	eachStores(t, func(t *testing.T, _ TemplateStore, profiles ProfileStore, _ ContinuityStore) {
		ctx := context.Background()
		want := types.Profile{"name": "Dana", "signature": "Best,\nDana", "role": "PM"}
		require.NoError(t, profiles.UpsertProfile(ctx, "u1", want))

		got, err := profiles.Profile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, want, got)

		// Replaced wholesale on upsert.
		require.NoError(t, profiles.UpsertProfile(ctx, "u1", types.Profile{"name": "Dana"}))
		got, err = profiles.Profile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, types.Profile{"name": "Dana"}, got)
	})
}

func TestContinuityFirstContactIsNil(t *testing.T) {
	eachStores(t, func(t *testing.T, _ TemplateStore, _ ProfileStore, continuity ContinuityStore) {
		summary, err := continuity.Summary(context.Background(), "u1", "email:a@b.com")
		require.NoError(t, err)
		assert.Nil(t, summary)
	})
}

func TestContinuityKeyIsolation(t *testing.T) {
	eachStores(t, func(t *testing.T, _ TemplateStore, _ ProfileStore, continuity ContinuityStore) {
		ctx := context.Background()
		require.NoError(t, continuity.Upsert(ctx, "u1", "email:a@b.com", types.Summary{
			Relationship: "client", LastIntent: "request", LastTone: "formal",
		}))
		require.NoError(t, continuity.Upsert(ctx, "u1", "email:c@d.com", types.Summary{
			Relationship: "friend", LastIntent: "outreach", LastTone: "friendly",
		}))
		require.NoError(t, continuity.Upsert(ctx, "u2", "email:a@b.com", types.Summary{
			Relationship: "vendor",
		}))

		got, err := continuity.Summary(ctx, "u1", "email:a@b.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "client", got.Relationship)

		got, err = continuity.Summary(ctx, "u1", "email:c@d.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "friend", got.Relationship)

		got, err = continuity.Summary(ctx, "u2", "email:a@b.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "vendor", got.Relationship)
	})
}

func TestContinuityUpsertReplaces(t *testing.T) {
	eachStores(t, func(t *testing.T, _ TemplateStore, _ ProfileStore, continuity ContinuityStore) {
		ctx := context.Background()
		require.NoError(t, continuity.Upsert(ctx, "u1", "unknown", types.Summary{
			History: []string{"sent a follow-up"},
		}))
		require.NoError(t, continuity.Upsert(ctx, "u1", "unknown", types.Summary{
			History:    []string{"sent a follow-up", "sent an apology"},
			LastIntent: "apology",
		}))

		got, err := continuity.Summary(ctx, "u1", "unknown")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Len(t, got.History, 2)
		assert.Equal(t, "apology", got.LastIntent)
	})
}

func TestMemoryContinuityReturnsCopies(t *testing.T) {
	continuity := NewMemoryContinuityStore()
	ctx := context.Background()
	require.NoError(t, continuity.Upsert(ctx, "u1", "k", types.Summary{History: []string{"a"}}))

	got, err := continuity.Summary(ctx, "u1", "k")
	require.NoError(t, err)
	got.History[0] = "mutated"

	again, err := continuity.Summary(ctx, "u1", "k")
	require.NoError(t, err)
	assert.Equal(t, "a", again.History[0], "callers must not see each other's mutations")
}

func TestLoadTemplatesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - template_id: scheduling_concise_v1
    intent: scheduling
    tone: concise
    name: Scheduling (Concise)
    body: "Subject: {{subject}}\n\n{{ask}}\n"
  - template_id: info_neutral_v1
    intent: info
    tone: neutral
    body: "{{context}}\n"
`), 0o644))

	templates := NewMemoryTemplateStore()
	n, err := LoadTemplatesYAML(context.Background(), templates, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tpl, err := templates.BestTemplate(context.Background(), types.IntentScheduling, types.ToneConcise)
	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.Equal(t, "scheduling_concise_v1", tpl.ID)
}

func TestLoadTemplatesYAMLRejectsBadTaxonomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - template_id: bad_v1
    intent: spam
    tone: neutral
    body: "x"
`), 0o644))

	_, err := LoadTemplatesYAML(context.Background(), NewMemoryTemplateStore(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown intent")
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	templates := NewMemoryTemplateStore()
	ctx := context.Background()

	n, err := SeedDefaults(ctx, templates)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultTemplates), n)

	_, err = SeedDefaults(ctx, templates)
	require.NoError(t, err)

	tpl, err := templates.BestTemplate(ctx, types.IntentApology, types.ToneApologetic)
	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.Equal(t, "apology_apologetic_v1", tpl.ID)
}
