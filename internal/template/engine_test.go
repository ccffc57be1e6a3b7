package template

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftmate/draftmate/internal/store"
	"github.com/draftmate/draftmate/internal/types"
)

type stubTemplateStore struct {
	tpl   *store.Template
	err   error
	calls int
}

func (s *stubTemplateStore) BestTemplate(context.Context, types.Intent, types.Tone) (*store.Template, error) {
	s.calls++
	return s.tpl, s.err
}

func (s *stubTemplateStore) UpsertTemplate(context.Context, store.Template) error {
	return nil
}

func TestBuildPlanUsesTemplateAndRendersSkeleton(t *testing.T) {
	ts := &stubTemplateStore{tpl: &store.Template{
		ID:     "request_formal_v1",
		Intent: types.IntentRequest,
		Tone:   types.ToneFormal,
		Body:   "Subject: {{subject}}\n\n{{greeting}}\n\n{{ask}}\n\n{{closing}}\n{{signature}}\n",
	}}
	engine := NewEngine(ts)

	plan := engine.BuildPlan(context.Background(), PlanInput{
		Intent:      types.IntentRequest,
		Tone:        types.ToneFormal,
		Constraints: types.Constraints{LengthHint: "short"},
		Parsed:      &types.ParsedInput{PrimaryRequest: "grant access to the repo"},
	})

	assert.Equal(t, "request_formal_v1", plan.TemplateID)
	assert.Contains(t, plan.RenderedSkeleton, "Subject:")
	assert.Contains(t, plan.RenderedSkeleton, "grant access to the repo")
	assert.LessOrEqual(t, plan.LengthBudget.MaxWords, 200, "short budget")
	assert.True(t, plan.Format.UseSubject)
}

func TestBuildPlanDefaultsWithoutTemplate(t *testing.T) {
	engine := NewEngine(&stubTemplateStore{})

	plan := engine.BuildPlan(context.Background(), PlanInput{
		Intent: types.IntentFollowUp,
	})

	assert.Empty(t, plan.TemplateID)
	assert.Contains(t, plan.RenderedSkeleton, "Subject:")
	assert.Equal(t, types.ToneNeutral, plan.Tone, "no tone defaults to neutral")
	assert.Equal(t, "medium", plan.LengthHint)
	assert.NotContains(t, plan.RenderedSkeleton, "{{", "all placeholders rendered")
}

func TestBuildPlanConciseToneShortensLength(t *testing.T) {
	engine := NewEngine(nil)

	plan := engine.BuildPlan(context.Background(), PlanInput{
		Intent: types.IntentInfo,
		Tone:   types.ToneConcise,
	})

	assert.Equal(t, "short", plan.LengthHint)
	assert.Equal(t, 160, plan.LengthBudget.MaxWords)
}

func TestBuildPlanExplicitLengthWins(t *testing.T) {
	engine := NewEngine(nil)

	plan := engine.BuildPlan(context.Background(), PlanInput{
		Intent:      types.IntentInfo,
		Tone:        types.ToneConcise,
		Constraints: types.Constraints{LengthHint: "long"},
	})

	assert.Equal(t, "long", plan.LengthHint)
	assert.Equal(t, 320, plan.LengthBudget.MaxWords)
}

func TestBuildPlanBulletConstraints(t *testing.T) {
	engine := NewEngine(nil)
	useBullets := true
	count := 3

	plan := engine.BuildPlan(context.Background(), PlanInput{
		Intent:      types.IntentInfo,
		Constraints: types.Constraints{UseBullets: &useBullets, BulletCount: &count},
	})

	assert.True(t, plan.Format.UseBullets)
	assert.Equal(t, 3, plan.Format.MaxBullets, "explicit bullet count tightens the budget")
}

func TestBuildPlanSurvivesStoreError(t *testing.T) {
	engine := NewEngine(&stubTemplateStore{err: errors.New("db locked")})

	plan := engine.BuildPlan(context.Background(), PlanInput{Intent: types.IntentRequest})

	assert.Empty(t, plan.TemplateID)
	assert.Contains(t, plan.RenderedSkeleton, "Subject:", "falls back to built-in skeleton")
}

func TestBuildPlanCachesLookups(t *testing.T) {
	ts := &stubTemplateStore{}
	engine := NewEngine(ts)
	in := PlanInput{Intent: types.IntentRequest, Tone: types.ToneFormal}

	engine.BuildPlan(context.Background(), in)
	engine.BuildPlan(context.Background(), in)
	require.Equal(t, 1, ts.calls, "second lookup served from cache")

	engine.InvalidateCache()
	engine.BuildPlan(context.Background(), in)
	assert.Equal(t, 2, ts.calls)
}

func TestGreetingAndClosingFollowToneAndRecipient(t *testing.T) {
	engine := NewEngine(nil)

	plan := engine.BuildPlan(context.Background(), PlanInput{
		Intent:    types.IntentOutreach,
		Tone:      types.ToneFormal,
		Recipient: types.Recipient{DisplayName: "Dr. Chen", Key: "name:abc"},
	})
	assert.Equal(t, "Hi Dr. Chen,", plan.Placeholders["greeting"])
	assert.Equal(t, "Thank you for your time.", plan.Placeholders["closing"])

	plan = engine.BuildPlan(context.Background(), PlanInput{
		Intent: types.IntentOutreach,
		Tone:   types.ToneFriendly,
	})
	assert.Equal(t, "Hi,", plan.Placeholders["greeting"])
	assert.Equal(t, "Thanks so much!", plan.Placeholders["closing"])
}

func TestSubjectPrefersHintThenPrimaryThenIntent(t *testing.T) {
	engine := NewEngine(nil)

	plan := engine.BuildPlan(context.Background(), PlanInput{
		Intent: types.IntentFollowUp,
		Parsed: &types.ParsedInput{SubjectHint: "Q3 report status", PrimaryRequest: "ask about the report"},
	})
	assert.Equal(t, "Q3 report status", plan.Placeholders["subject"])

	plan = engine.BuildPlan(context.Background(), PlanInput{
		Intent: types.IntentFollowUp,
		Parsed: &types.ParsedInput{PrimaryRequest: "ask about the report"},
	})
	assert.Equal(t, "ask about the report", plan.Placeholders["subject"])

	plan = engine.BuildPlan(context.Background(), PlanInput{Intent: types.IntentFollowUp})
	assert.Equal(t, "Following up", plan.Placeholders["subject"])
}
