package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetIntentUIOverrideIsLocked(t *testing.T) {
	s := &State{}

	require.NoError(t, s.SetIntent(IntentResult{Label: IntentRequest, Source: SourceUI}))
	assert.Equal(t, 1.0, s.Intent().Confidence, "ui source pins confidence at 1.0")

	err := s.SetIntent(IntentResult{Label: IntentApology, Confidence: 0.99, Source: SourceModel})
	require.ErrorIs(t, err, ErrSourceLocked)
	assert.Equal(t, IntentRequest, s.Intent().Label, "locked value must survive")
}

func TestSetIntentModelCanBeRefined(t *testing.T) {
	s := &State{}

	require.NoError(t, s.SetIntent(IntentResult{Label: IntentOther, Confidence: 0.2, Source: SourceModel}))
	require.NoError(t, s.SetIntent(IntentResult{Label: IntentFollowUp, Confidence: 0.9, Source: SourceModel}))
	assert.Equal(t, IntentFollowUp, s.Intent().Label)
}

func TestSetToneUIOverrideIsLocked(t *testing.T) {
	s := &State{}

	require.NoError(t, s.SetTone(ToneResult{Label: ToneConcise, Source: SourceUI}))
	err := s.SetTone(ToneResult{Label: ToneFriendly, Source: SourceModel})
	require.ErrorIs(t, err, ErrSourceLocked)
	assert.Equal(t, ToneConcise, s.Tone().Label)
}

func TestSetOutcomeExactlyOnce(t *testing.T) {
	s := &State{}
	assert.Equal(t, OutcomeNone, s.Outcome())

	require.NoError(t, s.SetOutcome(OutcomePass))
	err := s.SetOutcome(OutcomeFail)
	require.ErrorIs(t, err, ErrOutcomeSet)
	assert.Equal(t, OutcomePass, s.Outcome())
}

func TestFinalDraftFallsBack(t *testing.T) {
	s := &State{Draft: Draft{Body: "original"}}
	assert.Equal(t, "original", s.FinalDraft().Body)

	s.PersonalizedDraft = Draft{Body: "personalized"}
	assert.Equal(t, "personalized", s.FinalDraft().Body)
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		input string
		want  Intent
		ok    bool
	}{
		{"outreach", IntentOutreach, true},
		{" Follow_Up ", IntentFollowUp, true},
		{"follow-up", IntentFollowUp, true},
		{"scheduling", IntentScheduling, true},
		{"spam", IntentOther, false},
		{"", IntentOther, false},
	}
	for _, tc := range tests {
		got, ok := ParseIntent(tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
		assert.Equal(t, tc.ok, ok, "input %q", tc.input)
	}
}

func TestParseTone(t *testing.T) {
	got, ok := ParseTone("FORMAL")
	assert.True(t, ok)
	assert.Equal(t, ToneFormal, got)

	got, ok = ParseTone("sarcastic")
	assert.False(t, ok)
	assert.Equal(t, ToneNeutral, got)
}
