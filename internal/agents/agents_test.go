package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftmate/draftmate/internal/provider"
	"github.com/draftmate/draftmate/internal/template"
	"github.com/draftmate/draftmate/internal/types"
)

func TestParserExtractsStructuredRequest(t *testing.T) {
	mock := provider.NewMockProvider().Stub("input parsing agent", `{
		"primary_request": "Follow up on my job application",
		"key_points": ["applied three weeks ago", "no response yet"],
		"recipient_mention": "the hiring manager",
		"requires_clarification": false
	}`)
	parsed := NewParser(mock).Parse(context.Background(), "follow up on my job application pls", nil)

	assert.Equal(t, "Follow up on my job application", parsed.PrimaryRequest)
	assert.Len(t, parsed.KeyPoints, 2)
	assert.Equal(t, "the hiring manager", parsed.RecipientMention)
	assert.False(t, parsed.RequiresClarification)
}

func TestParserFallsBackToRawText(t *testing.T) {
	mock := provider.NewMockProvider().StubError("input parsing agent", errors.New("timeout"))
	parsed := NewParser(mock).Parse(context.Background(), "  send the Q3 numbers to Alice  ", nil)

	require.NotNil(t, parsed)
	assert.Equal(t, "send the Q3 numbers to Alice", parsed.PrimaryRequest)
	assert.False(t, parsed.RequiresClarification, "fallback never asks for clarification")
}

func TestParserDropsClarificationWithoutQuestions(t *testing.T) {
	mock := provider.NewMockProvider().Stub("input parsing agent",
		`{"primary_request": "x", "requires_clarification": true}`)
	parsed := NewParser(mock).Parse(context.Background(), "x", nil)

	assert.False(t, parsed.RequiresClarification)
}

func TestIntentDetectorClassifies(t *testing.T) {
	mock := provider.NewMockProvider().Stub("intent detection agent",
		`{"label": "follow_up", "confidence": 0.92}`)
	result := NewIntentDetector(mock).Detect(context.Background(), &types.ParsedInput{
		PrimaryRequest: "Follow up on my job application",
	})

	assert.Equal(t, types.IntentFollowUp, result.Label)
	assert.InDelta(t, 0.92, result.Confidence, 0.001)
	assert.Equal(t, types.SourceModel, result.Source)
}

func TestIntentDetectorFallsBackToOther(t *testing.T) {
	tests := []struct {
		name string
		mock *provider.MockProvider
	}{
		{"call fails", provider.NewMockProvider().StubError("intent detection agent", errors.New("503"))},
		{"unparseable", provider.NewMockProvider().Stub("intent detection agent", "definitely a follow-up!")},
		{"off taxonomy", provider.NewMockProvider().Stub("intent detection agent", `{"label": "spam", "confidence": 0.9}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewIntentDetector(tt.mock).Detect(context.Background(), &types.ParsedInput{PrimaryRequest: "x"})
			assert.Equal(t, types.IntentOther, result.Label)
			assert.Equal(t, fallbackConfidence, result.Confidence)
			assert.Equal(t, types.SourceModel, result.Source)
		})
	}
}

func TestIntentDetectorToleratesMarkdownFences(t *testing.T) {
	mock := provider.NewMockProvider().Stub("intent detection agent",
		"```json\n{\"label\": \"request\", \"confidence\": 0.8}\n```")
	result := NewIntentDetector(mock).Detect(context.Background(), &types.ParsedInput{PrimaryRequest: "x"})

	assert.Equal(t, types.IntentRequest, result.Label)
}

func TestToneStylistSelectsAndFallsBack(t *testing.T) {
	mock := provider.NewMockProvider().Stub("tone stylist agent", `{"label": "formal"}`)
	result := NewToneStylist(mock).Style(context.Background(), &types.ParsedInput{PrimaryRequest: "x"}, types.IntentRequest, nil)
	assert.Equal(t, types.ToneFormal, result.Label)
	assert.Equal(t, types.SourceModel, result.Source)

	mock = provider.NewMockProvider().Stub("tone stylist agent", "formal, concise, confident")
	result = NewToneStylist(mock).Style(context.Background(), &types.ParsedInput{PrimaryRequest: "x"}, types.IntentRequest, nil)
	assert.Equal(t, types.ToneNeutral, result.Label, "unparseable output falls back to neutral")
}

func TestDraftWriterProducesDraft(t *testing.T) {
	mock := provider.NewMockProvider().Stub("draft writer agent",
		`{"subject": "Following up on my application", "body": "Hi,\n\nI wanted to check in.\n\nThanks,"}`)
	writer := NewDraftWriter(mock, template.NewEngine(nil))

	draft := writer.Write(context.Background(), WriteInput{
		Parsed: &types.ParsedInput{PrimaryRequest: "follow up on my application"},
		Intent: types.IntentFollowUp,
		Tone:   types.ToneNeutral,
	})

	assert.Equal(t, "Following up on my application", draft.Subject)
	assert.Contains(t, draft.Body, "check in")
}

func TestDraftWriterFallsBackToSkeleton(t *testing.T) {
	mock := provider.NewMockProvider().StubError("draft writer agent", errors.New("timeout"))
	writer := NewDraftWriter(mock, template.NewEngine(nil))

	draft := writer.Write(context.Background(), WriteInput{
		Parsed: &types.ParsedInput{PrimaryRequest: "request budget approval"},
		Intent: types.IntentRequest,
		Tone:   types.ToneFormal,
	})

	require.False(t, draft.IsZero(), "fallback draft is never empty")
	assert.Equal(t, "request budget approval", draft.Subject)
	assert.NotContains(t, draft.Body, "Subject:", "subject line moved out of the body")
	assert.NotContains(t, draft.Body, "{{", "skeleton is fully rendered")
}

func TestDraftWriterIncludesRevisionContext(t *testing.T) {
	mock := provider.NewMockProvider().Stub("draft writer agent",
		`{"subject": "s", "body": "revised"}`)
	writer := NewDraftWriter(mock, template.NewEngine(nil))

	writer.Write(context.Background(), WriteInput{
		Parsed:               &types.ParsedInput{PrimaryRequest: "x"},
		Intent:               types.IntentRequest,
		Tone:                 types.ToneNeutral,
		PriorDraft:           types.Draft{Subject: "s", Body: "too long and rude"},
		RevisionInstructions: []string{"shorten", "remove the insult"},
	})

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].UserPrompt, "revision_instructions")
	assert.Contains(t, calls[0].UserPrompt, "remove the insult")
	assert.Contains(t, calls[0].UserPrompt, "too long and rude")
}

func TestPersonalizerAppliesProfile(t *testing.T) {
	mock := provider.NewMockProvider().Stub("personalization agent",
		`{"subject": "s", "body": "Hi Alice,\n\n...\n\nBest,\nDana"}`)
	draft := NewPersonalizer(mock).Personalize(context.Background(),
		types.Draft{Subject: "s", Body: "Hi,\n\n...\n\n[Your Name]"},
		types.Profile{"name": "Dana"},
		nil,
	)

	assert.Contains(t, draft.Body, "Dana")
}

func TestPersonalizerFailSoft(t *testing.T) {
	original := types.Draft{Subject: "s", Body: "original body"}

	mock := provider.NewMockProvider().Stub("personalization agent", "I improved your email!")
	draft := NewPersonalizer(mock).Personalize(context.Background(), original, types.Profile{"name": "Dana"}, nil)
	assert.Equal(t, original, draft, "unparseable output keeps the original draft")

	mock = provider.NewMockProvider().StubError("personalization agent", errors.New("503"))
	draft = NewPersonalizer(mock).Personalize(context.Background(), original, types.Profile{"name": "Dana"}, nil)
	assert.Equal(t, original, draft, "call failure keeps the original draft")
}

func TestPersonalizerSkipsUnknownUser(t *testing.T) {
	mock := provider.NewMockProvider() // any call would fail loudly
	original := types.Draft{Subject: "s", Body: "b"}

	draft := NewPersonalizer(mock).Personalize(context.Background(), original, types.Profile{}, nil)

	assert.Equal(t, original, draft)
	assert.Empty(t, mock.Calls(), "no completion call for an unknown user")
}

func TestValidatorParsesThreeWaySplit(t *testing.T) {
	v := NewValidator(provider.NewMockProvider().Stub("review and validation agent",
		`{"status": "PASS", "summary": "looks good"}`))
	report := v.Validate(context.Background(), ValidateInput{Draft: types.Draft{Body: "b"}})
	assert.Equal(t, types.StatusPass, report.Status)

	v = NewValidator(provider.NewMockProvider().Stub("review and validation agent",
		`{"status": "fail", "summary": "too informal", "revision_instructions": ["use a formal greeting"]}`))
	report = v.Validate(context.Background(), ValidateInput{Draft: types.Draft{Body: "b"}})
	assert.Equal(t, types.StatusFail, report.Status)
	assert.Equal(t, []string{"use a formal greeting"}, report.RevisionInstructions)

	v = NewValidator(provider.NewMockProvider().Stub("review and validation agent",
		`{"status": "BLOCKED", "summary": "threatening content", "policy_reason": "threats of harm"}`))
	report = v.Validate(context.Background(), ValidateInput{Draft: types.Draft{Body: "b"}})
	assert.Equal(t, types.StatusBlocked, report.Status)
	assert.Equal(t, "threats of harm", report.PolicyReason)
}

func TestValidatorFailAlwaysCarriesInstructions(t *testing.T) {
	v := NewValidator(provider.NewMockProvider().Stub("review and validation agent",
		`{"status": "FAIL", "summary": "missing the deadline date"}`))
	report := v.Validate(context.Background(), ValidateInput{Draft: types.Draft{Body: "b"}})

	require.Equal(t, types.StatusFail, report.Status)
	require.NotEmpty(t, report.RevisionInstructions)
	assert.Contains(t, report.RevisionInstructions[0], "missing the deadline date")
}

func TestValidatorDegradesToPass(t *testing.T) {
	for name, mock := range map[string]*provider.MockProvider{
		"call fails":     provider.NewMockProvider().StubError("review and validation agent", errors.New("timeout")),
		"unparseable":    provider.NewMockProvider().Stub("review and validation agent", "LGTM"),
		"unknown status": provider.NewMockProvider().Stub("review and validation agent", `{"status": "MAYBE"}`),
	} {
		t.Run(name, func(t *testing.T) {
			report := NewValidator(mock).Validate(context.Background(), ValidateInput{Draft: types.Draft{Body: "b"}})
			assert.Equal(t, types.StatusPass, report.Status)
			assert.Contains(t, report.Summary, "without review")
		})
	}
}

func TestMemorizerMergesSummary(t *testing.T) {
	mock := provider.NewMockProvider().Stub("memory agent", `{
		"summary": {
			"relationship": "hiring manager",
			"history": ["applied for role", "followed up after three weeks"],
			"last_intent": "follow_up",
			"last_tone": "neutral"
		}
	}`)
	summary := NewMemorizer(mock).Merge(context.Background(), MergeInput{
		Existing: &types.Summary{Relationship: "hiring manager", History: []string{"applied for role"}},
		Draft:    types.Draft{Subject: "Following up", Body: "b"},
		Intent:   types.IntentFollowUp,
		Tone:     types.ToneNeutral,
	})

	assert.Equal(t, "hiring manager", summary.Relationship)
	assert.Len(t, summary.History, 2)
	assert.Equal(t, "follow_up", summary.LastIntent)
}

func TestMemorizerDeterministicFallbackPreservesHistory(t *testing.T) {
	mock := provider.NewMockProvider().StubError("memory agent", errors.New("timeout"))
	summary := NewMemorizer(mock).Merge(context.Background(), MergeInput{
		Existing: &types.Summary{Relationship: "client", History: []string{"intro call"}},
		Draft:    types.Draft{Subject: "Proposal", Body: "b"},
		Intent:   types.IntentOutreach,
		Tone:     types.ToneFriendly,
	})

	assert.Equal(t, "client", summary.Relationship, "merge preserves relationship")
	require.Len(t, summary.History, 2, "merge appends, never replaces")
	assert.Equal(t, "intro call", summary.History[0])
	assert.Equal(t, "outreach", summary.LastIntent)
	assert.Equal(t, "friendly", summary.LastTone)
}

func TestMemorizerRestoresDroppedRelationship(t *testing.T) {
	mock := provider.NewMockProvider().Stub("memory agent",
		`{"summary": {"history": ["sent proposal"], "last_intent": "outreach", "last_tone": "friendly"}}`)
	summary := NewMemorizer(mock).Merge(context.Background(), MergeInput{
		Existing: &types.Summary{Relationship: "client"},
		Draft:    types.Draft{Body: "b"},
		Intent:   types.IntentOutreach,
		Tone:     types.ToneFriendly,
	})

	assert.Equal(t, "client", summary.Relationship)
}
