package types

import "strings"

// Source marks where an overridable field's value came from.
// UI-sourced values are authoritative and immutable for the turn.
type Source string

const (
	// SourceUI marks a value supplied explicitly by the caller.
	SourceUI Source = "ui"
	// SourceModel marks a value inferred by a completion call.
	SourceModel Source = "model"
)

// Intent is the closed intent taxonomy for a drafting request.
type Intent string

const (
	IntentOutreach   Intent = "outreach"
	IntentFollowUp   Intent = "follow_up"
	IntentApology    Intent = "apology"
	IntentRequest    Intent = "request"
	IntentScheduling Intent = "scheduling"
	IntentInfo       Intent = "info"
	IntentOther      Intent = "other"
)

// AllIntents lists every label in the intent taxonomy.
var AllIntents = []Intent{
	IntentOutreach,
	IntentFollowUp,
	IntentApology,
	IntentRequest,
	IntentScheduling,
	IntentInfo,
	IntentOther,
}

// ParseIntent maps a free-form label onto the closed taxonomy.
// Returns false when the label is not a taxonomy member.
func ParseIntent(s string) (Intent, bool) {
	label := Intent(strings.ToLower(strings.TrimSpace(s)))
	// Accept the common hyphenated spelling of follow_up.
	if label == "follow-up" || label == "followup" {
		label = IntentFollowUp
	}
	for _, it := range AllIntents {
		if label == it {
			return it, true
		}
	}
	return IntentOther, false
}

// Tone is the closed tone taxonomy for a drafting request.
type Tone string

const (
	ToneFormal     Tone = "formal"
	ToneFriendly   Tone = "friendly"
	ToneAssertive  Tone = "assertive"
	ToneApologetic Tone = "apologetic"
	ToneConcise    Tone = "concise"
	ToneNeutral    Tone = "neutral"
)

// AllTones lists every label in the tone taxonomy.
var AllTones = []Tone{
	ToneFormal,
	ToneFriendly,
	ToneAssertive,
	ToneApologetic,
	ToneConcise,
	ToneNeutral,
}

// ParseTone maps a free-form label onto the closed taxonomy.
// Returns false when the label is not a taxonomy member.
func ParseTone(s string) (Tone, bool) {
	label := Tone(strings.ToLower(strings.TrimSpace(s)))
	for _, tn := range AllTones {
		if label == tn {
			return tn, true
		}
	}
	return ToneNeutral, false
}
