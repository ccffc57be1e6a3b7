package types

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by guarded state setters.
var (
	// ErrSourceLocked is returned when a step tries to overwrite a
	// ui-sourced intent or tone. UI overrides are permanent for the turn.
	ErrSourceLocked = errors.New("field is ui-sourced and locked for this turn")

	// ErrOutcomeSet is returned when the terminal outcome would be set twice.
	ErrOutcomeSet = errors.New("terminal outcome already set")
)

// ParsedInput is the structured extraction of the raw user text.
type ParsedInput struct {
	// PrimaryRequest is the normalized, single-sentence instruction.
	PrimaryRequest string `json:"primary_request"`

	// SubjectHint is a suggested subject line, may be empty.
	SubjectHint string `json:"subject_hint,omitempty"`

	// KeyPoints are the ordered points the draft must cover.
	KeyPoints []string `json:"key_points,omitempty"`

	// RecipientMention is the free-text recipient reference, may be empty.
	// A missing recipient alone never triggers clarification; drafting with
	// a placeholder recipient is preferred over asking.
	RecipientMention string `json:"recipient_mention,omitempty"`

	// RelationshipHint describes the sender/recipient relationship if stated.
	RelationshipHint string `json:"relationship_hint,omitempty"`

	// Constraints holds formatting directives stated in the text itself.
	// UI metadata wins over these on conflict.
	Constraints Constraints `json:"constraints"`

	// RequiresClarification is true only when the request is genuinely
	// unusable for drafting (no subject, no actor, no actionable point).
	RequiresClarification bool `json:"requires_clarification"`

	// ClarificationQuestions holds the questions to surface to the user
	// when RequiresClarification is true.
	ClarificationQuestions []string `json:"clarification_questions,omitempty"`
}

// IntentResult is the intent classification with provenance.
type IntentResult struct {
	Label      Intent  `json:"label"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// ToneResult is the tone selection with provenance.
type ToneResult struct {
	Label  Tone   `json:"label"`
	Source Source `json:"source"`
}

// Constraints are derived formatting directives, merged from parsed input
// and UI metadata with UI metadata winning on conflict.
type Constraints struct {
	// UseBullets is nil when neither side expressed a preference.
	UseBullets *bool `json:"use_bullets,omitempty"`

	// BulletCount is the requested number of bullets, best effort.
	BulletCount *int `json:"bullet_count,omitempty"`

	// LengthHint is one of "short", "medium", "long", or empty.
	LengthHint string `json:"length_hint,omitempty"`

	// MustInclude lists content items the draft has to carry.
	MustInclude []string `json:"must_include,omitempty"`

	// MustAvoid lists content the draft must not carry.
	MustAvoid []string `json:"must_avoid,omitempty"`
}

// Recipient is the resolved recipient identity.
type Recipient struct {
	// DisplayName is the normalized display form, may be empty.
	DisplayName string `json:"display_name,omitempty"`

	// Relationship is the relationship hint, may be empty.
	Relationship string `json:"relationship,omitempty"`

	// Key partitions continuity memory. Always non-empty: the sentinel
	// "unknown" key is used when no recipient is resolvable.
	Key string `json:"key"`
}

// Profile holds the requesting user's personalization fields.
// An unknown user yields an empty (not nil) profile.
type Profile map[string]string

// Summary is the rolling continuity summary for a (user, recipient) pair.
type Summary struct {
	Relationship string   `json:"relationship,omitempty"`
	History      []string `json:"history,omitempty"`
	LastIntent   string   `json:"last_intent,omitempty"`
	LastTone     string   `json:"last_tone,omitempty"`
}

// Draft is a draft email: optional subject plus body text.
type Draft struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// IsZero reports whether the draft is empty.
func (d Draft) IsZero() bool {
	return d.Subject == "" && d.Body == ""
}

// State is the single mutable record threaded through every workflow step.
// It is created empty at turn start, owned and exclusively mutated by the
// workflow engine, and discarded after the terminal outcome is handed to
// the caller. Step agents receive it read-only and return partial updates.
//
// Intent, tone, and the terminal outcome are write-guarded: ui-sourced
// intent/tone can never be overwritten, and the outcome is set exactly once.
type State struct {
	// Raw input.
	TurnID   string            `json:"turn_id"`
	UserID   string            `json:"user_id"`
	RawInput string            `json:"raw_input"`
	Metadata map[string]string `json:"metadata,omitempty"`

	// Parsed input. Nil until the input parser has run.
	Parsed *ParsedInput `json:"parsed,omitempty"`

	intent *IntentResult
	tone   *ToneResult

	Constraints Constraints `json:"constraints"`
	Recipient   Recipient   `json:"recipient"`

	// Personalization context; empty (not nil) for an unknown user.
	Profile Profile `json:"profile,omitempty"`

	// Continuity snapshot for (UserID, Recipient.Key); nil on first contact.
	Continuity *Summary `json:"continuity,omitempty"`

	// Draft and its personalized variant coexist so personalization
	// failure can fall back to the pre-personalization draft.
	Draft             Draft `json:"draft"`
	PersonalizedDraft Draft `json:"personalized_draft"`

	Report     *ValidationReport `json:"report,omitempty"`
	RetryCount int               `json:"retry_count"`

	outcome Outcome
}

// Intent returns the current intent classification, or nil before detection.
func (s *State) Intent() *IntentResult {
	return s.intent
}

// Tone returns the current tone selection, or nil before styling.
func (s *State) Tone() *ToneResult {
	return s.tone
}

// Outcome returns the terminal outcome, OutcomeNone while the turn is live.
func (s *State) Outcome() Outcome {
	return s.outcome
}

// SetIntent records the intent classification. A ui-sourced intent is
// immutable: any later write attempt returns ErrSourceLocked regardless
// of the new value. UI overrides always carry confidence 1.0.
func (s *State) SetIntent(r IntentResult) error {
	if s.intent != nil && s.intent.Source == SourceUI {
		return fmt.Errorf("intent: %w", ErrSourceLocked)
	}
	if r.Source == SourceUI {
		r.Confidence = 1.0
	}
	s.intent = &r
	return nil
}

// SetTone records the tone selection with the same override-wins
// invariant as SetIntent.
func (s *State) SetTone(r ToneResult) error {
	if s.tone != nil && s.tone.Source == SourceUI {
		return fmt.Errorf("tone: %w", ErrSourceLocked)
	}
	s.tone = &r
	return nil
}

// SetOutcome marks the turn terminal. The outcome is set exactly once.
func (s *State) SetOutcome(o Outcome) error {
	if s.outcome != OutcomeNone {
		return fmt.Errorf("outcome %s: %w", s.outcome, ErrOutcomeSet)
	}
	if o == OutcomeNone {
		return errors.New("cannot set empty outcome")
	}
	s.outcome = o
	return nil
}

// FinalDraft returns the personalized draft when present, falling back
// to the pre-personalization draft.
func (s *State) FinalDraft() Draft {
	if !s.PersonalizedDraft.IsZero() {
		return s.PersonalizedDraft
	}
	return s.Draft
}
