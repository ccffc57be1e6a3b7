package types

// ValidationStatus is the three-way decision of the review validator.
type ValidationStatus string

const (
	// StatusPass means the draft meets the quality and safety bar.
	StatusPass ValidationStatus = "PASS"
	// StatusFail means a quality issue was found; the draft is retryable.
	StatusFail ValidationStatus = "FAIL"
	// StatusBlocked means a safety/policy issue was found; terminal, no retry.
	StatusBlocked ValidationStatus = "BLOCKED"
)

// ValidationReport is the review validator's output.
type ValidationReport struct {
	Status ValidationStatus `json:"status"`

	// Summary is a short human-readable explanation of the decision.
	Summary string `json:"summary,omitempty"`

	// RevisionInstructions is only meaningful on FAIL. It is carried back
	// to the draft writer on the retry pass.
	RevisionInstructions []string `json:"revision_instructions,omitempty"`

	// PolicyReason is only meaningful on BLOCKED.
	PolicyReason string `json:"policy_reason,omitempty"`

	// ConstraintResolution optionally adjusts constraints before a redraft.
	ConstraintResolution *ConstraintResolution `json:"constraint_resolution,omitempty"`
}

// ConstraintResolution is the validator's suggested constraint adjustment
// for the retry pass: drop stale must-include items, extend must-avoid,
// optionally steer the tone label.
type ConstraintResolution struct {
	DropMustInclude   []string `json:"drop_must_include,omitempty"`
	AddMustAvoid      []string `json:"add_must_avoid,omitempty"`
	OverrideToneLabel string   `json:"override_tone_label,omitempty"`
}

// Outcome is the terminal marker of one workflow turn, set exactly once.
type Outcome string

const (
	// OutcomeNone is the zero value before the turn terminates.
	OutcomeNone Outcome = ""
	// OutcomePass means a validated draft was produced and continuity persisted.
	OutcomePass Outcome = "PASS"
	// OutcomeFail covers both clarification early-exit and retry exhaustion.
	OutcomeFail Outcome = "FAIL"
	// OutcomeBlocked means the validator found a policy violation.
	OutcomeBlocked Outcome = "BLOCKED"
)
