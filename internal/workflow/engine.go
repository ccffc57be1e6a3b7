// Package workflow implements the orchestration engine: the directed
// state machine that sequences the seven step agents, applies UI
// overrides, enforces the bounded revise-and-retry loop around
// validation, and terminates every turn into exactly one of PASS, FAIL,
// or BLOCKED.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/draftmate/draftmate/internal/agents"
	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/metrics"
	"github.com/draftmate/draftmate/internal/recipient"
	"github.com/draftmate/draftmate/internal/session"
	"github.com/draftmate/draftmate/internal/store"
	"github.com/draftmate/draftmate/internal/types"
)

// DefaultMaxRetries bounds FAIL-triggered redraft passes per turn.
const DefaultMaxRetries = 2

// Deps carries everything the engine composes.
type Deps struct {
	Parser       *agents.Parser
	Intents      *agents.IntentDetector
	Tones        *agents.ToneStylist
	Writer       *agents.DraftWriter
	Personalizer *agents.Personalizer
	Validator    *agents.Validator
	Memorizer    *agents.Memorizer

	Profiles   store.ProfileStore
	Continuity store.ContinuityStore

	Sessions    *session.Manager
	Checkpoints *session.CheckpointStore

	// MaxRetries bounds redraft passes; zero disables retries entirely
	// and a negative value selects DefaultMaxRetries.
	MaxRetries int
}

// Request is one user turn as the caller hands it in.
type Request struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`

	// Tone and Intent are UI overrides. Empty, "auto", or "(auto)" means
	// no override. A valid override is authoritative and immutable for
	// the turn.
	Tone   string `json:"tone,omitempty"`
	Intent string `json:"intent,omitempty"`

	// Metadata carries free-form constraints from the UI. Recognized
	// keys: recipient, relationship, use_bullets, bullet_count, length,
	// must_include, must_avoid. Metadata wins over parsed constraints.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Result is the caller-facing terminal state of a turn: enough for a
// front end to render PASS, FAIL, and BLOCKED distinctly.
type Result struct {
	TurnID    string        `json:"turn_id"`
	SessionID string        `json:"session_id"`
	Outcome   types.Outcome `json:"outcome"`

	// Draft is nil for clarification-only turns.
	Draft  *types.Draft            `json:"draft,omitempty"`
	Report *types.ValidationReport `json:"report,omitempty"`

	Intent *types.IntentResult `json:"intent,omitempty"`
	Tone   *types.ToneResult   `json:"tone,omitempty"`

	RetryCount   int    `json:"retry_count"`
	RecipientKey string `json:"recipient_key,omitempty"`

	RequiresClarification  bool     `json:"requires_clarification,omitempty"`
	ClarificationQuestions []string `json:"clarification_questions,omitempty"`

	// PersistenceFailed flags a continuity write failure after the PASS
	// outcome was already decided; it never changes the outcome.
	PersistenceFailed bool `json:"persistence_failed,omitempty"`
}

// Engine runs one turn at a time; a single Engine value serves
// concurrent turns, each with its own state record.
type Engine struct {
	deps       Deps
	maxRetries int
	logger     *logging.Logger
	tracer     trace.Tracer
}

// NewEngine composes the pipeline.
func NewEngine(deps Deps) (*Engine, error) {
	if deps.Parser == nil || deps.Intents == nil || deps.Tones == nil ||
		deps.Writer == nil || deps.Personalizer == nil ||
		deps.Validator == nil || deps.Memorizer == nil {
		return nil, fmt.Errorf("all seven step agents are required")
	}
	if deps.Profiles == nil || deps.Continuity == nil {
		return nil, fmt.Errorf("profile and continuity stores are required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if deps.Checkpoints == nil {
		deps.Checkpoints = session.NewCheckpointStore()
	}

	maxRetries := deps.MaxRetries
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}

	return &Engine{
		deps:       deps,
		maxRetries: maxRetries,
		logger:     logging.GetLogger("workflow"),
		tracer:     otel.Tracer("draftmate/workflow"),
	}, nil
}

// Run executes one turn to its terminal outcome. The only error paths
// are context cancellation and internal invariant violations; every
// step failure is absorbed by the step's own fallback. On cancellation
// no continuity write occurs.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	turnID := uuid.NewString()
	userID := req.UserID
	if userID == "" {
		userID = "default"
	}
	sessionID := e.deps.Sessions.DeriveID(userID)

	ctx = logging.WithTurnID(ctx, turnID)
	ctx = logging.WithSessionID(ctx, sessionID)
	logger := e.logger.WithContext(ctx)

	ctx, span := e.tracer.Start(ctx, "workflow.turn",
		trace.WithAttributes(attribute.String("turn_id", turnID)))
	defer span.End()

	logger.InfoWithFields("Turn started",
		logging.Field("user_id", userID),
		logging.Field("input_len", len(req.Text)),
	)

	state := &types.State{
		TurnID:   turnID,
		UserID:   userID,
		RawInput: req.Text,
		Metadata: req.Metadata,
	}

	// UI overrides are applied before any step runs; the guarded setters
	// make them immutable for the rest of the turn.
	if label, ok := uiIntentOverride(req.Intent); ok {
		if err := state.SetIntent(types.IntentResult{Label: label, Source: types.SourceUI}); err != nil {
			return nil, err
		}
	}
	if label, ok := uiToneOverride(req.Tone); ok {
		if err := state.SetTone(types.ToneResult{Label: label, Source: types.SourceUI}); err != nil {
			return nil, err
		}
	}

	// Step 1: input parsing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state.Parsed = e.runParse(ctx, state)

	if state.Parsed.RequiresClarification {
		logger.Info("Clarification required, terminating without drafting")
		if err := state.SetOutcome(types.OutcomeFail); err != nil {
			return nil, err
		}
		return e.finish(ctx, state, sessionID), nil
	}

	// Recipient identity. A metadata recipient is authoritative over the
	// parsed mention.
	mention := state.Parsed.RecipientMention
	relationship := state.Parsed.RelationshipHint
	if m, ok := req.Metadata["recipient"]; ok && m != "" {
		mention = m
	}
	if r, ok := req.Metadata["relationship"]; ok && r != "" {
		relationship = r
	}
	display, key := recipient.Normalize(mention, relationship)
	state.Recipient = types.Recipient{DisplayName: display, Relationship: relationship, Key: key}

	// Context loads are independent fail-soft reads; the turn proceeds
	// without either of them.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		state.Profile = e.loadProfile(gctx, userID)
		return nil
	})
	g.Go(func() error {
		state.Continuity = e.loadContinuity(gctx, userID, key)
		return nil
	})
	_ = g.Wait()

	// Steps 2 and 3: classification, skipped entirely on UI override.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if state.Intent() == nil {
		result := e.runIntent(ctx, state)
		if err := state.SetIntent(result); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if state.Tone() == nil {
		result := e.runTone(ctx, state)
		if err := state.SetTone(result); err != nil {
			return nil, err
		}
	}

	state.Constraints = mergeConstraints(state.Parsed.Constraints, req.Metadata)

	// Steps 4-6: the bounded revise loop. The loop condition is the
	// structural guarantee that the draft writer runs at most
	// maxRetries+1 times, independent of what the validator asks for.
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.runDraftPass(ctx, state, attempt)

		report := state.Report
		switch report.Status {
		case types.StatusPass:
			lastErr = state.SetOutcome(types.OutcomePass)
		case types.StatusBlocked:
			logger.WarnWithFields("Draft blocked by policy",
				logging.Field("reason", report.PolicyReason))
			lastErr = state.SetOutcome(types.OutcomeBlocked)
		case types.StatusFail:
			if attempt >= e.maxRetries {
				logger.InfoWithFields("Retry budget exhausted",
					logging.Field("retries", state.RetryCount))
				lastErr = state.SetOutcome(types.OutcomeFail)
				break
			}
			state.RetryCount++
			metrics.RetriesTotal.Inc()
			e.applyRevisionHints(ctx, state, report)
			logger.InfoWithFields("Validation failed, redrafting",
				logging.Field("retry", state.RetryCount),
				logging.Field("instructions", len(report.RevisionInstructions)),
			)
			continue
		default:
			lastErr = fmt.Errorf("validator produced unknown status %q", report.Status)
		}
		break
	}
	if lastErr != nil {
		return nil, lastErr
	}

	// Step 7: continuity memory, commit-on-PASS only, at the very end.
	persistFailed := false
	if state.Outcome() == types.OutcomePass {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		persistFailed = !e.persistContinuity(ctx, state)
	}

	result := e.finish(ctx, state, sessionID)
	result.PersistenceFailed = persistFailed
	return result, nil
}

func (e *Engine) runParse(ctx context.Context, state *types.State) *types.ParsedInput {
	ctx, span := e.tracer.Start(ctx, "step."+agents.StepParse)
	defer span.End()
	defer metrics.ObserveStep(agents.StepParse, time.Now())
	return e.deps.Parser.Parse(ctx, state.RawInput, state.Metadata)
}

func (e *Engine) runIntent(ctx context.Context, state *types.State) types.IntentResult {
	ctx, span := e.tracer.Start(ctx, "step."+agents.StepIntent)
	defer span.End()
	defer metrics.ObserveStep(agents.StepIntent, time.Now())
	return e.deps.Intents.Detect(ctx, state.Parsed)
}

func (e *Engine) runTone(ctx context.Context, state *types.State) types.ToneResult {
	ctx, span := e.tracer.Start(ctx, "step."+agents.StepTone)
	defer span.End()
	defer metrics.ObserveStep(agents.StepTone, time.Now())
	return e.deps.Tones.Style(ctx, state.Parsed, state.Intent().Label, state.Continuity)
}

// runDraftPass executes one draft → personalize → validate sequence and
// leaves the results on the state.
func (e *Engine) runDraftPass(ctx context.Context, state *types.State, attempt int) {
	in := agents.WriteInput{
		Parsed:      state.Parsed,
		Intent:      state.Intent().Label,
		Tone:        state.Tone().Label,
		Constraints: state.Constraints,
		Recipient:   state.Recipient,
		Continuity:  state.Continuity,
	}
	if attempt > 0 && state.Report != nil {
		in.PriorDraft = state.FinalDraft()
		in.RevisionInstructions = state.Report.RevisionInstructions
	}

	func() {
		ctx, span := e.tracer.Start(ctx, "step."+agents.StepDraft,
			trace.WithAttributes(attribute.Int("attempt", attempt)))
		defer span.End()
		defer metrics.ObserveStep(agents.StepDraft, time.Now())
		state.Draft = e.deps.Writer.Write(ctx, in)
	}()

	func() {
		ctx, span := e.tracer.Start(ctx, "step."+agents.StepPersonalize)
		defer span.End()
		defer metrics.ObserveStep(agents.StepPersonalize, time.Now())
		state.PersonalizedDraft = e.deps.Personalizer.Personalize(ctx, state.Draft, state.Profile, state.Continuity)
	}()

	func() {
		ctx, span := e.tracer.Start(ctx, "step."+agents.StepValidate)
		defer span.End()
		defer metrics.ObserveStep(agents.StepValidate, time.Now())
		state.Report = e.deps.Validator.Validate(ctx, agents.ValidateInput{
			Draft:       state.FinalDraft(),
			Intent:      state.Intent().Label,
			Tone:        state.Tone().Label,
			Constraints: state.Constraints,
		})
	}()
}

// applyRevisionHints folds the validator's constraint resolution into
// the state before the redraft pass. A ui-sourced tone is never
// overridden; the guarded setter enforces it.
func (e *Engine) applyRevisionHints(ctx context.Context, state *types.State, report *types.ValidationReport) {
	res := report.ConstraintResolution
	if res == nil {
		return
	}

	if len(res.DropMustInclude) > 0 {
		drop := make(map[string]bool, len(res.DropMustInclude))
		for _, item := range res.DropMustInclude {
			drop[item] = true
		}
		kept := state.Constraints.MustInclude[:0]
		for _, item := range state.Constraints.MustInclude {
			if !drop[item] {
				kept = append(kept, item)
			}
		}
		state.Constraints.MustInclude = kept
	}

	if len(res.AddMustAvoid) > 0 {
		seen := make(map[string]bool, len(state.Constraints.MustAvoid))
		for _, item := range state.Constraints.MustAvoid {
			seen[item] = true
		}
		for _, item := range res.AddMustAvoid {
			if !seen[item] {
				state.Constraints.MustAvoid = append(state.Constraints.MustAvoid, item)
				seen[item] = true
			}
		}
	}

	if label, ok := types.ParseTone(res.OverrideToneLabel); ok && res.OverrideToneLabel != "" {
		err := state.SetTone(types.ToneResult{Label: label, Source: types.SourceModel})
		if err != nil {
			e.logger.WithContext(ctx).Debug("Revision tone hint ignored, tone is ui-sourced")
		}
	}
}

func (e *Engine) loadProfile(ctx context.Context, userID string) types.Profile {
	profile, err := e.deps.Profiles.Profile(ctx, userID)
	if err != nil {
		e.logger.WithContext(ctx).Warn("Profile load failed, personalizing without profile: %v", err)
		return types.Profile{}
	}
	return profile
}

func (e *Engine) loadContinuity(ctx context.Context, userID, recipientKey string) *types.Summary {
	summary, err := e.deps.Continuity.Summary(ctx, userID, recipientKey)
	if err != nil {
		e.logger.WithContext(ctx).Warn("Continuity load failed, drafting without history: %v", err)
		return nil
	}
	return summary
}

// persistContinuity merges and writes the continuity entry, reporting
// whether the write landed. A write failure is surfaced separately and
// never masks the PASS outcome.
func (e *Engine) persistContinuity(ctx context.Context, state *types.State) bool {
	var summary types.Summary
	func() {
		ctx, span := e.tracer.Start(ctx, "step."+agents.StepMemory)
		defer span.End()
		defer metrics.ObserveStep(agents.StepMemory, time.Now())
		summary = e.deps.Memorizer.Merge(ctx, agents.MergeInput{
			Existing: state.Continuity,
			Draft:    state.FinalDraft(),
			Intent:   state.Intent().Label,
			Tone:     state.Tone().Label,
		})
	}()
	if summary.Relationship == "" {
		summary.Relationship = state.Recipient.Relationship
	}

	if err := e.deps.Continuity.Upsert(ctx, state.UserID, state.Recipient.Key, summary); err != nil {
		metrics.PersistenceFailuresTotal.Inc()
		e.logger.WithContext(ctx).ErrorWithErr("Continuity write failed after PASS", err)
		return false
	}
	return true
}

// finish builds the caller-facing result, records metrics, and writes
// the session checkpoint.
func (e *Engine) finish(ctx context.Context, state *types.State, sessionID string) *Result {
	outcome := state.Outcome()
	metrics.TurnsTotal.WithLabelValues(string(outcome)).Inc()

	result := &Result{
		TurnID:       state.TurnID,
		SessionID:    sessionID,
		Outcome:      outcome,
		Report:       state.Report,
		Intent:       state.Intent(),
		Tone:         state.Tone(),
		RetryCount:   state.RetryCount,
		RecipientKey: state.Recipient.Key,
	}
	if state.Parsed != nil && state.Parsed.RequiresClarification {
		result.RequiresClarification = true
		result.ClarificationQuestions = state.Parsed.ClarificationQuestions
	} else {
		draft := state.FinalDraft()
		result.Draft = &draft
	}
	e.deps.Checkpoints.Put(sessionID, session.Checkpoint{
		TurnID:       state.TurnID,
		Outcome:      outcome,
		Draft:        state.FinalDraft(),
		Report:       state.Report,
		RecipientKey: state.Recipient.Key,
		RetryCount:   state.RetryCount,
	})

	e.logger.WithContext(ctx).InfoWithFields("Turn finished",
		logging.Field("outcome", string(outcome)),
		logging.Field("retries", state.RetryCount),
	)
	return result
}
