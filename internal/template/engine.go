// Package template builds deterministic drafting plans: length budgets,
// formatting policy, and a rendered skeleton the draft writer must
// follow. Tone, length, and structure are decided here, not by the
// model, so retries stay reproducible.
package template

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/store"
	"github.com/draftmate/draftmate/internal/types"
)

// LengthBudget bounds the draft's size for a given length hint.
type LengthBudget struct {
	TargetWords   int `json:"target_words"`
	MaxWords      int `json:"max_words"`
	MaxParagraphs int `json:"max_paragraphs"`
	MaxBullets    int `json:"max_bullets"`
}

// Format is the formatting policy the draft writer must follow.
type Format struct {
	UseSubject   bool     `json:"use_subject"`
	UseBullets   bool     `json:"use_bullets"`
	MaxBullets   int      `json:"max_bullets"`
	SectionOrder []string `json:"section_order"`
}

// Plan is the deterministic drafting plan handed to the draft writer.
type Plan struct {
	TemplateID       string            `json:"template_id,omitempty"`
	Tone             types.Tone        `json:"tone"`
	LengthHint       string            `json:"length_hint"`
	LengthBudget     LengthBudget      `json:"length_budget"`
	Format           Format            `json:"format"`
	Placeholders     map[string]string `json:"placeholders"`
	TemplateBody     string            `json:"template_body"`
	RenderedSkeleton string            `json:"rendered_skeleton"`
}

// PlanInput carries everything plan building depends on.
type PlanInput struct {
	Intent      types.Intent
	Tone        types.Tone
	Constraints types.Constraints
	Parsed      *types.ParsedInput
	Recipient   types.Recipient
}

const defaultBody = "Subject: {{subject}}\n\n{{greeting}}\n\n{{context}}\n\n{{ask}}\n\n{{closing}}\n{{signature}}\n"

var sectionOrder = []string{"subject", "greeting", "context", "ask", "closing", "signature"}

// Engine builds plans against a template store. Template lookups are
// cached per (intent, tone) pair; the cache is invalidated wholesale
// when templates are reloaded.
type Engine struct {
	store  store.TemplateStore
	cache  *lru.Cache[[2]string, *store.Template]
	logger *logging.Logger
}

// NewEngine creates a plan engine. The store may be nil, in which case
// every plan uses the built-in generic skeleton.
func NewEngine(templates store.TemplateStore) *Engine {
	// 42 pairs exist (7 intents x 6 tones); 64 holds them all.
	cache, _ := lru.New[[2]string, *store.Template](64)
	return &Engine{
		store:  templates,
		cache:  cache,
		logger: logging.GetLogger("template"),
	}
}

// InvalidateCache drops all cached template lookups. Called after a
// template reload.
func (e *Engine) InvalidateCache() {
	e.cache.Purge()
}

// BuildPlan produces the drafting plan for a turn. Plan building never
// fails: a store error falls back to the built-in skeleton.
func (e *Engine) BuildPlan(ctx context.Context, in PlanInput) Plan {
	tone := in.Tone
	if tone == "" {
		tone = types.ToneNeutral
	}

	// Explicit length constraint wins; otherwise the tone shapes it.
	lengthHint := strings.ToLower(strings.TrimSpace(in.Constraints.LengthHint))
	if lengthHint == "" {
		if tone == types.ToneConcise {
			lengthHint = "short"
		} else {
			lengthHint = "medium"
		}
	}
	budget := budgetFor(lengthHint)

	format := Format{
		UseSubject:   true,
		UseBullets:   in.Constraints.UseBullets != nil && *in.Constraints.UseBullets,
		MaxBullets:   budget.MaxBullets,
		SectionOrder: sectionOrder,
	}
	if in.Constraints.BulletCount != nil && *in.Constraints.BulletCount > 0 && *in.Constraints.BulletCount < format.MaxBullets {
		format.MaxBullets = *in.Constraints.BulletCount
	}

	tpl := e.lookupTemplate(ctx, in.Intent, tone)

	body := defaultBody
	templateID := ""
	if tpl != nil {
		body = tpl.Body
		templateID = tpl.ID
	}

	placeholders := map[string]string{
		"subject":   suggestSubject(in.Intent, in.Parsed),
		"greeting":  suggestGreeting(tone, in.Recipient),
		"context":   suggestContext(in.Parsed),
		"ask":       suggestAsk(in.Intent, in.Parsed),
		"closing":   suggestClosing(tone),
		"signature": "[Your Name]", // replaced by personalization
	}

	return Plan{
		TemplateID:       templateID,
		Tone:             tone,
		LengthHint:       lengthHint,
		LengthBudget:     budget,
		Format:           format,
		Placeholders:     placeholders,
		TemplateBody:     body,
		RenderedSkeleton: render(body, placeholders),
	}
}

func (e *Engine) lookupTemplate(ctx context.Context, intent types.Intent, tone types.Tone) *store.Template {
	if e.store == nil {
		return nil
	}
	key := [2]string{string(intent), string(tone)}
	if tpl, ok := e.cache.Get(key); ok {
		return tpl
	}
	tpl, err := e.store.BestTemplate(ctx, intent, tone)
	if err != nil {
		e.logger.Warn("Template lookup failed for (%s, %s), using built-in skeleton: %v", intent, tone, err)
		return nil
	}
	e.cache.Add(key, tpl)
	return tpl
}

func budgetFor(lengthHint string) LengthBudget {
	switch lengthHint {
	case "very_short", "tiny":
		return LengthBudget{TargetWords: 70, MaxWords: 100, MaxParagraphs: 3, MaxBullets: 3}
	case "short", "concise":
		return LengthBudget{TargetWords: 110, MaxWords: 160, MaxParagraphs: 4, MaxBullets: 4}
	case "long", "detailed":
		return LengthBudget{TargetWords: 220, MaxWords: 320, MaxParagraphs: 6, MaxBullets: 6}
	default:
		return LengthBudget{TargetWords: 160, MaxWords: 240, MaxParagraphs: 5, MaxBullets: 5}
	}
}

func render(template string, values map[string]string) string {
	out := template
	for k, v := range values {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

func suggestSubject(intent types.Intent, parsed *types.ParsedInput) string {
	if parsed != nil {
		if hint := strings.TrimSpace(parsed.SubjectHint); hint != "" {
			return truncate(hint, 70)
		}
		if primary := strings.TrimSpace(parsed.PrimaryRequest); primary != "" {
			return truncate(primary, 70)
		}
	}
	switch intent {
	case types.IntentFollowUp:
		return "Following up"
	case types.IntentRequest:
		return "Request"
	case types.IntentApology:
		return "Apology"
	case types.IntentOutreach:
		return "Introduction"
	case types.IntentInfo:
		return "Update"
	default:
		return "Message"
	}
}

func suggestGreeting(tone types.Tone, recipient types.Recipient) string {
	if name := strings.TrimSpace(recipient.DisplayName); name != "" {
		return "Hi " + name + ","
	}
	if tone == types.ToneFormal {
		return "Hello,"
	}
	return "Hi,"
}

func suggestContext(parsed *types.ParsedInput) string {
	if parsed != nil && len(parsed.KeyPoints) > 0 {
		return strings.TrimSpace(parsed.KeyPoints[0])
	}
	return "I'm reaching out regarding the following."
}

func suggestAsk(intent types.Intent, parsed *types.ParsedInput) string {
	if parsed != nil {
		if primary := strings.TrimSpace(parsed.PrimaryRequest); primary != "" {
			return primary
		}
	}
	switch intent {
	case types.IntentFollowUp:
		return "Could you share an update when you have a moment?"
	case types.IntentRequest:
		return "Could you please help with this?"
	case types.IntentApology:
		return "I'll make sure this is resolved promptly."
	case types.IntentOutreach:
		return "Would you be open to a brief chat?"
	default:
		return "Please let me know your thoughts."
	}
}

func suggestClosing(tone types.Tone) string {
	switch tone {
	case types.ToneFormal:
		return "Thank you for your time."
	case types.ToneFriendly:
		return "Thanks so much!"
	case types.ToneApologetic:
		return "Thank you for your understanding."
	case types.ToneAssertive:
		return "Thanks in advance for your help."
	default:
		return "Thanks,"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
