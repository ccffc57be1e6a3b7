package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/draftmate/draftmate/internal/types"
)

// DefaultTemplates are the built-in template fixtures. The skeleton
// placeholders ({{subject}}, {{greeting}}, {{context}}, {{ask}},
// {{closing}}, {{signature}}) are rendered by the template engine.
var DefaultTemplates = []Template{
	{
		ID:     "follow_up_neutral_v1",
		Intent: types.IntentFollowUp,
		Tone:   types.ToneNeutral,
		Name:   "Follow-up (Neutral)",
		Body:   "Subject: {{subject}}\n\n{{greeting}}\n\n{{context}}\n\n{{ask}}\n\n{{closing}}\n{{signature}}\n",
		Meta:   map[string]string{"version": "1"},
	},
	{
		ID:     "request_formal_v1",
		Intent: types.IntentRequest,
		Tone:   types.ToneFormal,
		Name:   "Request (Formal)",
		Body:   "Subject: {{subject}}\n\n{{greeting}}\n\n{{context}}\n\nWould you be able to {{ask}}?\n\n{{closing}}\n{{signature}}\n",
		Meta:   map[string]string{"version": "1"},
	},
	{
		ID:     "apology_apologetic_v1",
		Intent: types.IntentApology,
		Tone:   types.ToneApologetic,
		Name:   "Apology (Apologetic)",
		Body:   "Subject: {{subject}}\n\n{{greeting}}\n\nI'm sorry for {{context}}.\n\n{{ask}}\n\n{{closing}}\n{{signature}}\n",
		Meta:   map[string]string{"version": "1"},
	},
	{
		ID:     "outreach_friendly_v1",
		Intent: types.IntentOutreach,
		Tone:   types.ToneFriendly,
		Name:   "Outreach (Friendly)",
		Body:   "Subject: {{subject}}\n\n{{greeting}}\n\n{{context}}\n\n{{ask}}\n\n{{closing}}\n{{signature}}\n",
		Meta:   map[string]string{"version": "1"},
	},
	{
		ID:     "other_neutral_v1",
		Intent: types.IntentOther,
		Tone:   types.ToneNeutral,
		Name:   "Generic (Neutral)",
		Body:   "Subject: {{subject}}\n\n{{greeting}}\n\n{{context}}\n\n{{ask}}\n\n{{closing}}\n{{signature}}\n",
		Meta:   map[string]string{"version": "1"},
	},
}

// SeedDefaults upserts the built-in fixtures into the given store.
// Idempotent: re-seeding replaces the same ids.
func SeedDefaults(ctx context.Context, store TemplateStore) (int, error) {
	for _, tpl := range DefaultTemplates {
		if err := store.UpsertTemplate(ctx, tpl); err != nil {
			return 0, fmt.Errorf("failed to seed template %s: %w", tpl.ID, err)
		}
	}
	return len(DefaultTemplates), nil
}

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadTemplatesYAML reads templates from a YAML file and upserts them.
// Returns the number of templates loaded.
func LoadTemplatesYAML(ctx context.Context, store TemplateStore, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read template file: %w", err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}

	for i, tpl := range file.Templates {
		if tpl.ID == "" {
			return 0, fmt.Errorf("template %d in %s has no template_id", i, path)
		}
		if _, ok := types.ParseIntent(string(tpl.Intent)); !ok {
			return 0, fmt.Errorf("template %s has unknown intent %q", tpl.ID, tpl.Intent)
		}
		if _, ok := types.ParseTone(string(tpl.Tone)); !ok {
			return 0, fmt.Errorf("template %s has unknown tone %q", tpl.ID, tpl.Tone)
		}
		if err := store.UpsertTemplate(ctx, tpl); err != nil {
			return 0, fmt.Errorf("failed to load template %s: %w", tpl.ID, err)
		}
	}
	return len(file.Templates), nil
}
