package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/draftmate/draftmate/internal/agents"
	"github.com/draftmate/draftmate/internal/config"
	"github.com/draftmate/draftmate/internal/provider"
	"github.com/draftmate/draftmate/internal/session"
	"github.com/draftmate/draftmate/internal/store"
	"github.com/draftmate/draftmate/internal/template"
	"github.com/draftmate/draftmate/internal/workflow"
)

// backends bundles the three stores behind their interfaces, whether
// SQLite-backed or in-memory.
type backends struct {
	Templates  store.TemplateStore
	Profiles   store.ProfileStore
	Continuity store.ContinuityStore

	close func() error
}

func (b *backends) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// openBackends opens the configured SQLite database, or falls back to
// in-memory stores when no db_path is set.
func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	if cfg.DBPath == "" {
		mem := store.NewMemoryStores()
		return &backends{
			Templates:  mem.Templates,
			Profiles:   mem.Profiles,
			Continuity: mem.Continuity,
		}, nil
	}

	db, err := store.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &backends{
		Templates:  db,
		Profiles:   db,
		Continuity: db,
		close:      db.Close,
	}, nil
}

// buildProvider selects the completion provider from config.
func buildProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	pcfg := provider.Config{Model: cfg.Model}

	switch cfg.Provider {
	case "anthropic":
		return provider.NewAnthropicProvider(pcfg)
	case "gemini":
		return provider.NewGeminiProvider(ctx, os.Getenv("GEMINI_API_KEY"), pcfg)
	case "mock":
		// A bare mock makes every agent take its deterministic fallback;
		// useful for offline smoke runs.
		return provider.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// buildEngine wires the seven step agents, the template engine, and the
// stores into a workflow engine. The template engine is returned too so
// callers can hook cache invalidation into the template watcher.
func buildEngine(cfg *config.Config, p provider.Provider, b *backends) (*workflow.Engine, *template.Engine, error) {
	tmplEngine := template.NewEngine(b.Templates)

	sessions, err := session.NewManager(cfg.SessionSalt)
	if err != nil {
		return nil, nil, err
	}

	engine, err := workflow.NewEngine(workflow.Deps{
		Parser:       agents.NewParser(p),
		Intents:      agents.NewIntentDetector(p),
		Tones:        agents.NewToneStylist(p),
		Writer:       agents.NewDraftWriter(p, tmplEngine),
		Personalizer: agents.NewPersonalizer(p),
		Validator:    agents.NewValidator(p),
		Memorizer:    agents.NewMemorizer(p),

		Profiles:   b.Profiles,
		Continuity: b.Continuity,

		Sessions:   sessions,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, nil, err
	}
	return engine, tmplEngine, nil
}
