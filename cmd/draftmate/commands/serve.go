package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/draftmate/draftmate/internal/apiserver"
	"github.com/draftmate/draftmate/internal/lifecycle"
	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/store"
	"github.com/draftmate/draftmate/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the draftmate API server",
	Long: `Start the HTTP API server. Exposes the drafting endpoint at
POST /v1/draft plus health, readiness, and Prometheus metrics.`,
	Run: runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := logging.GetLogger("serve")

	logger.Info("Starting draftmate v%s", Version)
	logger.Debug("Configuration loaded: APIPort=%d, Provider=%s, MaxRetries=%d",
		cfg.APIPort, cfg.Provider, cfg.MaxRetries)

	manager := lifecycle.NewManager()

	tracingProvider, err := tracing.NewTracingProvider(tracing.Config{
		Enabled:  cfg.TracingEnabled,
		Endpoint: cfg.TracingEndpoint,
	})
	HandleError(err, "Tracing initialization error")
	HandleError(manager.Register(tracingProvider), "Tracing registration error")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := openBackends(ctx, cfg)
	HandleError(err, "Store initialization error")
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("Failed to close stores: %v", err)
		}
	}()

	p, err := buildProvider(ctx, cfg)
	HandleError(err, "Provider initialization error")
	logger.Info("Using completion provider %s (model: %s)", p.Name(), p.Model())

	engine, tmplEngine, err := buildEngine(cfg, p, b)
	HandleError(err, "Engine initialization error")

	if cfg.TemplatesPath != "" {
		watcher, err := store.NewTemplateWatcher(store.TemplateWatcherConfig{
			FilePath: cfg.TemplatesPath,
			OnReload: func(int) { tmplEngine.InvalidateCache() },
		}, b.Templates)
		HandleError(err, "Template watcher initialization error")
		HandleError(manager.Register(watcher), "Template watcher registration error")
	} else {
		n, err := store.SeedDefaults(ctx, b.Templates)
		HandleError(err, "Template seeding error")
		logger.Info("No templates_path configured, seeded %d built-in templates", n)
	}

	apiComponent := apiserver.New(cfg.APIPort, engine, &apiserver.NoOpReadinessChecker{}, tracingProvider)
	HandleError(manager.Register(apiComponent), "API server registration error")

	HandleError(manager.Start(ctx), "Startup error")
	logger.Info("Application started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received, gracefully shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}
	logger.Info("Shutdown complete")
}
