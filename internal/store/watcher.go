package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/draftmate/draftmate/internal/logging"
)

// TemplateWatcherConfig holds configuration for the TemplateWatcher.
type TemplateWatcherConfig struct {
	// FilePath is the template YAML file to watch.
	FilePath string

	// DebounceMillis coalesces change bursts (editor save sequences)
	// into a single reload. Default: 500ms.
	DebounceMillis int

	// OnReload is called after every successful load, initial load
	// included. Used to invalidate caches layered over the store.
	OnReload func(count int)
}

// TemplateWatcher watches a template YAML file and re-loads it into the
// template store on change. An unreadable file during reload is logged
// and skipped; the previously loaded templates stay in effect.
type TemplateWatcher struct {
	config  TemplateWatcherConfig
	store   TemplateStore
	logger  *logging.Logger
	cancel  context.CancelFunc
	stopped chan struct{}
	ready   chan struct{}
	mu      sync.Mutex

	debounceTimer *time.Timer
}

// NewTemplateWatcher creates a watcher that loads the given file into
// the given store.
func NewTemplateWatcher(config TemplateWatcherConfig, store TemplateStore) (*TemplateWatcher, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config.DebounceMillis == 0 {
		config.DebounceMillis = 500
	}

	return &TemplateWatcher{
		config:  config,
		store:   store,
		logger:  logging.GetLogger("store.watcher"),
		stopped: make(chan struct{}),
		ready:   make(chan struct{}),
	}, nil
}

// Start performs the initial load (failing fast when the file is
// unreadable) and then watches for changes until Stop or context
// cancellation.
func (w *TemplateWatcher) Start(ctx context.Context) error {
	n, err := LoadTemplatesYAML(ctx, w.store, w.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial templates: %w", err)
	}
	w.logger.Info("Loaded %d templates from %s", n, w.config.FilePath)
	if w.config.OnReload != nil {
		w.config.OnReload(n)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}

	return nil
}

func (w *TemplateWatcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *TemplateWatcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.FilePath); err != nil {
		w.logger.Error("Failed to watch %s: %v", w.config.FilePath, err)
		return
	}

	w.logger.Debug("Watching %s for template changes (debounce: %dms)",
		w.config.FilePath, w.config.DebounceMillis)
	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// Atomic writes unlink the old file before renaming the new
			// one into place, so the watch must be re-added.
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.config.FilePath); err != nil {
					w.logger.Warn("Failed to re-add watch after %s: %v", event.Op, err)
				}
			}
			w.scheduleReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error: %v", err)
		}
	}
}

func (w *TemplateWatcher) scheduleReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(
		time.Duration(w.config.DebounceMillis)*time.Millisecond,
		func() { w.reload(ctx) },
	)
}

func (w *TemplateWatcher) reload(ctx context.Context) {
	n, err := LoadTemplatesYAML(ctx, w.store, w.config.FilePath)
	if err != nil {
		w.logger.Warn("Failed to reload templates (keeping previous set): %v", err)
		return
	}
	w.logger.Info("Reloaded %d templates from %s", n, w.config.FilePath)
	if w.config.OnReload != nil {
		w.config.OnReload(n)
	}
}

// Stop implements the lifecycle.Component interface.
func (w *TemplateWatcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	select {
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for watcher to stop")
	}
}

// Name implements the lifecycle.Component interface.
func (w *TemplateWatcher) Name() string {
	return "Template Watcher"
}
