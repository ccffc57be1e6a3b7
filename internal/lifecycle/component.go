package lifecycle

import "context"

// Component defines the lifecycle interface for managed components
// (tracing provider, template watcher, API server). The manager starts
// components in registration order and stops them in reverse.
type Component interface {
	// Start initializes and starts the component. Must be safe to call
	// with a context that is later cancelled for shutdown.
	Start(ctx context.Context) error

	// Stop gracefully stops the component, respecting the context
	// deadline. A Stop error never prevents other components from
	// stopping.
	Stop(ctx context.Context) error

	// Name returns the human-readable component name for logging.
	Name() string
}
