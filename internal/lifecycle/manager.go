// Package lifecycle orchestrates startup and shutdown of long-running
// components.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/draftmate/draftmate/internal/logging"
)

// Manager starts registered components in order and stops them in
// reverse order, each with its own shutdown grace period.
type Manager struct {
	mu              sync.Mutex
	components      []Component
	started         []Component
	shutdownTimeout time.Duration
	logger          *logging.Logger
}

// NewManager creates a lifecycle manager with a 30-second per-component
// shutdown timeout.
func NewManager() *Manager {
	return &Manager{
		shutdownTimeout: 30 * time.Second,
		logger:          logging.GetLogger("lifecycle"),
	}
}

// Register adds a component. Registration order is start order.
func (m *Manager) Register(component Component) error {
	if component == nil {
		return fmt.Errorf("cannot register nil component")
	}
	if component.Name() == "" {
		return fmt.Errorf("component must have a non-empty name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.components {
		if c == component {
			return fmt.Errorf("component %s is already registered", component.Name())
		}
	}
	m.components = append(m.components, component)
	return nil
}

// Start starts all components in registration order. On failure the
// already-started components are stopped in reverse order.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = nil
	for _, component := range m.components {
		m.logger.Info("Starting %s", component.Name())
		startTime := time.Now()

		if err := component.Start(ctx); err != nil {
			m.logger.Error("Failed to start %s: %v", component.Name(), err)
			m.rollback()
			return fmt.Errorf("initialization failed for %s: %w", component.Name(), err)
		}

		m.started = append(m.started, component)
		m.logger.Info("%s started (took %dms)", component.Name(), time.Since(startTime).Milliseconds())
	}
	return nil
}

func (m *Manager) rollback() {
	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := component.Stop(ctx); err != nil {
			m.logger.Warn("Error stopping %s during rollback: %v", component.Name(), err)
		}
		cancel()
	}
	m.started = nil
}

// Stop stops all started components in reverse order. Stop errors are
// logged, never returned; shutdown always completes.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		m.logger.Info("Stopping %s", component.Name())

		componentCtx, cancel := context.WithTimeout(ctx, m.shutdownTimeout)
		if err := component.Stop(componentCtx); err != nil {
			m.logger.Error("Error stopping %s: %v", component.Name(), err)
		}
		cancel()
	}
	m.started = nil
	m.logger.Info("All components stopped")
	return nil
}

// SetShutdownTimeout sets the per-component grace period.
func (m *Manager) SetShutdownTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownTimeout = timeout
}
