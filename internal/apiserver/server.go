// Package apiserver exposes the drafting workflow over HTTP: one
// drafting endpoint plus health, readiness, and Prometheus metrics.
package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/workflow"
)

// TurnRunner executes one drafting turn. Satisfied by *workflow.Engine.
type TurnRunner interface {
	Run(ctx context.Context, req workflow.Request) (*workflow.Result, error)
}

// ReadinessChecker is an interface for checking component readiness
type ReadinessChecker interface {
	IsReady() bool
}

// NoOpReadinessChecker is a ReadinessChecker that always returns true.
// Use this when no readiness checking is needed (e.g., when the template
// watcher is disabled).
type NoOpReadinessChecker struct{}

// IsReady always returns true for the no-op checker.
func (n *NoOpReadinessChecker) IsReady() bool {
	return true
}

// Server handles HTTP API requests
type Server struct {
	port             int
	server           *http.Server
	logger           *logging.Logger
	runner           TurnRunner
	router           *http.ServeMux
	readinessChecker ReadinessChecker
	tracingProvider  interface {
		GetTracer(string) trace.Tracer
		IsEnabled() bool
	}
}

// New creates an API server serving the drafting workflow on the given port.
func New(
	port int,
	runner TurnRunner,
	readinessChecker ReadinessChecker,
	tracingProvider interface {
		GetTracer(string) trace.Tracer
		IsEnabled() bool
	},
) *Server {
	s := &Server{
		port:             port,
		logger:           logging.GetLogger("api"),
		runner:           runner,
		router:           http.NewServeMux(),
		readinessChecker: readinessChecker,
		tracingProvider:  tracingProvider,
	}

	s.registerHandlers()
	s.configureHTTPServer(port)

	return s
}

// configureHTTPServer creates the HTTP server with CORS middleware and
// timeouts sized for model-backed turns (a full retry loop can take a
// couple of minutes against a real provider).
func (s *Server) configureHTTPServer(port int) {
	handler := s.corsMiddleware(s.router)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// Start implements the lifecycle.Component interface
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server on port %d", s.port)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	s.logger.Info("API server started and listening on port %d", s.port)
	return nil
}

// Stop implements the lifecycle.Component interface
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")

	done := make(chan error, 1)
	go func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- s.server.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("HTTP server shutdown error: %v", err)
			return err
		}
		s.logger.Info("API server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("API server shutdown timeout")
		return ctx.Err()
	}
}

// Name implements the lifecycle.Component interface
func (s *Server) Name() string {
	return "API Server"
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() int {
	return s.port
}

// Handler returns the configured root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// getTracer returns a tracer for the given name
func (s *Server) getTracer(name string) trace.Tracer {
	if s.tracingProvider != nil && s.tracingProvider.IsEnabled() {
		return s.tracingProvider.GetTracer(name)
	}
	return otel.GetTracerProvider().Tracer(name)
}
