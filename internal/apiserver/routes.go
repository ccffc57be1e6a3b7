package apiserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerHandlers registers all HTTP handlers
func (s *Server) registerHandlers() {
	s.router.HandleFunc("/v1/draft", s.withMethod(http.MethodPost, s.handleDraft))

	s.registerHealthEndpoints()

	s.router.Handle("/metrics", promhttp.Handler())
}

// registerHealthEndpoints registers health and readiness check endpoints
func (s *Server) registerHealthEndpoints() {
	s.router.HandleFunc("/healthz", s.handleHealth)
	s.router.HandleFunc("/readyz", s.handleReady)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
	})
}

// handleReady handles readiness check requests
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready := s.readinessChecker != nil && s.readinessChecker.IsReady()

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"ready": ready,
	})
}
