package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/draftmate/draftmate/internal/workflow"
)

const maxDraftRequestBytes = 1 << 20 // 1 MiB

// handleDraft runs one drafting turn. The turn outcome (PASS, FAIL,
// BLOCKED) is carried in the response body; HTTP status reflects only
// transport-level problems.
func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	tracer := s.getTracer("draftmate/api")
	ctx, span := tracer.Start(r.Context(), "api.draft")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, maxDraftRequestBytes)

	var req workflow.Request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.logger.Warn("Rejecting malformed draft request: %v", err)
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "text is required")
		return
	}

	result, err := s.runner.Run(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusServiceUnavailable, "TURN_CANCELLED", "turn was cancelled before completion")
			return
		}
		s.logger.Error("Turn failed: %v", err)
		writeError(w, http.StatusInternalServerError, "TURN_FAILED", "internal error running drafting turn")
		return
	}

	span.SetAttributes(
		attribute.String("draft.outcome", string(result.Outcome)),
		attribute.Int("draft.retries", result.RetryCount),
	)

	writeJSON(w, http.StatusOK, result)
}
