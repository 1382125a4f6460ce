package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/trace"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

type traceResponse struct {
	SessionID string                `json:"session_id"`
	Events    []models.TraceEvent   `json:"events"`
	Summary   trace.SecuritySummary `json:"summary"`
}

// handleTrace is GET /v1/sessions/{sessionID}/trace: the accumulated event
// timeline and security summary for one session.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	events, summary, ok := s.store.Timeline(sessionID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown session"})
		return
	}

	writeJSON(w, http.StatusOK, traceResponse{
		SessionID: sessionID,
		Events:    events,
		Summary:   summary,
	})
}
