package worker

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/leo-guinan/pathofgreatness/internal/fault"
	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// transitionRequest is the body of POST /api/transition.
type transitionRequest struct {
	SessionID string         `json:"session_id"`
	Action    string         `json:"action"`
	Data      models.JSONMap `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps a fault kind to its HTTP status.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch fault.KindOf(err) {
	case fault.KindNotFound:
		status = http.StatusNotFound
	case fault.KindInvalidInput, fault.KindInvalidState:
		status = http.StatusBadRequest
	case fault.KindGatewayTransient, fault.KindGatewayExhausted, fault.KindGatewayFatal, fault.KindDecode:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := s.engine.CreateSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": sessionID,
		"state":      string(models.StateWelcome),
	})
}

func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	snapshot, err := s.engine.GetSnapshot(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Service) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.engine.DeleteSession(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Service) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.New(fault.KindInvalidInput, "invalid request body: %v", err))
		return
	}
	if req.SessionID == "" {
		writeError(w, fault.InvalidInput("session_id"))
		return
	}

	result, err := s.engine.Transition(r.Context(), req.SessionID, req.Action, req.Data)
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcaster.PublishTransition(req.SessionID, string(result.FromState), string(result.NextState))
	if total, costErr := s.engine.CostReport(r.Context(), req.SessionID); costErr == nil {
		s.broadcaster.PublishCost(req.SessionID, total.TotalCostUSD)
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleGetCost(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	report, err := s.engine.CostReport(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Service) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	timeline, err := s.engine.Timeline(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if timeline == nil {
		timeline = []*models.TimelineEvent{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"timeline": timeline})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}
