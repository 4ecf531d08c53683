package httpapi

import (
	"net/http"
	"strings"
)

type prepareRequest struct {
	AccountID string `json:"account_id"`
	IDToken   string `json:"id_token"`
}

type activateRequest struct {
	IDToken string `json:"id_token"`
}

type activateResponse struct {
	SessionID string `json:"session_id"`
	ViewerID  int64  `json:"viewer_id"`
}

func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) {
	var req prepareRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.AccountID) == "" || strings.TrimSpace(req.IDToken) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "account_id and id_token are required")
		return
	}

	if err := s.sessions.Prepare(r.Context(), req.AccountID, req.IDToken); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.metrics.SessionEvents.WithLabelValues("prepared").Inc()
	respondJSON(w, http.StatusOK, map[string]any{"status": "prepared"})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "id_token is required")
		return
	}

	sessionID, err := s.sessions.Activate(r.Context(), req.IDToken)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	sess, err := s.sessions.LoadByID(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.metrics.SessionEvents.WithLabelValues("activated").Inc()
	respondJSON(w, http.StatusOK, activateResponse{SessionID: sessionID, ViewerID: sess.ViewerID})
}

// handleViewer serves the signup flow: resolve an identity token to its
// viewer id without activating the session.
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	idToken := strings.TrimSpace(r.URL.Query().Get("id_token"))
	if idToken == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "query parameter id_token is required")
		return
	}

	sess, err := s.sessions.LoadByToken(r.Context(), idToken)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"viewer_id": sess.ViewerID})
}
