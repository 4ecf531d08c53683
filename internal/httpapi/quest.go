package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/lucavassos/arcadia/internal/savefile"
)

type setClearPartyRequest struct {
	QuestID int32                     `json:"quest_id"`
	IsMulti bool                      `json:"is_multi"`
	Units   []savefile.ClearPartyUnit `json:"units"`
}

type clearPartyResponse struct {
	QuestID int32                     `json:"quest_id"`
	IsMulti bool                      `json:"is_multi"`
	Units   []savefile.ClearPartyUnit `json:"units"`
}

type timeAttackRequest struct {
	GameID    string          `json:"game_id"`
	TimeMS    int64           `json:"time_ms"`
	PartyInfo json.RawMessage `json:"party_info"`
}

func (s *Server) handleSetClearParty(w http.ResponseWriter, r *http.Request) {
	var req setClearPartyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.QuestID <= 0 || len(req.Units) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "quest_id and units are required")
		return
	}

	sess := sessionFrom(r.Context())
	if err := s.saves.SaveClearParty(r.Context(), sess.AccountID, req.QuestID, req.IsMulti, req.Units); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "saved"})
}

func (s *Server) handleGetClearParty(w http.ResponseWriter, r *http.Request) {
	questID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("quest_id")), 10, 32)
	if err != nil || questID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "query parameter quest_id is required")
		return
	}
	isMulti := r.URL.Query().Get("is_multi") == "true"

	sess := sessionFrom(r.Context())
	units, err := s.saves.GetClearParty(r.Context(), sess.AccountID, int32(questID), isMulti)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, clearPartyResponse{
		QuestID: int32(questID),
		IsMulti: isMulti,
		Units:   units,
	})
}

func (s *Server) handleTimeAttackRecord(w http.ResponseWriter, r *http.Request) {
	var req timeAttackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.GameID) == "" || req.TimeMS <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "game_id and time_ms are required")
		return
	}

	if len(req.PartyInfo) == 0 {
		req.PartyInfo = json.RawMessage("{}")
	}

	sess := sessionFrom(r.Context())
	clear := savefile.TimeAttackClear{
		GameID:    req.GameID,
		ViewerID:  sess.ViewerID,
		TimeMS:    req.TimeMS,
		PartyInfo: req.PartyInfo,
	}
	if err := s.saves.RecordTimeAttackClear(r.Context(), clear); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "recorded"})
}
