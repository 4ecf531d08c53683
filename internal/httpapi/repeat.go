package httpapi

import (
	"errors"
	"net/http"

	"github.com/lucavassos/arcadia/internal/payload"
	"github.com/lucavassos/arcadia/internal/repeat"
)

type repeatConfigureRequest struct {
	RepeatType  string  `json:"repeat_type"`
	UseItemList []int32 `json:"use_item_list"`
	RepeatCount int32   `json:"repeat_count"`
}

type repeatRecordRequest struct {
	RepeatKey    string         `json:"repeat_key"`
	IngameResult payload.Result `json:"ingame_result"`
	UpdateData   payload.Update `json:"update_data"`
}

type repeatRecordResponse struct {
	RepeatKey   string `json:"repeat_key"`
	RepeatCount int32  `json:"repeat_count"`
	RepeatState int32  `json:"repeat_state"`
}

type repeatClearResponse struct {
	Cleared      bool            `json:"cleared"`
	RepeatKey    string          `json:"repeat_key,omitempty"`
	RepeatCount  int32           `json:"repeat_count,omitempty"`
	IngameResult *payload.Result `json:"ingame_result,omitempty"`
	UpdateData   *payload.Update `json:"update_data,omitempty"`
}

func (s *Server) handleRepeatConfigure(w http.ResponseWriter, r *http.Request) {
	var req repeatConfigureRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	sess := sessionFrom(r.Context())
	err := s.repeats.Configure(r.Context(), sess.ViewerID, repeat.Policy(req.RepeatType), req.UseItemList, req.RepeatCount)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.metrics.RepeatEvents.WithLabelValues("configured").Inc()
	respondJSON(w, http.StatusOK, map[string]any{"status": "configured"})
}

func (s *Server) handleRepeatRecord(w http.ResponseWriter, r *http.Request) {
	var req repeatRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	sess := sessionFrom(r.Context())
	st, err := s.repeats.Record(r.Context(), sess.ViewerID, req.RepeatKey, req.IngameResult, req.UpdateData)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.metrics.RepeatIterations.Inc()
	respondJSON(w, http.StatusOK, repeatRecordResponse{
		RepeatKey:   st.Token,
		RepeatCount: st.CurrentCount,
		RepeatState: 1,
	})
}

func (s *Server) handleRepeatClear(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	st, err := s.repeats.Clear(r.Context(), sess.ViewerID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if st == nil {
		respondJSON(w, http.StatusOK, repeatClearResponse{Cleared: false})
		return
	}
	s.metrics.RepeatEvents.WithLabelValues("cleared").Inc()
	respondJSON(w, http.StatusOK, repeatClearResponse{
		Cleared:      true,
		RepeatKey:    st.Token,
		RepeatCount:  st.CurrentCount,
		IngameResult: &st.Result,
		UpdateData:   &st.Updates,
	})
}
