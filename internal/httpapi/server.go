package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lucavassos/arcadia/internal/cache"
	"github.com/lucavassos/arcadia/internal/config"
	"github.com/lucavassos/arcadia/internal/observability"
	"github.com/lucavassos/arcadia/internal/repeat"
	"github.com/lucavassos/arcadia/internal/savefile"
	"github.com/lucavassos/arcadia/internal/session"
)

type Server struct {
	cfg      config.Config
	sessions *session.Service
	repeats  *repeat.Service
	saves    savefile.Store
	metrics  *observability.Metrics
}

func New(cfg config.Config, sessions *session.Service, repeats *repeat.Service, saves savefile.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		repeats:  repeats,
		saves:    saves,
		metrics:  metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/auth/prepare", s.handlePrepare)
	r.Post("/v1/auth/activate", s.handleActivate)
	r.Get("/v1/auth/viewer", s.handleViewer)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Post("/v1/repeat/configure", s.handleRepeatConfigure)
		r.Post("/v1/repeat/record", s.handleRepeatRecord)
		r.Post("/v1/repeat/clear", s.handleRepeatClear)
		r.Post("/v1/quest/clear_party", s.handleSetClearParty)
		r.Get("/v1/quest/clear_party", s.handleGetClearParty)
		r.Post("/v1/time_attack/record", s.handleTimeAttackRecord)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(r.Method, route, time.Since(start))
	})
}

type contextKey string

const sessionContextKey contextKey = "session"

// requireSession resolves the bearer session id into the cached session
// record. The read also refreshes the session's sliding TTL.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		sessionID, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(sessionID) == "" {
			respondError(w, http.StatusUnauthorized, "session_not_found", "missing bearer session id")
			return
		}

		sess, err := s.sessions.LoadByID(r.Context(), strings.TrimSpace(sessionID))
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) session.Session {
	sess, _ := ctx.Value(sessionContextKey).(session.Session)
	return sess
}

// respondServiceError maps the typed service errors onto the wire.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cache.ErrUnavailable):
		route := chi.RouteContext(r.Context()).RoutePattern()
		s.metrics.CacheErrors.WithLabelValues(route).Inc()
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "ephemeral store unreachable")
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusUnauthorized, "session_not_found", "session expired or unknown; re-authenticate")
	case errors.Is(err, savefile.ErrPlayerNotFound):
		respondError(w, http.StatusNotFound, "player_not_found", "no savefile for this account")
	case errors.Is(err, repeat.ErrInvalidToken):
		s.metrics.RepeatEvents.WithLabelValues("rejected").Inc()
		respondError(w, http.StatusConflict, "invalid_repeat_key", "repeat run state was lost; reconfigure and start over")
	case errors.Is(err, repeat.ErrLimitReached):
		s.metrics.RepeatEvents.WithLabelValues("limit_reached").Inc()
		respondError(w, http.StatusConflict, "repeat_limit_reached", "configured repeat count exhausted")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
