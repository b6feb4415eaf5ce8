// Package httpapi exposes the draft session operations over HTTP, plus SSE
// and WebSocket event streams.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/cscx-ai/draftd/internal/application"
	"github.com/cscx-ai/draftd/internal/domain/document"
	"github.com/cscx-ai/draftd/internal/domain/draft"
	"github.com/cscx-ai/draftd/internal/domain/events"
	"github.com/cscx-ai/draftd/internal/domain/session"
)

// Server routes the session API.
type Server struct {
	sessions    *application.SessionService
	suggestions *application.SuggestionService
	hub         *hub
	log         zerolog.Logger
	router      *mux.Router
}

// NewServer wires the handlers and event streams.
func NewServer(sessions *application.SessionService, suggestions *application.SuggestionService, publisher events.Publisher, log zerolog.Logger) *Server {
	s := &Server{
		sessions:    sessions,
		suggestions: suggestions,
		hub:         newHub(publisher),
		log:         log,
		router:      mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.logRequests)

	api.HandleFunc("/sessions", s.handleOpen).Methods(http.MethodPost)
	api.HandleFunc("/sessions", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/fields", s.handleSetField).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/collections", s.handleCollection).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/save", s.handleSave).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/cancel", s.handleCancel).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/pipeline", s.handlePipeline).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/roi", s.handleROI).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/suggestions", s.handleSuggest).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/suggestions/{entityID}", s.handleSuggestionState).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/suggestions/{entityID}", s.handleSuggestionClear).Methods(http.MethodDelete)
	api.HandleFunc("/events", s.handleSSE).Methods(http.MethodGet)
	api.HandleFunc("/events/ws", s.handleWebSocket).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error           string `json:"error"`
	ConfirmRequired bool   `json:"confirm_required,omitempty"`
}

// respondError maps domain refusals to status codes. Refusals are part of
// the editing contract, not failures, so they carry enough shape for the
// client to react (e.g. the confirm gate on cancel).
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrSessionNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrConfirmDiscard):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), ConfirmRequired: true})
	case errors.Is(err, session.ErrStaleVersion),
		errors.Is(err, session.ErrSessionSaving):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrMinimumSize):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrUnknownCollection),
		errors.Is(err, document.ErrUnknownKind),
		errors.Is(err, document.ErrInvalidDocument),
		errors.Is(err, draft.ErrBadPath),
		errors.Is(err, draft.ErrNotCollection),
		errors.Is(err, draft.ErrNilDocument):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.log.Error().Err(err).Msg("request failed")
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
