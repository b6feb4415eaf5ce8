package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cscx-ai/draftd/internal/domain/document"
	"github.com/cscx-ai/draftd/internal/domain/session"
)

type openRequest struct {
	Kind       document.Kind  `json:"kind"`
	CustomerID string         `json:"customer_id"`
	Customer   map[string]any `json:"customer"`
	Document   map[string]any `json:"document"`
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
		return
	}

	record, err := s.sessions.Open(req.Kind, req.CustomerID, req.Customer, req.Document)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.sessions.List()
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

type setFieldRequest struct {
	Path            string `json:"path"`
	Value           any    `json:"value"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	var req setFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
		return
	}

	record, err := s.sessions.SetField(mux.Vars(r)["id"], req.Path, req.Value, versionOrSkip(req.ExpectedVersion))
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

type collectionRequest struct {
	session.CollectionOp
	ExpectedVersion *int `json:"expected_version,omitempty"`
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
		return
	}

	record, err := s.sessions.ApplyCollection(mux.Vars(r)["id"], req.CollectionOp, versionOrSkip(req.ExpectedVersion))
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	record, err := s.sessions.Save(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if record != nil {
			// The host rejected the save: the session is in error state with
			// the message recorded and the draft intact.
			respondJSON(w, http.StatusBadGateway, record)
			return
		}
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

type cancelRequest struct {
	Confirmed bool `json:"confirmed"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	id := mux.Vars(r)["id"]
	if err := s.sessions.Cancel(id, req.Confirmed); err != nil {
		s.respondError(w, err)
		return
	}
	s.suggestions.ClearSession(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	record, err := s.sessions.Reset(mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// handlePipeline serves the projected renewal-pipeline view: accounts
// filtered by the draft's stage_filter and ordered by its sort_by field.
// The stored account order is never changed by this read.
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	record, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, err)
		return
	}
	if record.Kind != document.KindRenewalPipeline {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "session is not a renewal_pipeline draft"})
		return
	}

	accounts, _ := record.Draft["accounts"].([]any)
	stage, _ := record.Draft["stage_filter"].(string)
	sortBy, _ := record.Draft["sort_by"].(string)

	projected := document.SortAccounts(document.FilterAccounts(accounts, stage), sortBy)
	respondJSON(w, http.StatusOK, map[string]any{
		"accounts":     projected,
		"stage_filter": stage,
		"sort_by":      sortBy,
	})
}

// handleROI serves the derived return-on-investment readout of a
// value-summary draft.
func (s *Server) handleROI(w http.ResponseWriter, r *http.Request) {
	record, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, err)
		return
	}
	if record.Kind != document.KindValueSummary {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "session is not a value_summary draft"})
		return
	}
	respondJSON(w, http.StatusOK, document.ComputeROI(record.Draft))
}

type suggestRequest struct {
	EntityID string `json:"entity_id"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
		return
	}

	id := mux.Vars(r)["id"]
	view, err := s.sessions.DraftSnapshot(id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	state, err := s.suggestions.Request(r.Context(), view, req.EntityID)
	if err != nil && state.Error == "" {
		s.respondError(w, err)
		return
	}
	// A failed fetch is scoped to the entity: 200 with the error in the
	// entity's state, the draft untouched.
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSuggestionState(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	state, ok := s.suggestions.State(vars["id"], vars["entityID"])
	if !ok {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "no suggestion state"})
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSuggestionClear(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.suggestions.Clear(vars["id"], vars["entityID"])
	w.WriteHeader(http.StatusNoContent)
}

func versionOrSkip(v *int) int {
	if v == nil {
		return -1
	}
	return *v
}
