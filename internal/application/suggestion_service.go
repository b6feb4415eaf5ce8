package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/cscx-ai/draftd/internal/domain/collection"
	"github.com/cscx-ai/draftd/internal/domain/document"
)

// suggestionFailure is the user-visible message for any failed fetch.
const suggestionFailure = "Failed to get suggestion"

// SuggestionRequest is the payload sent to the suggestion endpoint.
type SuggestionRequest struct {
	SectionTitle   string `json:"sectionTitle"`
	SectionContent string `json:"sectionContent"`
	DocumentTitle  string `json:"documentTitle"`
	CustomerID     string `json:"customerId"`
}

// SuggestClient fetches an AI suggestion for one section.
type SuggestClient interface {
	Suggest(ctx context.Context, req SuggestionRequest) (string, error)
}

// SuggestionState is the per-entity fetch state. States are keyed by
// session and entity id, never by request order, so a slow response for one
// entity can never clobber a faster response for another.
type SuggestionState struct {
	Loading    bool   `json:"loading"`
	Suggestion string `json:"suggestion,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SuggestionService tracks independent suggestion fetches per draft entity.
// Failures are scoped to the triggering entity and never touch the draft.
type SuggestionService struct {
	client SuggestClient

	mu     sync.Mutex
	states map[string]map[string]SuggestionState
}

// NewSuggestionService creates the service.
func NewSuggestionService(client SuggestClient) *SuggestionService {
	return &SuggestionService{
		client: client,
		states: make(map[string]map[string]SuggestionState),
	}
}

// Request fetches a suggestion for one entity of a draft snapshot. The
// entity's loading flag is set for the duration of the fetch; concurrent
// requests for other entities proceed independently with no ordering
// guarantee between their completions. Taking a snapshot rather than the
// live session keeps the fetch off the session's lock entirely.
func (s *SuggestionService) Request(ctx context.Context, view *DraftView, entityID string) (SuggestionState, error) {
	entity, ok := findEntity(view, entityID)
	if !ok {
		return SuggestionState{}, fmt.Errorf("entity %q not found in session %s", entityID, view.SessionID)
	}

	req := SuggestionRequest{
		SectionTitle:   stringValue(entity["title"]),
		SectionContent: stringValue(entity["content"]),
		DocumentTitle:  stringValue(view.Draft["title"]),
		CustomerID:     view.CustomerID,
	}

	s.set(view.SessionID, entityID, SuggestionState{Loading: true})

	suggestion, err := s.client.Suggest(ctx, req)
	if err != nil {
		state := SuggestionState{Error: suggestionFailure}
		s.set(view.SessionID, entityID, state)
		return state, fmt.Errorf("suggest for entity %q: %w", entityID, err)
	}

	state := SuggestionState{Suggestion: suggestion}
	s.set(view.SessionID, entityID, state)
	return state, nil
}

// State returns the fetch state for one entity.
func (s *SuggestionService) State(sessionID, entityID string) (SuggestionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[sessionID][entityID]
	return state, ok
}

// Clear drops the stored state for one entity, typically after the user
// applied or dismissed the suggestion.
func (s *SuggestionService) Clear(sessionID, entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states[sessionID], entityID)
}

// ClearSession drops all states for a closed session.
func (s *SuggestionService) ClearSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
}

func (s *SuggestionService) set(sessionID, entityID string, state SuggestionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states[sessionID] == nil {
		s.states[sessionID] = make(map[string]SuggestionState)
	}
	s.states[sessionID][entityID] = state
}

// findEntity searches every declared collection of the snapshot's kind.
func findEntity(view *DraftView, entityID string) (map[string]any, bool) {
	def, err := document.Lookup(view.Kind)
	if err != nil {
		return nil, false
	}
	for _, path := range def.Collections {
		items, ok := view.Draft[path].([]any)
		if !ok {
			continue
		}
		if entity, found := collection.FindByID(items, entityID); found {
			return entity, true
		}
	}
	return nil, false
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
