package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cscx-ai/draftd/internal/application"
	"github.com/cscx-ai/draftd/internal/domain/document"
	"github.com/cscx-ai/draftd/internal/domain/session"
)

func openSession(t *testing.T) *session.Session {
	t.Helper()
	sess, err := session.New(document.KindOutline, "cust-1", nil, outlineDoc())
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

func draftView(sess *session.Session) *application.DraftView {
	return &application.DraftView{
		SessionID:  sess.ID(),
		Kind:       sess.Kind(),
		CustomerID: sess.CustomerID(),
		Draft:      sess.Draft(),
	}
}

func TestSuggestionService_Request(t *testing.T) {
	client := &MockSuggestClient{Responses: map[string]string{"Intro": "a better intro"}}
	svc := application.NewSuggestionService(client)
	sess := openSession(t)
	view := draftView(sess)

	state, err := svc.Request(context.Background(), view, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if state.Suggestion != "a better intro" {
		t.Errorf("unexpected suggestion: %q", state.Suggestion)
	}
	if state.Loading {
		t.Error("settled state should not be loading")
	}

	// The request carries the section and document context.
	if len(client.Requests) != 1 {
		t.Fatalf("expected one request, got %d", len(client.Requests))
	}
	req := client.Requests[0]
	if req.SectionTitle != "Intro" || req.SectionContent != "hello" {
		t.Errorf("unexpected section payload: %+v", req)
	}
	if req.DocumentTitle != "Q3 Outline" || req.CustomerID != "cust-1" {
		t.Errorf("unexpected document payload: %+v", req)
	}

	got, ok := svc.State(sess.ID(), "s1")
	if !ok || got.Suggestion != "a better intro" {
		t.Error("state was not stored per entity")
	}
}

func TestSuggestionService_UnknownEntity(t *testing.T) {
	svc := application.NewSuggestionService(&MockSuggestClient{})
	sess := openSession(t)

	_, err := svc.Request(context.Background(), draftView(sess), "ghost")
	if err == nil {
		t.Fatal("expected error for unknown entity")
	}
}

func TestSuggestionService_FailureScopedToEntity(t *testing.T) {
	client := &MockSuggestClient{Err: errors.New("upstream down")}
	svc := application.NewSuggestionService(client)
	sess := openSession(t)

	before := sess.Draft()

	state, err := svc.Request(context.Background(), draftView(sess), "s1")
	if err == nil {
		t.Fatal("expected error")
	}
	if state.Error != "Failed to get suggestion" {
		t.Errorf("expected generic failure message, got %q", state.Error)
	}

	// Only the triggering entity carries the failure.
	if _, ok := svc.State(sess.ID(), "s2"); ok {
		t.Error("failure leaked to a sibling entity")
	}

	// The draft is never touched by a suggestion fetch.
	if len(before) != len(sess.Draft()) || sess.Modified() {
		t.Error("suggestion failure must not touch the draft")
	}

	// A later retry for the same entity replaces the failure.
	client.Err = nil
	state, err = svc.Request(context.Background(), draftView(sess), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if state.Error != "" || state.Suggestion == "" {
		t.Errorf("retry should replace the failure: %+v", state)
	}
}

func TestSuggestionService_OutOfOrderCompletions(t *testing.T) {
	client := &blockingSuggestClient{release: make(chan string)}
	svc := application.NewSuggestionService(client)
	sess := openSession(t)
	view := draftView(sess)

	var wg sync.WaitGroup
	results := make(map[string]application.SuggestionState)
	var mu sync.Mutex

	request := func(entityID string) {
		defer wg.Done()
		state, err := svc.Request(context.Background(), view, entityID)
		if err != nil {
			t.Errorf("request %s: %v", entityID, err)
			return
		}
		mu.Lock()
		results[entityID] = state
		mu.Unlock()
	}

	wg.Add(2)
	go request("s1")
	go request("s2")

	// Both entities are loading while their fetches are in flight.
	waitLoading := func(entityID string) {
		for {
			if state, ok := svc.State(sess.ID(), entityID); ok && state.Loading {
				return
			}
		}
	}
	waitLoading("s1")
	waitLoading("s2")

	// Complete in some order; each response lands on whichever request
	// receives it, and states stay keyed by entity.
	client.release <- "first response"
	client.release <- "second response"
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	got := map[string]bool{results["s1"].Suggestion: true, results["s2"].Suggestion: true}
	if !got["first response"] || !got["second response"] {
		t.Errorf("responses were dropped or clobbered: %+v", results)
	}

	s1, _ := svc.State(sess.ID(), "s1")
	s2, _ := svc.State(sess.ID(), "s2")
	if s1.Suggestion != results["s1"].Suggestion || s2.Suggestion != results["s2"].Suggestion {
		t.Error("stored states do not match each entity's own result")
	}
}

func TestSuggestionService_ConcurrentWithFieldEdits(t *testing.T) {
	repo := NewMockRepo()
	sessions := application.NewSessionService(repo, &MockSaver{}, nil)
	record, err := sessions.Open(document.KindOutline, "cust-1", nil, outlineDoc())
	if err != nil {
		t.Fatal(err)
	}

	client := &MockSuggestClient{Responses: map[string]string{"Intro": "ok"}}
	svc := application.NewSuggestionService(client)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := sessions.SetField(record.ID, "title", "edited", -1); err != nil {
				t.Errorf("set field: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			view, err := sessions.DraftSnapshot(record.ID)
			if err != nil {
				t.Errorf("snapshot: %v", err)
				return
			}
			if _, err := svc.Request(context.Background(), view, "s1"); err != nil {
				t.Errorf("request: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	state, ok := svc.State(record.ID, "s1")
	if !ok || state.Suggestion != "ok" {
		t.Errorf("suggestion state lost under concurrent edits: %+v", state)
	}
}

func TestSuggestionService_Clear(t *testing.T) {
	svc := application.NewSuggestionService(&MockSuggestClient{})
	sess := openSession(t)
	view := draftView(sess)

	if _, err := svc.Request(context.Background(), view, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Request(context.Background(), view, "s2"); err != nil {
		t.Fatal(err)
	}

	svc.Clear(sess.ID(), "s1")
	if _, ok := svc.State(sess.ID(), "s1"); ok {
		t.Error("cleared entity state should be gone")
	}
	if _, ok := svc.State(sess.ID(), "s2"); !ok {
		t.Error("sibling state should survive a single clear")
	}

	svc.ClearSession(sess.ID())
	if _, ok := svc.State(sess.ID(), "s2"); ok {
		t.Error("session clear should drop all states")
	}
}
