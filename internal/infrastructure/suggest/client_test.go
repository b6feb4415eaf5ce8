package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cscx-ai/draftd/internal/application"
)

func TestClient_Suggest(t *testing.T) {
	var gotPath string
	var gotHeader string
	var gotReq application.SuggestionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeader = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]string{"suggestion": "a sharper intro"})
	}))
	defer server.Close()

	client := NewClient(server.URL, map[string]string{"Authorization": "Bearer tok"}, time.Second)

	got, err := client.Suggest(context.Background(), application.SuggestionRequest{
		SectionTitle:   "Intro",
		SectionContent: "hello",
		DocumentTitle:  "Q3 Outline",
		CustomerID:     "cust-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "a sharper intro" {
		t.Errorf("unexpected suggestion: %q", got)
	}
	if gotPath != "/api/cadg/document/suggest" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotHeader != "Bearer tok" {
		t.Error("configured header was not forwarded")
	}
	if gotReq.SectionTitle != "Intro" || gotReq.CustomerID != "cust-1" {
		t.Errorf("unexpected request payload: %+v", gotReq)
	}
}

func TestClient_Suggest_NonOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, time.Second)
	if _, err := client.Suggest(context.Background(), application.SuggestionRequest{}); err == nil {
		t.Error("expected error on non-2xx response")
	}
}

func TestClient_Suggest_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{"suggestion": "late"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, 20*time.Millisecond)
	if _, err := client.Suggest(context.Background(), application.SuggestionRequest{}); err == nil {
		t.Error("expected timeout error")
	}
}

func TestClient_Suggest_Unconfigured(t *testing.T) {
	client := NewClient("", nil, time.Second)
	if _, err := client.Suggest(context.Background(), application.SuggestionRequest{}); err == nil {
		t.Error("expected error without a base URL")
	}
}
