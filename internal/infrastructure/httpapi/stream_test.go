package httpapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cscx-ai/draftd/internal/application"
	"github.com/cscx-ai/draftd/internal/domain/events"
	"github.com/cscx-ai/draftd/internal/infrastructure/httpapi"
	"github.com/cscx-ai/draftd/internal/infrastructure/storage"
)

func TestSSE_StreamsEvents(t *testing.T) {
	repo := storage.NewFilesystemRepository(t.TempDir())
	if err := repo.Initialize(); err != nil {
		t.Fatal(err)
	}

	publisher := storage.NewInMemoryEventPublisher()
	server := httpapi.NewServer(
		application.NewSessionService(repo, &fakeSaver{}, publisher),
		application.NewSuggestionService(&fakeSuggest{}),
		publisher,
		zerolog.Nop(),
	)

	ts := httptest.NewServer(server)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Publish after the client has connected, then cancel
	go func() {
		time.Sleep(300 * time.Millisecond)
		_ = publisher.Publish(&events.Event{
			ID:        "ev-1",
			Type:      events.TypeSessionModified,
			SessionID: "sess-1",
			Timestamp: time.Now(),
		})
		time.Sleep(500 * time.Millisecond)
		cancel()
	}()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %s", got)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "event: "+events.TypeSessionModified) {
		t.Errorf("event did not arrive on the stream: %q", string(body))
	}
}
