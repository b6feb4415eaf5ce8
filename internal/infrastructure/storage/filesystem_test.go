package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cscx-ai/draftd/internal/domain/events"
	"github.com/cscx-ai/draftd/internal/domain/session"
)

func testRecord(id string) *session.Record {
	return &session.Record{
		ID:   id,
		Kind: "outline",
		Original: map[string]any{
			"title":    "Q3 Outline",
			"sections": []any{map[string]any{"id": "s1", "title": "Intro"}},
		},
		Draft: map[string]any{
			"title":    "Edited",
			"sections": []any{map[string]any{"id": "s1", "title": "Intro"}},
		},
		Version:   2,
		Status:    session.StatusIdle,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestFilesystemRepository_RoundTrip(t *testing.T) {
	tempDir, _ := os.MkdirTemp("", "draftd-storage-*")
	defer os.RemoveAll(tempDir)

	repo := NewFilesystemRepository(tempDir)

	if repo.IsInitialized() {
		t.Error("fresh workspace should not be initialized")
	}
	if err := repo.Initialize(); err != nil {
		t.Fatal(err)
	}
	if !repo.IsInitialized() {
		t.Error("expected initialized")
	}

	record := testRecord("sess-1")
	if err := repo.Save(record); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.Load("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ID != "sess-1" || loaded.Version != 2 {
		t.Errorf("unexpected record: %+v", loaded)
	}
	if loaded.Draft["title"] != "Edited" {
		t.Error("draft did not round-trip")
	}

	records, err := repo.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	if err := repo.Delete("sess-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Load("sess-1"); err == nil {
		t.Error("expected error loading a deleted session")
	}

	// Deleting again is tolerated.
	if err := repo.Delete("sess-1"); err != nil {
		t.Errorf("double delete should be a no-op: %v", err)
	}
}

func TestFilesystemRepository_List(t *testing.T) {
	tempDir, _ := os.MkdirTemp("", "draftd-storage-*")
	defer os.RemoveAll(tempDir)

	repo := NewFilesystemRepository(tempDir)

	// Listing before init is empty, not an error.
	records, err := repo.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty list, got %d", len(records))
	}

	if err := repo.Initialize(); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Save(testRecord(id)); err != nil {
			t.Fatal(err)
		}
	}

	// Corrupt files are skipped, not fatal.
	bad := filepath.Join(repo.SessionsPath(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	records, err = repo.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
}

func TestResolveSessionPath_Security(t *testing.T) {
	tempDir, _ := os.MkdirTemp("", "draftd-storage-*")
	defer os.RemoveAll(tempDir)

	repo := NewFilesystemRepository(tempDir)

	cases := []string{
		"",
		"../escape",
		"../../etc/passwd",
		"nested/inside",
	}
	for _, id := range cases {
		if _, err := repo.ResolveSessionPath(id); err == nil {
			t.Errorf("id %q should be refused", id)
		}
	}

	path, err := repo.ResolveSessionPath("good-id")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != repo.SessionsPath() {
		t.Errorf("resolved path escapes the sessions dir: %s", path)
	}
}

func TestInMemoryEventPublisher(t *testing.T) {
	publisher := NewInMemoryEventPublisher()

	got := 0
	publisher.Subscribe(func(e *events.Event) error {
		got++
		return nil
	})

	if err := publisher.Publish(&events.Event{Type: "session.opened"}); err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("expected 1 delivery, got %d", got)
	}
}
