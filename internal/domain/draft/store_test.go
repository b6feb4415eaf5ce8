package draft_test

import (
	"errors"
	"testing"

	"github.com/cscx-ai/draftd/internal/domain/draft"
)

func sampleDoc() map[string]any {
	return map[string]any{
		"title": "Q3 Outline",
		"meta":  map[string]any{"owner": "sam"},
		"sections": []any{
			map[string]any{"id": "s1", "title": "Intro", "content": "hello"},
			map[string]any{"id": "s2", "title": "Goals", "content": "world"},
		},
	}
}

func TestNewStore_NilDocument(t *testing.T) {
	_, err := draft.NewStore(nil)
	if !errors.Is(err, draft.ErrNilDocument) {
		t.Fatalf("expected ErrNilDocument, got %v", err)
	}
}

func TestNewStore_IndependentOfCaller(t *testing.T) {
	doc := sampleDoc()
	store, err := draft.NewStore(doc)
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's document must not show through.
	doc["title"] = "tampered"
	doc["sections"].([]any)[0].(map[string]any)["title"] = "tampered"

	if got, _ := store.Field("title"); got != "Q3 Outline" {
		t.Errorf("draft title changed with caller mutation: %v", got)
	}
	if store.Modified() {
		t.Error("store reported modified after caller-side mutation")
	}
}

func TestStore_FreshStoreIsUnmodified(t *testing.T) {
	store, err := draft.NewStore(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}
	if store.Modified() {
		t.Error("fresh store should not be modified")
	}
	if paths := store.ChangedPaths(); len(paths) != 0 {
		t.Errorf("fresh store has changed paths: %v", paths)
	}
}

func TestStore_SetField(t *testing.T) {
	store, err := draft.NewStore(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SetField("title", "Renamed"); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Field("title"); got != "Renamed" {
		t.Errorf("expected Renamed, got %v", got)
	}
	if !store.Modified() {
		t.Error("expected modified after field edit")
	}

	// Nested path with existing intermediate object.
	if err := store.SetField("meta.owner", "lee"); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Field("meta.owner"); got != "lee" {
		t.Errorf("expected lee, got %v", got)
	}
}

func TestStore_SetField_BadPaths(t *testing.T) {
	store, err := draft.NewStore(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SetField("", "x"); !errors.Is(err, draft.ErrBadPath) {
		t.Errorf("empty path: expected ErrBadPath, got %v", err)
	}
	// "title" is a string, not an object to descend into.
	if err := store.SetField("title.sub", "x"); !errors.Is(err, draft.ErrBadPath) {
		t.Errorf("scalar intermediate: expected ErrBadPath, got %v", err)
	}
	if err := store.SetField("missing.sub", "x"); !errors.Is(err, draft.ErrBadPath) {
		t.Errorf("missing intermediate: expected ErrBadPath, got %v", err)
	}
	if store.Modified() {
		t.Error("refused edits must leave the draft untouched")
	}
}

func TestStore_RevertClearsModified(t *testing.T) {
	store, err := draft.NewStore(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SetField("title", "Changed"); err != nil {
		t.Fatal(err)
	}
	if !store.Modified() {
		t.Fatal("expected modified after edit")
	}

	// Setting the field back to its original value compares structurally
	// equal, so the flag clears without an explicit reset.
	if err := store.SetField("title", "Q3 Outline"); err != nil {
		t.Fatal(err)
	}
	if store.Modified() {
		t.Error("reverted edit should clear the modified flag")
	}
}

func TestStore_Reset(t *testing.T) {
	store, err := draft.NewStore(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SetField("title", "Changed"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetField("meta.owner", "lee"); err != nil {
		t.Fatal(err)
	}
	if err := store.Reset(); err != nil {
		t.Fatal(err)
	}

	if store.Modified() {
		t.Error("reset store should not be modified")
	}
	if got, _ := store.Field("title"); got != "Q3 Outline" {
		t.Errorf("reset did not restore title: %v", got)
	}
}

func TestStore_ChangedPaths(t *testing.T) {
	store, err := draft.NewStore(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SetField("title", "Changed"); err != nil {
		t.Fatal(err)
	}
	paths := store.ChangedPaths()
	if len(paths) == 0 {
		t.Fatal("expected at least one changed path")
	}
}

func TestStore_Collection(t *testing.T) {
	store, err := draft.NewStore(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}

	items, err := store.Collection("sections")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(items))
	}

	// The returned slice is a copy.
	items[0].(map[string]any)["title"] = "tampered"
	if store.Modified() {
		t.Error("mutating the returned collection must not touch the draft")
	}

	if _, err := store.Collection("title"); !errors.Is(err, draft.ErrNotCollection) {
		t.Errorf("expected ErrNotCollection, got %v", err)
	}
	if _, err := store.Collection("nope"); !errors.Is(err, draft.ErrBadPath) {
		t.Errorf("expected ErrBadPath, got %v", err)
	}
}

func TestStore_ReplaceCollection(t *testing.T) {
	store, err := draft.NewStore(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}

	items, err := store.Collection("sections")
	if err != nil {
		t.Fatal(err)
	}
	items = append(items, map[string]any{"id": "s3", "title": "Wrap-up"})

	if err := store.ReplaceCollection("sections", items); err != nil {
		t.Fatal(err)
	}
	got, err := store.Collection("sections")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 sections after replace, got %d", len(got))
	}
	if !store.Modified() {
		t.Error("expected modified after collection replace")
	}

	if err := store.ReplaceCollection("nope", items); !errors.Is(err, draft.ErrBadPath) {
		t.Errorf("expected ErrBadPath, got %v", err)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	store, err := draft.NewStore(sampleDoc())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetField("title", "Changed"); err != nil {
		t.Fatal(err)
	}

	restored, err := draft.Restore(store.Original(), store.Draft())
	if err != nil {
		t.Fatal(err)
	}
	if !restored.Modified() {
		t.Error("restored store should still be modified")
	}
	if got, _ := restored.Field("title"); got != "Changed" {
		t.Errorf("restored draft lost the edit: %v", got)
	}

	if _, err := draft.Restore(nil, map[string]any{}); !errors.Is(err, draft.ErrNilDocument) {
		t.Errorf("expected ErrNilDocument, got %v", err)
	}
}
