// Package draft maintains an editable draft of a document-shaped value next
// to an immutable snapshot of its initial state, and derives the modified
// flag by structural comparison.
package draft

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/brunoga/deep/v2"
)

var (
	// ErrNilDocument indicates the store was initialized without a document.
	ErrNilDocument = errors.New("initial document is nil")
	// ErrBadPath indicates a field path does not resolve to a settable location.
	ErrBadPath = errors.New("path does not resolve")
	// ErrNotCollection indicates the path resolves to a value that is not a collection.
	ErrNotCollection = errors.New("path is not a collection")
)

// Store holds the original snapshot and the live draft of one document.
// The original is never mutated after construction; the draft is replaced
// wholesale on every accepted update so comparisons stay honest.
type Store struct {
	original map[string]any
	draft    map[string]any
}

// NewStore deep-clones initial twice. Original, draft, and the caller's
// value share no references, so mutating the draft can never leak into the
// caller's object.
func NewStore(initial map[string]any) (*Store, error) {
	if initial == nil {
		return nil, ErrNilDocument
	}

	original, err := deep.Copy(initial)
	if err != nil {
		return nil, fmt.Errorf("snapshot original: %w", err)
	}
	working, err := deep.Copy(initial)
	if err != nil {
		return nil, fmt.Errorf("snapshot draft: %w", err)
	}

	return &Store{original: original, draft: working}, nil
}

// Restore rebuilds a store from a persisted original/draft pair, cloning
// both so the store owns its state exclusively.
func Restore(original, working map[string]any) (*Store, error) {
	if original == nil || working == nil {
		return nil, ErrNilDocument
	}

	orig, err := deep.Copy(original)
	if err != nil {
		return nil, fmt.Errorf("restore original: %w", err)
	}
	draft, err := deep.Copy(working)
	if err != nil {
		return nil, fmt.Errorf("restore draft: %w", err)
	}

	return &Store{original: orig, draft: draft}, nil
}

// Draft returns an independent copy of the live draft.
func (s *Store) Draft() map[string]any {
	out, err := deep.Copy(s.draft)
	if err != nil {
		// map[string]any of decoded JSON always copies cleanly
		return nil
	}
	return out
}

// Original returns an independent copy of the initial snapshot.
func (s *Store) Original() map[string]any {
	out, err := deep.Copy(s.original)
	if err != nil {
		return nil
	}
	return out
}

// SetField replaces the value at a dotted path, producing a new draft.
// Intermediate segments must already exist and be objects; the leaf key may
// be new. The previous draft value is never mutated in place.
func (s *Store) SetField(path string, value any) error {
	segments := strings.Split(path, ".")
	if path == "" || len(segments) == 0 {
		return fmt.Errorf("%w: empty path", ErrBadPath)
	}

	next, err := deep.Copy(s.draft)
	if err != nil {
		return fmt.Errorf("clone draft: %w", err)
	}

	parent := next
	for _, seg := range segments[:len(segments)-1] {
		child, ok := parent[seg].(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %q has no object at %q", ErrBadPath, path, seg)
		}
		parent = child
	}
	parent[segments[len(segments)-1]] = value

	s.draft = next
	return nil
}

// Field reads the value at a dotted path from the draft.
func (s *Store) Field(path string) (any, bool) {
	var current any = s.draft
	for _, seg := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Collection returns an independent copy of the entity collection at path.
func (s *Store) Collection(path string) ([]any, error) {
	value, ok := s.Field(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotCollection, path)
	}
	out, err := deep.Copy(items)
	if err != nil {
		return nil, fmt.Errorf("copy collection %q: %w", path, err)
	}
	return out, nil
}

// ReplaceCollection writes a new collection value at path.
func (s *Store) ReplaceCollection(path string, items []any) error {
	if _, err := s.Collection(path); err != nil {
		return err
	}
	return s.SetField(path, items)
}

// Modified reports whether the draft structurally differs from the original.
// Arrays are order-sensitive; values that are structurally equal compare
// equal regardless of identity, so reverting an edit clears the flag.
func (s *Store) Modified() bool {
	return len(s.ChangedPaths()) > 0
}

// ChangedPaths lists the paths at which the draft diverges from the
// original, sorted for stable output.
func (s *Store) ChangedPaths() []string {
	patch := deep.Diff(s.original, s.draft)
	if patch == nil {
		return nil
	}

	seen := make(map[string]struct{})
	_ = patch.Walk(func(path string, op deep.OpKind, oldValue, newValue any) error {
		seen[path] = struct{}{}
		return nil
	})

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Reset discards the draft back to the original snapshot.
func (s *Store) Reset() error {
	fresh, err := deep.Copy(s.original)
	if err != nil {
		return fmt.Errorf("reset draft: %w", err)
	}
	s.draft = fresh
	return nil
}
