// Package session owns the editable draft of one document: the draft/
// original pair, the collection mutations with their per-kind rules, and
// the save/cancel lifecycle around the host's save collaborator.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brunoga/deep/v2"
	"github.com/google/uuid"

	"github.com/cscx-ai/draftd/internal/domain/collection"
	"github.com/cscx-ai/draftd/internal/domain/document"
	"github.com/cscx-ai/draftd/internal/domain/draft"
)

// fallbackSaveError is shown when the host's save rejects without a message.
const fallbackSaveError = "Failed to save document"

var (
	// ErrSessionSaving indicates a mutation or cancel arrived while a save
	// is in flight.
	ErrSessionSaving = errors.New("session is saving")
	// ErrConfirmDiscard indicates a cancel on a modified draft needs an
	// explicit confirmation before the changes are discarded.
	ErrConfirmDiscard = errors.New("draft has unsaved changes; confirm discard")
	// ErrUnknownCollection indicates an operation named a collection the
	// document kind does not declare.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrMinimumSize indicates a removal would drop a collection below its
	// declared minimum; the removal is refused and the collection unchanged.
	ErrMinimumSize = errors.New("collection is at its minimum size")
	// ErrStaleVersion indicates the caller's expected version no longer
	// matches the session, i.e. another writer got there first.
	ErrStaleVersion = errors.New("session version is stale")
)

// OpKind names a collection mutation.
type OpKind string

const (
	OpInsert OpKind = "insert"
	OpPatch  OpKind = "patch"
	OpRemove OpKind = "remove"
	OpToggle OpKind = "toggle"
	OpMove   OpKind = "move"
)

// CollectionOp is one mutation against an entity collection of the draft.
type CollectionOp struct {
	Collection string               `json:"collection"`
	Op         OpKind               `json:"op"`
	EntityID   string               `json:"entity_id,omitempty"`
	Entity     map[string]any       `json:"entity,omitempty"`
	Fields     map[string]any       `json:"fields,omitempty"`
	Flag       string               `json:"flag,omitempty"`
	Direction  collection.Direction `json:"direction,omitempty"`
}

// Record is the persisted form of a session. Modified and ChangedPaths are
// derived from the draft/original pair when the record is snapshotted;
// Hydrate recomputes them rather than trusting the stored values.
type Record struct {
	ID           string         `json:"id"`
	Kind         document.Kind  `json:"kind"`
	CustomerID   string         `json:"customer_id,omitempty"`
	Customer     map[string]any `json:"customer,omitempty"`
	Original     map[string]any `json:"original"`
	Draft        map[string]any `json:"draft"`
	Version      int            `json:"version"`
	Status       Status         `json:"status"`
	SaveError    string         `json:"save_error,omitempty"`
	Modified     bool           `json:"modified"`
	ChangedPaths []string       `json:"changed_paths,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Session is the live aggregate. All access goes through its methods; the
// embedded store and lifecycle are never shared.
type Session struct {
	id         string
	kind       document.Kind
	definition document.Definition
	customerID string
	customer   map[string]any

	store *draft.Store
	fsm   *lifecycle

	version   int
	saveError string
	createdAt time.Time
	updatedAt time.Time
}

// New opens a session over the host-supplied initial document. The caller
// validates the document against the kind's schema first; New only clones
// and wires state.
func New(kind document.Kind, customerID string, customer, initial map[string]any) (*Session, error) {
	def, err := document.Lookup(kind)
	if err != nil {
		return nil, err
	}

	store, err := draft.NewStore(initial)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	fsm, err := newLifecycle(StatusIdle, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		id:         id,
		kind:       kind,
		definition: def,
		customerID: customerID,
		customer:   cloneCustomer(customer),
		store:      store,
		fsm:        fsm,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// Hydrate rebuilds a session from its persisted record. A record that was
// persisted mid-save comes back as error state so the save stays retryable.
func Hydrate(record *Record) (*Session, error) {
	def, err := document.Lookup(record.Kind)
	if err != nil {
		return nil, err
	}

	store, err := draft.Restore(record.Original, record.Draft)
	if err != nil {
		return nil, err
	}

	status := record.Status
	if status == "" {
		status = StatusIdle
	}
	if status == StatusSaving {
		status = StatusError
	}
	fsm, err := newLifecycle(status, record.ID)
	if err != nil {
		return nil, err
	}

	return &Session{
		id:         record.ID,
		kind:       record.Kind,
		definition: def,
		customerID: record.CustomerID,
		customer:   cloneCustomer(record.Customer),
		store:      store,
		fsm:        fsm,
		version:    record.Version,
		saveError:  record.SaveError,
		createdAt:  record.CreatedAt,
		updatedAt:  record.UpdatedAt,
	}, nil
}

func (s *Session) ID() string                      { return s.id }
func (s *Session) Kind() document.Kind             { return s.kind }
func (s *Session) CustomerID() string              { return s.customerID }
func (s *Session) Version() int                    { return s.version }
func (s *Session) Status() Status                  { return s.fsm.current() }
func (s *Session) SaveError() string               { return s.saveError }
func (s *Session) Definition() document.Definition { return s.definition }
func (s *Session) Draft() map[string]any           { return s.store.Draft() }
func (s *Session) Original() map[string]any        { return s.store.Original() }
func (s *Session) Modified() bool                  { return s.store.Modified() }
func (s *Session) ChangedPaths() []string          { return s.store.ChangedPaths() }

// CheckVersion compares the caller's expected version against the
// session's. Negative values skip the check.
func (s *Session) CheckVersion(expected int) error {
	if expected >= 0 && expected != s.version {
		return fmt.Errorf("%w: expected %d, have %d", ErrStaleVersion, expected, s.version)
	}
	return nil
}

// SetField updates a scalar or nested field of the draft.
func (s *Session) SetField(path string, value any) error {
	if s.fsm.current() == StatusSaving {
		return ErrSessionSaving
	}
	if err := s.store.SetField(path, value); err != nil {
		return err
	}
	s.bump()
	return nil
}

// Apply runs one collection mutation, enforcing the kind's minimum-size
// guard and cascading reference pruning in the same logical mutation.
func (s *Session) Apply(op CollectionOp) error {
	if s.fsm.current() == StatusSaving {
		return ErrSessionSaving
	}
	if !s.definition.HasCollection(op.Collection) {
		return fmt.Errorf("%w: %q for kind %s", ErrUnknownCollection, op.Collection, s.kind)
	}

	items, err := s.store.Collection(op.Collection)
	if err != nil {
		return err
	}

	switch op.Op {
	case OpInsert:
		entity := op.Entity
		if entity == nil {
			entity = map[string]any{}
		}
		items = collection.Insert(items, entity)

	case OpPatch:
		items = collection.PatchByID(items, op.EntityID, op.Fields)

	case OpRemove:
		if _, exists := collection.FindByID(items, op.EntityID); exists {
			if min := s.definition.MinLen[op.Collection]; min > 0 && len(items) <= min {
				return fmt.Errorf("%w: %q must keep at least %d item(s)", ErrMinimumSize, op.Collection, min)
			}
		}
		items = collection.RemoveByID(items, op.EntityID)

	case OpToggle:
		items = collection.ToggleFlag(items, op.EntityID, op.Flag)

	case OpMove:
		items = collection.Move(items, op.EntityID, op.Direction)

	default:
		return fmt.Errorf("unknown collection op %q", op.Op)
	}

	if err := s.store.ReplaceCollection(op.Collection, items); err != nil {
		return err
	}

	if op.Op == OpRemove {
		if err := s.pruneReferences(op.Collection, op.EntityID); err != nil {
			return err
		}
	}

	s.bump()
	return nil
}

// pruneReferences strips the removed id from every referrer declared by a
// RefRule targeting the collection.
func (s *Session) pruneReferences(removedFrom, id string) error {
	for _, rule := range s.definition.Refs {
		if rule.To != removedFrom {
			continue
		}
		referrers, err := s.store.Collection(rule.From)
		if err != nil {
			return err
		}
		pruned := collection.PruneReference(referrers, rule.Field, id)
		if err := s.store.ReplaceCollection(rule.From, pruned); err != nil {
			return err
		}
	}
	return nil
}

// BeginSave transitions to saving. A save already in flight refuses the
// second submit; there is no request cancellation, only the state guard.
func (s *Session) BeginSave() error {
	if err := s.fsm.transition(eventSubmit); err != nil {
		return ErrSessionSaving
	}
	return nil
}

// CompleteSave settles an in-flight save. On failure the message is
// recorded (with a generic fallback when the error carries none) and the
// session lands in error state, retryable by a fresh submit; the draft is
// untouched either way.
func (s *Session) CompleteSave(saveErr error) error {
	if saveErr != nil {
		if err := s.fsm.transition(eventFailed); err != nil {
			return err
		}
		message := saveErr.Error()
		if message == "" {
			message = fallbackSaveError
		}
		s.saveError = message
		return nil
	}

	if err := s.fsm.transition(eventSaved); err != nil {
		return err
	}
	s.saveError = ""
	return nil
}

// Submit hands the draft to the host's saver, running the full
// begin/complete cycle in one call. Saves are never retried automatically.
func (s *Session) Submit(ctx context.Context, saver Saver) error {
	if err := s.BeginSave(); err != nil {
		return err
	}

	err := saver.Save(ctx, s.id, s.kind, s.store.Draft())
	if cerr := s.CompleteSave(err); cerr != nil {
		return cerr
	}
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.id, err)
	}
	return nil
}

// Cancel discards the session. A modified draft requires confirmed=true;
// declining leaves the session and its draft exactly as they were.
func (s *Session) Cancel(confirmed bool) error {
	if s.fsm.current() == StatusSaving {
		return ErrSessionSaving
	}
	if s.store.Modified() && !confirmed {
		return ErrConfirmDiscard
	}
	return nil
}

// Reset discards all edits back to the original snapshot.
func (s *Session) Reset() error {
	if s.fsm.current() == StatusSaving {
		return ErrSessionSaving
	}
	if err := s.store.Reset(); err != nil {
		return err
	}
	s.bump()
	return nil
}

// Record snapshots the session for persistence.
func (s *Session) Record() *Record {
	return &Record{
		ID:           s.id,
		Kind:         s.kind,
		CustomerID:   s.customerID,
		Customer:     cloneCustomer(s.customer),
		Original:     s.store.Original(),
		Draft:        s.store.Draft(),
		Version:      s.version,
		Status:       s.fsm.current(),
		SaveError:    s.saveError,
		Modified:     s.store.Modified(),
		ChangedPaths: s.store.ChangedPaths(),
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
	}
}

// cloneCustomer copies the display-only customer object so the session and
// its records never share it with the caller.
func cloneCustomer(customer map[string]any) map[string]any {
	if customer == nil {
		return nil
	}
	out, err := deep.Copy(customer)
	if err != nil {
		// map[string]any of decoded JSON always copies cleanly
		return nil
	}
	return out
}

func (s *Session) bump() {
	s.version++
	s.updatedAt = time.Now()
}
