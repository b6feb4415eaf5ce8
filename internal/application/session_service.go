// Package application wires the domain session model to its collaborators:
// the repository persisting session records, the host's saver, the
// suggestion client, and the event publisher.
package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cscx-ai/draftd/internal/domain/document"
	"github.com/cscx-ai/draftd/internal/domain/events"
	"github.com/cscx-ai/draftd/internal/domain/session"
)

// ErrSessionNotFound indicates the session id is not live and not persisted.
var ErrSessionNotFound = errors.New("session not found")

// SessionService orchestrates draft sessions. Each live session carries its
// own lock so overlapping API calls against one session serialize, while
// the saver call itself runs unlocked so concurrent mutations are refused
// by the saving guard instead of silently queueing behind the save.
type SessionService struct {
	repo      session.Repository
	saver     session.Saver
	publisher events.Publisher

	mu   sync.Mutex
	live map[string]*liveSession
}

type liveSession struct {
	mu   sync.Mutex
	sess *session.Session
}

// NewSessionService creates the service.
func NewSessionService(repo session.Repository, saver session.Saver, publisher events.Publisher) *SessionService {
	return &SessionService{
		repo:      repo,
		saver:     saver,
		publisher: publisher,
		live:      make(map[string]*liveSession),
	}
}

// Open validates the initial document against its kind's schema, seeds a
// session, and persists it.
func (s *SessionService) Open(kind document.Kind, customerID string, customer, initial map[string]any) (*session.Record, error) {
	if err := document.Validate(kind, initial); err != nil {
		return nil, err
	}

	sess, err := session.New(kind, customerID, customer, initial)
	if err != nil {
		return nil, err
	}

	record := sess.Record()
	if err := s.repo.Save(record); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.live[sess.ID()] = &liveSession{sess: sess}
	s.mu.Unlock()

	s.publish(events.TypeSessionOpened, sess.ID(), map[string]any{"kind": string(kind)})
	return record, nil
}

// Get returns the current state of a session.
func (s *SessionService) Get(id string) (*session.Record, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.sess.Record(), nil
}

// DraftView is a point-in-time copy of a session's draft for read-only
// collaborators (the suggestion flow). It shares no state with the live
// session, so holders never race a concurrent mutation.
type DraftView struct {
	SessionID  string
	Kind       document.Kind
	CustomerID string
	Draft      map[string]any
}

// DraftSnapshot copies the session's draft under its lock.
func (s *SessionService) DraftSnapshot(id string) (*DraftView, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return &DraftView{
		SessionID:  entry.sess.ID(),
		Kind:       entry.sess.Kind(),
		CustomerID: entry.sess.CustomerID(),
		Draft:      entry.sess.Draft(),
	}, nil
}

// List returns the persisted records of every open session.
func (s *SessionService) List() ([]*session.Record, error) {
	records, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return records, nil
}

// SetField updates one field of a session's draft. A non-negative
// expectedVersion must match the session's version or the update is
// refused as stale.
func (s *SessionService) SetField(id, path string, value any, expectedVersion int) (*session.Record, error) {
	return s.mutate(id, expectedVersion, func(sess *session.Session) error {
		return sess.SetField(path, value)
	})
}

// ApplyCollection runs one collection mutation against a session's draft.
func (s *SessionService) ApplyCollection(id string, op session.CollectionOp, expectedVersion int) (*session.Record, error) {
	return s.mutate(id, expectedVersion, func(sess *session.Session) error {
		return sess.Apply(op)
	})
}

// Reset discards a session's edits back to the original snapshot.
func (s *SessionService) Reset(id string) (*session.Record, error) {
	record, err := s.mutate(id, -1, func(sess *session.Session) error {
		return sess.Reset()
	})
	if err != nil {
		return nil, err
	}
	s.publish(events.TypeSessionReset, id, nil)
	return record, nil
}

// Save hands the session's draft to the host's saver. On success the
// session is closed and removed from storage; on failure the error state is
// persisted and the draft stays intact for an explicit retry.
func (s *SessionService) Save(ctx context.Context, id string) (*session.Record, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	if err := entry.sess.BeginSave(); err != nil {
		entry.mu.Unlock()
		return nil, err
	}
	draft := entry.sess.Draft()
	kind := entry.sess.Kind()
	entry.mu.Unlock()

	saveErr := s.saver.Save(ctx, id, kind, draft)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := entry.sess.CompleteSave(saveErr); err != nil {
		return nil, err
	}
	record := entry.sess.Record()

	if saveErr != nil {
		if err := s.repo.Save(record); err != nil {
			return nil, fmt.Errorf("persist failed-save state: %w", err)
		}
		s.publish(events.TypeSessionSaveFailed, id, map[string]any{"error": record.SaveError})
		return record, fmt.Errorf("save session %s: %w", id, saveErr)
	}

	if err := s.repo.Delete(id); err != nil {
		return nil, fmt.Errorf("remove saved session: %w", err)
	}
	s.drop(id)
	s.publish(events.TypeSessionSaved, id, map[string]any{"kind": string(kind)})
	return record, nil
}

// Cancel closes a session. A modified draft is only discarded when the
// caller confirms; declining returns ErrConfirmDiscard and changes nothing.
func (s *SessionService) Cancel(id string, confirmed bool) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := entry.sess.Cancel(confirmed); err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("remove cancelled session: %w", err)
	}
	s.drop(id)
	s.publish(events.TypeSessionCancelled, id, nil)
	return nil
}

func (s *SessionService) mutate(id string, expectedVersion int, fn func(*session.Session) error) (*session.Record, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.sess.CheckVersion(expectedVersion); err != nil {
		return nil, err
	}
	if err := fn(entry.sess); err != nil {
		return nil, err
	}

	record := entry.sess.Record()
	if err := s.repo.Save(record); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s.publish(events.TypeSessionModified, id, map[string]any{
		"version":  record.Version,
		"modified": entry.sess.Modified(),
	})
	return record, nil
}

// entry returns the live session, rehydrating from storage on a miss.
func (s *SessionService) entry(id string) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.live[id]; ok {
		return entry, nil
	}

	record, err := s.repo.Load(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess, err := session.Hydrate(record)
	if err != nil {
		return nil, fmt.Errorf("hydrate session %s: %w", id, err)
	}

	entry := &liveSession{sess: sess}
	s.live[id] = entry
	return entry, nil
}

func (s *SessionService) drop(id string) {
	s.mu.Lock()
	delete(s.live, id)
	s.mu.Unlock()
}

func (s *SessionService) publish(eventType, sessionID string, data map[string]any) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(&events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Data:      data,
	})
}
