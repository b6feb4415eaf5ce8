// Package events defines the domain events emitted over a session's
// lifetime and the publisher contract infrastructure implements.
package events

import "time"

// Event types published by the session service.
const (
	TypeSessionOpened     = "session.opened"
	TypeSessionModified   = "session.modified"
	TypeSessionSaved      = "session.saved"
	TypeSessionSaveFailed = "session.save_failed"
	TypeSessionCancelled  = "session.cancelled"
	TypeSessionReset      = "session.reset"
	TypeSessionFileChange = "session.file_changed"
)

// Event is one domain event.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Handler processes a published event. Handler errors never block
// publishing.
type Handler func(*Event) error

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(*Event) error
	Subscribe(Handler)
}
