package session

import (
	"context"

	"github.com/cscx-ai/draftd/internal/domain/document"
)

// Repository persists session records.
type Repository interface {
	Save(record *Record) error
	Load(id string) (*Record, error)
	List() ([]*Record, error)
	Delete(id string) error
}

// Saver is the host collaborator that turns a submitted draft into the
// external artifact. draftd never performs the external write itself; a
// rejected save is surfaced to the user and the draft is kept intact for a
// retry.
type Saver interface {
	Save(ctx context.Context, id string, kind document.Kind, draft map[string]any) error
}
