package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cscx-ai/draftd/internal/domain/document"
)

// FileSaver writes the saved draft to the workspace exports directory. It
// stands in for the host hand-off in local setups with no webhook
// configured.
type FileSaver struct {
	dir string
}

// NewFileSaver creates a saver writing into dir.
func NewFileSaver(dir string) *FileSaver {
	return &FileSaver{dir: dir}
}

// Save writes the draft as <id>.json.
func (s *FileSaver) Save(ctx context.Context, id string, kind document.Kind, draft map[string]any) error {
	data, err := json.MarshalIndent(Payload{
		SessionID: id,
		Kind:      kind,
		Document:  draft,
		SavedAt:   time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create exports directory: %w", err)
	}

	path := filepath.Join(s.dir, id+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
