// Package storage persists draft sessions as JSON files in the workspace
// and provides the in-process event publisher.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/cscx-ai/draftd/internal/domain/session"
)

const DraftdDir = ".draftd"
const SessionsDir = "sessions"
const ExportsDir = "exports"

// FilesystemRepository stores one JSON file per session under
// <root>/.draftd/sessions.
type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// SessionsPath returns the directory holding session files.
func (r *FilesystemRepository) SessionsPath() string {
	return filepath.Join(r.root, DraftdDir, SessionsDir)
}

// ExportsPath returns the directory file-based savers write artifacts to.
func (r *FilesystemRepository) ExportsPath() string {
	return filepath.Join(r.root, DraftdDir, ExportsDir)
}

// ResolveSessionPath validates the id and maps it to its file, refusing
// anything that would escape the sessions directory.
func (r *FilesystemRepository) ResolveSessionPath(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("session id cannot be empty")
	}

	baseDir := r.SessionsPath()
	fullPath := filepath.Join(baseDir, id+".json")
	cleanPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid session id: %s", id)
	}

	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	for _, dir := range []string{r.SessionsPath(), r.ExportsPath()} {
		// G301: Use 0700 for directories
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, DraftdDir))
	return err == nil
}

// Save writes a session record.
func (r *FilesystemRepository) Save(record *session.Record) error {
	path, err := r.ResolveSessionPath(record.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// G306: Use 0600 for files
	return os.WriteFile(path, data, 0600)
}

// Load reads a session record, retrying transient read failures.
func (r *FilesystemRepository) Load(id string) (*session.Record, error) {
	retryer := retry.New[*session.Record](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*session.Record, error) {
		path, err := r.ResolveSessionPath(id)
		if err != nil {
			return nil, err
		}

		// #nosec G304 -- Path is resolved and validated via ResolveSessionPath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read session file: %w", err)
		}

		var record session.Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}

		return &record, nil
	})
}

// List loads every persisted session record.
func (r *FilesystemRepository) List() ([]*session.Record, error) {
	entries, err := os.ReadDir(r.SessionsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	records := make([]*session.Record, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		record, err := r.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			// Skip unreadable files rather than failing the whole listing
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Delete removes a session record.
func (r *FilesystemRepository) Delete(id string) error {
	path, err := r.ResolveSessionPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}
