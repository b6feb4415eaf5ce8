package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/cscx-ai/draftd/internal/domain/events"
)

// SessionWatcher watches the sessions directory and publishes a
// session.file_changed event when a session file is touched outside the
// service, e.g. by a second draftd process or a manual edit.
type SessionWatcher struct {
	dir       string
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	publisher events.Publisher
}

// NewSessionWatcher creates a watcher for the given sessions directory.
func NewSessionWatcher(dir string, debounce time.Duration, publisher events.Publisher) (*SessionWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	return &SessionWatcher{
		dir:       dir,
		watcher:   w,
		debounce:  debounce,
		publisher: publisher,
	}, nil
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *SessionWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	var mu sync.Mutex
	changed := make(map[string]string)
	debouncer := NewDebouncer(w.debounce, func(path string) {
		mu.Lock()
		changeType := changed[path]
		mu.Unlock()
		w.emit(path, changeType)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			changeType := opToChangeType(event.Op)
			if changeType == "" {
				continue
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			mu.Lock()
			changed[event.Name] = changeType
			mu.Unlock()
			debouncer.Trigger(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *SessionWatcher) emit(path, changeType string) {
	sessionID := strings.TrimSuffix(filepath.Base(path), ".json")
	_ = w.publisher.Publish(&events.Event{
		ID:        uuid.NewString(),
		Type:      events.TypeSessionFileChange,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Data:      map[string]any{"change": changeType, "path": path},
	})
}

func opToChangeType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
