// Package watcher detects on-disk changes to a patch document so the host
// can reload it. Editors typically rewrite files with a temp-file rename,
// so the document's directory is watched rather than the file itself.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/patchwire/patchwire/pkg/logging"
)

// ChangeEvent reports that the watched document changed on disk.
type ChangeEvent struct {
	Path      string
	Timestamp time.Time
}

// DocumentWatcher watches a single patch document for changes.
type DocumentWatcher struct {
	watcher  *fsnotify.Watcher
	document string
	events   chan ChangeEvent
}

// NewDocumentWatcher creates a watcher for the given document path.
func NewDocumentWatcher(document string) (*DocumentWatcher, error) {
	abs, err := filepath.Abs(document)
	if err != nil {
		return nil, fmt.Errorf("resolving document path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &DocumentWatcher{
		watcher:  fsw,
		document: abs,
		events:   make(chan ChangeEvent, 16),
	}, nil
}

// Start begins watching. The event channel closes when ctx is done.
func (w *DocumentWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.document)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logging.Info("watching document", "path", w.document)
	go w.processEvents(ctx)
	return nil
}

func (w *DocumentWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			close(w.events)
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				close(w.events)
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.document) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logging.Debug("document changed", "op", event.Op.String())
			select {
			case w.events <- ChangeEvent{Path: w.document, Timestamp: time.Now()}:
			default:
				// a reload is already pending
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				close(w.events)
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events.
func (w *DocumentWatcher) Events() <-chan ChangeEvent {
	return w.events
}

// Stop stops the watcher.
func (w *DocumentWatcher) Stop() error {
	return w.watcher.Close()
}
