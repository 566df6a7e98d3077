package mcp

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloadable is an interface for components that can be reloaded.
type Reloadable interface {
	Reload(ctx context.Context) error
}

// StoreWatcher reloads a component when the signature store file changes.
// It watches the store's directory rather than the file itself: SQLite
// updates the database through journal files and renames, which replace
// the watched inode.
type StoreWatcher struct {
	reloadable   Reloadable
	watcher      *fsnotify.Watcher
	storeBase    string
	debounceTime time.Duration
	started      bool
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
}

// NewStoreWatcher creates a watcher for the store database at storePath.
// The store's parent directory must exist.
func NewStoreWatcher(reloadable Reloadable, storePath string) (*StoreWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(storePath)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &StoreWatcher{
		reloadable:   reloadable,
		watcher:      watcher,
		storeBase:    filepath.Base(storePath),
		debounceTime: 500 * time.Millisecond,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// Start begins watching for store changes.
func (w *StoreWatcher) Start(ctx context.Context) {
	w.started = true
	go w.watch(ctx)
}

// Stop stops the store watcher. Safe to call more than once.
func (w *StoreWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.started {
			<-w.doneCh // Wait for goroutine to finish
		}
		w.watcher.Close()
	})
}

// watch is the main event loop with debouncing logic.
func (w *StoreWatcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	reloadCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if w.storeEvent(event) {
				// Reset debounce timer - properly stop and drain
				if debounceTimer != nil {
					if !debounceTimer.Stop() {
						select {
						case <-debounceTimer.C:
						default:
						}
					}
				}
				debounceTimer = time.AfterFunc(w.debounceTime, func() {
					// Send reload signal (non-blocking)
					select {
					case reloadCh <- struct{}{}:
					default:
					}
				})
			}

		case <-reloadCh:
			w.triggerReload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Store watcher error: %v", err)
		}
	}
}

// storeEvent reports whether an event touches the store database or one of
// its sidecar files (-journal, -wal, -shm share the database's base name).
func (w *StoreWatcher) storeEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return strings.HasPrefix(filepath.Base(event.Name), w.storeBase)
}

// triggerReload executes a reload of the reloadable component.
func (w *StoreWatcher) triggerReload(ctx context.Context) {
	log.Printf("Signature store changed, reloading...")
	start := time.Now()

	if err := w.reloadable.Reload(ctx); err != nil {
		log.Printf("Error reloading signature store: %v (keeping old state)", err)
		return
	}

	log.Printf("Reloaded signature store in %v", time.Since(start))
}
