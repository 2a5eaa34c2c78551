package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDuration = 500 * time.Millisecond

// Watcher notices changes to a menu file. The directory is watched rather
// than the file so editors that replace the file by renaming are caught.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	watcherDone chan struct{}
	path        string
	changed     atomic.Bool
	notify      chan struct{}
}

// NewWatcher starts watching path.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(abs)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Printf("INFO: Watching %s for menu changes (auto-reload enabled)", abs)

	w := &Watcher{
		watcher:     watcher,
		watcherDone: make(chan struct{}),
		path:        abs,
		notify:      make(chan struct{}, 1),
	}
	go w.watchLoop(watcher)
	return w, nil
}

// Changed reports whether the file changed since the last call.
func (w *Watcher) Changed() bool {
	return w.changed.Swap(false)
}

// Notify returns a channel that receives after each detected change.
func (w *Watcher) Notify() <-chan struct{} {
	return w.notify
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return
	}
	close(w.watcherDone)
	w.watcher.Close()
	w.watcher = nil
	log.Printf("INFO: Menu file watcher stopped")
}

func (w *Watcher) watchLoop(fw *fsnotify.Watcher) {
	// Debounce timer to avoid reloading on rapid successive writes
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDuration, w.markChanged)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Printf("ERROR: Menu file watcher error: %v", err)

		case <-w.watcherDone:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) markChanged() {
	log.Printf("INFO: Menu file change detected: %s", filepath.Base(w.path))
	w.changed.Store(true)
	select {
	case w.notify <- struct{}{}:
	default:
	}
}
