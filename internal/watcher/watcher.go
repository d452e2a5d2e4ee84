// Package watcher notices when another process writes the local store and
// invokes a reload callback. Long-lived surfaces (the TUI, sync --watch)
// use it so edits made from a second terminal show up without restarting.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"taskdeck/internal/utils"
)

// DefaultDebounce batches the burst of events a single store write
// produces into one reload.
const DefaultDebounce = 1 * time.Second

// Config holds store watcher configuration.
type Config struct {
	// StorePath is the store file or directory to monitor. Its parent
	// directory is watched so replace-by-rename writes are seen too.
	StorePath string
	Debounce  time.Duration
	OnChange  func() // reload callback
}

// Watcher monitors the local store for external changes.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	stopCh  chan struct{}
	stopped bool
	mu      sync.Mutex
}

// New creates a watcher for the store at cfg.StorePath.
func New(cfg Config) (*Watcher, error) {
	if cfg.StorePath == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		cfg:    cfg,
		fsw:    fsw,
		stopCh: make(chan struct{}),
	}, nil
}

// Start begins watching. It returns an error if the store's directory
// cannot be watched.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("watcher has been stopped and cannot be restarted")
	}
	w.mu.Unlock()

	dir := w.cfg.StorePath
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = filepath.Dir(w.cfg.StorePath)
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	go w.eventLoop()

	return nil
}

// Stop stops the watcher and cleans up resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true
	close(w.stopCh)
	_ = w.fsw.Close()
}

// relevant reports whether an event touches the watched store. When the
// store is a directory every entry inside it counts; sqlite sidecar files
// (-wal, -shm) count as writes to the store itself.
func (w *Watcher) relevant(name string) bool {
	if info, err := os.Stat(w.cfg.StorePath); err == nil && info.IsDir() {
		return true
	}
	base := filepath.Base(w.cfg.StorePath)
	got := filepath.Base(name)
	return got == base || got == base+"-wal" || got == base+"-shm"
}

// eventLoop batches store writes and fires the reload callback once the
// debounce window closes.
func (w *Watcher) eventLoop() {
	var debounceTimer *time.Timer
	fire := make(chan struct{}, 1)

	resetDebounce := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(w.cfg.Debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			resetDebounce()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			utils.Warnf("store watcher error: %v", err)

		case <-fire:
			if w.cfg.OnChange != nil {
				w.cfg.OnChange()
			}
		}
	}
}
