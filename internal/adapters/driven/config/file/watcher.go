package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/homeradar/internal/logger"
)

// Watcher calls handlers when watched configuration files change on disk.
// Parent directories are watched rather than the files themselves so that
// editors which save by renaming a temporary file are still noticed.
type Watcher struct {
	fw *fsnotify.Watcher

	mu       sync.RWMutex
	files    map[string]func()
	dirs     map[string]func()
	watching map[string]bool
}

// NewWatcher creates a watcher with no registered paths.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		fw:       fw,
		files:    make(map[string]func()),
		dirs:     make(map[string]func()),
		watching: make(map[string]bool),
	}, nil
}

// WatchFile registers fn to run whenever path is written or recreated.
func (w *Watcher) WatchFile(path string, fn func()) error {
	path = filepath.Clean(path)
	if err := w.add(filepath.Dir(path)); err != nil {
		return err
	}
	w.mu.Lock()
	w.files[path] = fn
	w.mu.Unlock()
	return nil
}

// WatchDir registers fn to run whenever any file directly inside dir changes.
func (w *Watcher) WatchDir(dir string, fn func()) error {
	dir = filepath.Clean(dir)
	if err := w.add(dir); err != nil {
		return err
	}
	w.mu.Lock()
	w.dirs[dir] = fn
	w.mu.Unlock()
	return nil
}

func (w *Watcher) add(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching[dir] {
		return nil
	}
	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watching[dir] = true
	return nil
}

// Run dispatches change events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if fn := w.handlerFor(event); fn != nil {
				logger.Debug("config change: %s", event)
				fn()
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Warn("file watcher: %v", err)
		}
	}
}

// handlerFor returns the handler interested in event, or nil.
// Only writes and creations count; a removed file keeps its last settings.
func (w *Watcher) handlerFor(event fsnotify.Event) func() {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return nil
	}
	name := filepath.Clean(event.Name)

	w.mu.RLock()
	defer w.mu.RUnlock()
	if fn, ok := w.files[name]; ok {
		return fn
	}
	if fn, ok := w.dirs[filepath.Dir(name)]; ok {
		return fn
	}
	return nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
