package articlefile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/logger"
)

// DefaultSettle is how long a file must stay unchanged before it is read.
const DefaultSettle = 500 * time.Millisecond

// Change is one article file that settled in the watched directory.
type Change struct {
	Path     string
	Articles []domain.RawArticle

	// Err is set when the file could not be read or decoded.
	Err error
}

// Watcher emits a Change for every article file created or rewritten in a directory.
// Changes are delivered one at a time, in the order files settle.
type Watcher struct {
	dir    string
	settle time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher for dir. A settle of zero uses DefaultSettle.
func NewWatcher(dir string, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		dir:     dir,
		settle:  settle,
		pending: make(map[string]*time.Timer),
	}
}

// Watch starts watching. The channel is closed when ctx is cancelled or the
// underlying watcher fails.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	info, err := os.Stat(w.dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.dir, err)
	}

	w.mu.Lock()
	w.watcher = fsw
	w.mu.Unlock()

	ready := make(chan string, 16)
	changes := make(chan Change)

	go func() {
		defer close(changes)
		defer w.stopTimers()
		defer fsw.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if path, ok := w.handleFsEvent(event); ok {
					w.schedule(ctx, path, ready)
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error on %s: %v", w.dir, err)
			case path := <-ready:
				change := Change{Path: path}
				change.Articles, change.Err = ReadFile(path)
				select {
				case changes <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	logger.Info("Watching %s for article files", w.dir)
	return changes, nil
}

// handleFsEvent returns the path to read for creates and writes of article files.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !IsArticleFile(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return filepath.Clean(event.Name), true
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// Close stops the underlying watcher. Cancelling the Watch context has the same effect.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}
