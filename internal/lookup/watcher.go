package lookup

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a lookup file into a Store whenever it changes on disk.
// Bursts of events (editors often write, rename and chmod in one save) are
// collapsed into a single reload.
type Watcher struct {
	store    *Store
	path     string
	watcher  *fsnotify.Watcher
	debounce *Debouncer
	logger   *zap.SugaredLogger
}

// NewWatcher creates a watcher for path. The parent directory is watched so
// that atomic replace-by-rename saves are seen.
func NewWatcher(store *Store, path string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("lookup watcher: empty path")
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lookup watcher: resolve %q: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		store:    store,
		path:     abs,
		watcher:  fw,
		debounce: NewDebouncer(debounce),
		logger:   logger.Sugar(),
	}, nil
}

// Run blocks until ctx is cancelled, reloading the store on every change.
// Failed reloads are logged; the previous tables remain active.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.debounce.Stop()
	defer w.watcher.Close()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}
	w.logger.Infow("Lookup watcher started", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Lookup watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debugw("Lookup file event", "path", event.Name, "op", event.Op.String())
			w.debounce.Trigger(w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Errorw("Lookup watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	if err := w.store.Load(w.path); err != nil {
		w.logger.Errorw("Lookup reload failed, keeping previous tables", "path", w.path, "error", err)
		return
	}
	snap := w.store.Snapshot()
	w.logger.Infow("Lookup tables reloaded", "path", w.path, "id", snap.ID)
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Debouncer runs the most recent callback once no new trigger has arrived for
// the configured interval.
type Debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules fn, cancelling any callback still waiting.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, fn)
}

// Stop cancels any pending callback; later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
