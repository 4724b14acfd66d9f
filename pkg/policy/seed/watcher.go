package seed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Path is the seed file to watch.
	Path string

	// Debounce is the quiet period after the last change before the file
	// is re-applied (default: 100ms).
	Debounce time.Duration
}

// Watcher re-applies a seed file when it changes. It watches the file's
// directory rather than the file, so editors that replace the file by
// renaming a temporary over it are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	config   WatcherConfig
	debounce *Debouncer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for cfg.Path.
func NewWatcher(cfg WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("seed watcher: path is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fw,
		logger:   logger.With("component", "seed.watcher"),
		config:   cfg,
		debounce: NewDebouncer(cfg.Debounce),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks, calling onChange after each burst of changes to the seed
// file, until ctx is cancelled or Stop is called. A failing onChange is
// logged and watching continues.
func (w *Watcher) Watch(ctx context.Context, onChange func(context.Context) error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer close(w.doneCh)

	dir := filepath.Dir(w.config.Path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	target := filepath.Clean(w.config.Path)

	w.logger.InfoContext(ctx, "seed watcher started",
		"path", w.config.Path,
		"debounce_ms", w.config.Debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "seed watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.InfoContext(ctx, "seed watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target || event.Op == fsnotify.Chmod || event.Has(fsnotify.Remove) {
				continue
			}

			w.logger.DebugContext(ctx, "seed file event", "op", event.Op.String())

			w.debounce.Trigger(func() {
				w.logger.InfoContext(ctx, "re-applying seed file", "path", w.config.Path)
				if err := onChange(ctx); err != nil {
					w.logger.ErrorContext(ctx, "seed re-apply failed", "error", err)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.ErrorContext(ctx, "seed watcher error", "error", err)
		}
	}
}

// Stop stops a running Watch, waits for an in-flight re-apply to finish and
// releases the watcher. It is safe to call whether or not Watch was started.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		select {
		case <-w.stopCh:
		default:
			close(w.stopCh)
		}
		<-w.doneCh
	}
	w.debounce.Stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// Debouncer collapses a burst of triggers into one callback run after a
// quiet period. Callbacks never overlap: a callback that comes due while
// another is running waits for it.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopped  bool

	run      sync.Mutex
	inflight sync.WaitGroup
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback to run after the quiet period, replacing any
// callback still waiting.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	cb := d.callback
	d.callback = nil
	if cb == nil || d.stopped {
		d.mu.Unlock()
		return
	}
	d.inflight.Add(1)
	d.mu.Unlock()
	defer d.inflight.Done()

	d.run.Lock()
	defer d.run.Unlock()
	cb()
}

// Stop cancels any pending callback and waits for a running one to return.
// Later triggers are ignored. Stop must not be called from a callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
	d.mu.Unlock()

	d.inflight.Wait()
}
