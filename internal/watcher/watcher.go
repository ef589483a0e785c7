package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"tangle/internal/observability"
	"tangle/internal/pathspec"
)

// Watcher triggers re-scans when watched source files change. Events are
// debounced into batches; batch delivery is additionally rate-capped so a
// thrashing editor or branch switch cannot starve the analysis loop.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	spec       *pathspec.Spec
	debounce   time.Duration
	limiter    *rate.Limiter
	onChange   func([]string)
	callbackMu sync.Mutex

	pending   map[string]bool
	pendingMu sync.Mutex
	timer     *time.Timer
}

func New(spec *pathspec.Spec, debounce time.Duration, rescansPerSecond float64, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	if rescansPerSecond <= 0 {
		rescansPerSecond = 4
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsw,
		spec:      spec,
		debounce:  debounce,
		limiter:   rate.NewLimiter(rate.Limit(rescansPerSecond), 1),
		onChange:  onChange,
		pending:   make(map[string]bool),
	}, nil
}

func (w *Watcher) Watch(ctx context.Context, root string) error {
	if err := w.watchRecursive(root); err != nil {
		return err
	}
	go w.run(ctx)
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Warn("failed to watch path", "path", path, "error", err)
			return nil
		}
		if info.IsDir() {
			name := filepath.Base(path)
			if w.spec.GuardedDir(name) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.spec.GuardedDir(filepath.Base(event.Name)) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
					}
					continue
				}
			}

			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Remove == fsnotify.Remove ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = true

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}

	// The rate cap absorbs change storms that the debounce window alone
	// does not, e.g. a branch switch touching thousands of files.
	if err := w.limiter.Wait(context.Background()); err != nil {
		return
	}

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
