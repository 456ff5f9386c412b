package trigger

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	pkgLogger "github.com/fpt/auto-context/pkg/logger"
)

// ChangeHandler receives the path of a tracked file once its events settle
type ChangeHandler func(ctx context.Context, path string)

// Watcher reports debounced write events for a set of tracked files.
// fsnotify watches the parent directories so editors that save by
// rename-and-replace are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange ChangeHandler

	mu      sync.Mutex
	files   map[string]struct{}
	dirs    map[string]int // directory -> tracked file count
	pending map[string]time.Time

	cancel context.CancelFunc
	done   chan struct{}
	logger *pkgLogger.Logger
}

// NewWatcher creates a watcher calling onChange for settled changes
func NewWatcher(debounce time.Duration, onChange ChangeHandler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	return &Watcher{
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]int),
		pending:  make(map[string]time.Time),
		logger:   pkgLogger.NewComponentLogger("watcher"),
	}, nil
}

// Track starts reporting changes to path
func (w *Watcher) Track(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "failed to resolve path")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; ok {
		return nil
	}
	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
	}
	w.dirs[dir]++
	w.files[path] = struct{}{}
	return nil
}

// Untrack stops reporting changes to path
func (w *Watcher) Untrack(path string) {
	path, err := filepath.Abs(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; !ok {
		return
	}
	delete(w.files, path)
	delete(w.pending, path)
	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		_ = w.watcher.Remove(dir)
	}
}

// Start processes events until ctx is cancelled or Close is called
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.processEvents(ctx)
	}()
	go func() {
		defer wg.Done()
		w.processPending(ctx)
	}()
	go func() {
		wg.Wait()
		close(w.done)
	}()
	w.logger.DebugWithIntention(pkgLogger.IntentionWatch, "Watching files", "debounce", w.debounce)
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.markPending(filepath.Clean(event.Name))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) markPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; ok {
		w.pending[path] = time.Now()
	}
}

func (w *Watcher) processPending(ctx context.Context) {
	tick := w.debounce / 3
	if tick <= 0 || tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			w.mu.Lock()
			var settled []string
			for path, changed := range w.pending {
				if now.Sub(changed) >= w.debounce {
					settled = append(settled, path)
					delete(w.pending, path)
				}
			}
			w.mu.Unlock()

			for _, path := range settled {
				w.logger.DebugWithIntention(pkgLogger.IntentionWatch, "File changed", "path", path)
				w.onChange(ctx, path)
			}
		}
	}
}

// Close stops watching and releases resources
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	return w.watcher.Close()
}
