package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeEvent is one changed path within a debounced batch.
type ChangeEvent struct {
	Path       string
	ChangeType string // "create", "write", "remove", "rename"
}

// FSWatcher watches directories and reports debounced batches of changed
// files that pass its filter.
type FSWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	filter   *PatternFilter
	onChange func([]ChangeEvent)
	logger   *slog.Logger

	// targets limits reports to these files when set.
	targets map[string]bool

	mu      sync.Mutex
	pending map[string]string
}

// Option configures an FSWatcher.
type Option func(*FSWatcher)

// WithFilter restricts reported paths.
func WithFilter(f *PatternFilter) Option {
	return func(w *FSWatcher) { w.filter = f }
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *FSWatcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewFSWatcher creates a watcher. A zero debounce defaults to 300ms.
func NewFSWatcher(debounce time.Duration, onChange func([]ChangeEvent), opts ...Option) (*FSWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 300 * time.Millisecond
	}
	w := &FSWatcher{
		watcher:  fw,
		debounce: debounce,
		filter:   NewPatternFilter(nil, nil),
		onChange: onChange,
		logger:   slog.Default(),
		pending:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WatchFiles watches the given files. Their parent directories are watched
// so that editors replacing a file by rename are still seen.
func (w *FSWatcher) WatchFiles(paths ...string) error {
	if w.targets == nil {
		w.targets = make(map[string]bool)
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		w.targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return nil
}

// WatchRecursive adds a directory and all its subdirectories.
func (w *FSWatcher) WatchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// Run processes events until ctx is cancelled. The underlying watcher is
// closed on return.
func (w *FSWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close() //nolint:errcheck // shutdown path

	debouncer := NewDebouncer(w.debounce, w.flush)
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			changeType := opToChangeType(event.Op)
			if changeType == "" {
				continue
			}

			if event.Op.Has(fsnotify.Create) && w.targets == nil {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.WatchRecursive(event.Name)
					continue
				}
			}
			if !w.wanted(event.Name) {
				continue
			}

			w.mu.Lock()
			w.pending[event.Name] = changeType
			w.mu.Unlock()
			debouncer.Trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *FSWatcher) wanted(path string) bool {
	if w.targets != nil {
		abs, err := filepath.Abs(path)
		if err != nil || !w.targets[abs] {
			return false
		}
	}
	return w.filter.Matches(path)
}

func (w *FSWatcher) flush() {
	w.mu.Lock()
	batch := make([]ChangeEvent, 0, len(w.pending))
	for path, ct := range w.pending {
		batch = append(batch, ChangeEvent{Path: path, ChangeType: ct})
	}
	w.pending = make(map[string]string)
	w.mu.Unlock()

	if len(batch) == 0 || w.onChange == nil {
		return
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	w.onChange(batch)
}

func opToChangeType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
