package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/engage/internal/logging"
	"github.com/mesh-intelligence/engage/pkg/types"
)

// Color scheme file contents.
const (
	SchemeDark  = "dark"
	SchemeLight = "light"
)

// ErrInvalidScheme is returned by ParseScheme.
var ErrInvalidScheme = errors.New("invalid color scheme")

var _ types.ColorSchemeSource = (*SchemeWatcher)(nil)

// ParseScheme maps "dark" or "light" (case and surrounding space ignored)
// to isDark.
func ParseScheme(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case SchemeDark:
		return true, nil
	case SchemeLight:
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrInvalidScheme, s)
}

// ReadScheme reads and parses a color scheme file.
func ReadScheme(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read color scheme: %w", err)
	}
	return ParseScheme(string(data))
}

// SchemeWatcher publishes the preferred color scheme stored in a file each
// time the file changes. It watches the parent directory so editors that
// replace the file by rename are also seen.
type SchemeWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan bool
	done    chan struct{}
	logger  *zap.Logger

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	last     *bool
}

// NewSchemeWatcher creates a watcher for path. Call Start to begin and Stop
// to release the underlying fsnotify watcher.
func NewSchemeWatcher(path string, logger *zap.Logger) (*SchemeWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &SchemeWatcher{
		path:    abs,
		watcher: w,
		changes: make(chan bool, 1),
		done:    make(chan struct{}),
		logger:  logging.OrNop(logger).Named("scheme"),
	}, nil
}

// ColorSchemeChanges implements types.ColorSchemeSource. The channel is
// closed once the watcher stops.
func (w *SchemeWatcher) ColorSchemeChanges() <-chan bool {
	return w.changes
}

// Current reads the scheme file now. ok is false when the file is missing
// or does not hold a valid scheme.
func (w *SchemeWatcher) Current() (isDark, ok bool) {
	isDark, err := ReadScheme(w.path)
	if err != nil {
		return false, false
	}
	return isDark, true
}

// Start begins watching. The event loop exits when ctx is cancelled or
// Stop is called. Start is idempotent.
func (w *SchemeWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	if isDark, ok := w.Current(); ok {
		w.last = &isDark
	}
	w.started = true

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher. Idempotent.
func (w *SchemeWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		if !started {
			close(w.changes)
		}
	})
}

func (w *SchemeWatcher) processEvents(ctx context.Context) {
	defer close(w.changes)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.publish(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// publish sends the file's scheme if it differs from the last one sent.
func (w *SchemeWatcher) publish(ctx context.Context) {
	isDark, err := ReadScheme(w.path)
	if err != nil {
		w.logger.Debug("ignoring color scheme change", zap.Error(err))
		return
	}

	w.mu.Lock()
	same := w.last != nil && *w.last == isDark
	w.last = &isDark
	w.mu.Unlock()
	if same {
		return
	}

	select {
	case w.changes <- isDark:
	case <-ctx.Done():
	case <-w.done:
	}
}
