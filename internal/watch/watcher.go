package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"video2srt/internal/logging"
	"video2srt/internal/media/audio"
)

const defaultSettle = time.Second

// Handler converts one settled media file.
type Handler func(ctx context.Context, path string) error

// Watcher feeds new media files in a directory to a Handler one at a time.
type Watcher struct {
	dir        string
	handler    Handler
	settle     time.Duration
	extensions map[string]struct{}
	logger     *slog.Logger
	watcher    *fsnotify.Watcher

	pending map[string]time.Time
	done    map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets how long a file must go without writes before it is handled.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithExtensions restricts handled files to the given extensions. Without it
// every extension audio.Classify recognises is accepted.
func WithExtensions(exts []string) Option {
	return func(w *Watcher) {
		if len(exts) == 0 {
			return
		}
		w.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			w.extensions[ext] = struct{}{}
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New starts watching dir. Call Run to process events and Close to release
// the underlying inotify handle.
func New(dir string, handler Handler, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watch: handler required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	w := &Watcher{
		dir:     dir,
		handler: handler,
		settle:  defaultSettle,
		logger:  logging.NewNop(),
		watcher: fw,
		pending: make(map[string]time.Time),
		done:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.NewComponentLogger(w.logger, "watch")
	return w, nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Accepts reports whether path would be handled.
func (w *Watcher) Accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	if w.extensions != nil {
		_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
		return ok
	}
	return audio.Supported(path)
}

// Run handles events until ctx is done. Handler errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching directory", "dir", w.dir, "settle", w.settle)

	tick := w.settle / 4
	if tick <= 0 {
		tick = w.settle
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped", "dir", w.dir)
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.Accepts(event.Name) {
				w.logger.Debug("ignoring file", "path", event.Name)
				continue
			}
			w.pending[event.Name] = time.Now()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("watcher error", logging.Error(err))

		case now := <-ticker.C:
			w.drain(ctx, now)
		}
	}
}

// drain handles every pending file whose last event is older than the settle
// window, oldest path first.
func (w *Watcher) drain(ctx context.Context, now time.Time) {
	ready := make([]string, 0, len(w.pending))
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		delete(w.pending, path)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if prev, ok := w.done[path]; ok && prev.Equal(info.ModTime()) {
			continue
		}
		w.logger.Info("new media detected", "path", path, "size", info.Size())
		if err := w.handler(ctx, path); err != nil {
			w.logger.Error("conversion failed", "path", path, logging.Error(err))
		}
		w.done[path] = info.ModTime()
	}
}

// OutputPath returns <outputDir>/<input name>.srt, or a sibling of input
// when outputDir is empty.
func OutputPath(outputDir, input string) string {
	if outputDir == "" {
		outputDir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	return filepath.Join(outputDir, strings.TrimSuffix(base, filepath.Ext(base))+".srt")
}
