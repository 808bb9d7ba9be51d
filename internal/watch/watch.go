// Package watch reruns schema generation when its input files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a rebuild.
const DefaultDebounce = 100 * time.Millisecond

// ErrNoPaths indicates Run was given nothing to watch.
var ErrNoPaths = errors.New("no paths to watch")

// Options configures a watch loop.
type Options struct {
	Paths    []string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Run calls rebuild after changes to any of opts.Paths until ctx is done.
// A burst of events within the debounce window triggers one rebuild. Rebuild
// errors are logged and do not stop the loop.
//
// The parent directories are watched rather than the files, so editors that
// replace a file through rename keep triggering rebuilds.
func Run(ctx context.Context, opts Options, rebuild func() error) error {
	if len(opts.Paths) == 0 {
		return ErrNoPaths
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	targets := make(map[string]struct{}, len(opts.Paths))
	dirs := make(map[string]struct{})
	for _, p := range opts.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := make(chan struct{}, 1)
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(opts.Debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if _, watched := targets[filepath.Clean(ev.Name)]; !watched {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				logger.Debug("source changed", "path", ev.Name, "op", ev.Op.String())
				schedule()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-fire:
			if err := rebuild(); err != nil {
				logger.Error("rebuild failed", "error", err)
				continue
			}
			logger.Info("rebuilt schema")
		}
	}
}
