package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardnew/jvav/log"
)

// watchDebounce coalesces the burst of events an editor emits on save.
const watchDebounce = 100 * time.Millisecond

// watcher reports changes to a single file. The parent directory is watched
// so that editors which replace the file on save are still seen.
type watcher struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
}

func newWatcher(path string) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()

		return nil, err
	}

	return &watcher{fs: fs, path: abs, debounce: watchDebounce}, nil
}

func (w *watcher) Close() error { return w.fs.Close() }

// loop calls onChange once per debounced burst of writes to the file, until
// ctx is done.
func (w *watcher) loop(ctx context.Context, onChange func()) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}

			log.WarnContext(ctx, "watch error", slog.Any("error", err))

		case <-timer.C:
			onChange()
		}
	}
}

// watch runs path, then runs it again with a fresh interpreter each time it
// changes, until ctx is done.
func (r *Run) watch(ctx context.Context, out io.Writer, path string) error {
	w, err := newWatcher(path)
	if err != nil {
		fmt.Fprintln(out, "[error]", err)

		return ErrReported.Wrap(err)
	}
	defer w.Close()

	rerun := func() {
		// Line errors are printed by runFile; the watch keeps going.
		_ = r.runFile(ctx, out, path)

		fmt.Fprintf(out, "[info] Watching %s for changes (Ctrl+C to stop)\n", path)
	}

	rerun()

	err = w.loop(ctx, func() {
		fmt.Fprintf(out, "\n[info] %s changed, re-running\n", path)
		rerun()
	})
	if ctx.Err() != nil {
		return nil
	}

	return err
}
