package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watch reloads path whenever it changes and passes the result to fn until
// ctx is done. The directory is watched so that rename-over saves are seen.
// fn gets a nil config and the error when a reload fails; the previous
// settings should then stay in effect.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "config path")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}
	go watchLoop(ctx, w, abs, fn)
	return nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, fn func(*Config, error)) {
	defer w.Close()

	timer := time.NewTimer(DefaultDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(DefaultDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			fn(nil, errors.Wrap(err, "watch config"))
		case <-timer.C:
			fn(Load(path))
		}
	}
}
