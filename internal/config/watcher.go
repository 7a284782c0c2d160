package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/leonardotrapani/voxbridge/internal/logging"
)

// Watcher calls onChange whenever the watched file is written or recreated.
// The daemon uses it to drop cached provider adapters after a token or
// provider change made by another process.
type Watcher struct {
	path     string
	onChange func()
	watcher  *fsnotify.Watcher
	wg       sync.WaitGroup
}

func NewWatcher(path string, onChange func()) *Watcher {
	return &Watcher{path: path, onChange: onChange}
}

// Start watches the file's directory; editors replace files by rename, so
// watching the file itself would lose track of it.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher

	w.wg.Add(1)
	go w.loop(ctx)

	logger := logging.Component("config-watcher")
	logger.Info().Str("path", w.path).Msg("watching for changes")
	return nil
}

func (w *Watcher) Stop() {
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	logger := logging.Component("config-watcher")
	name := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Debug().Str("event", event.Op.String()).Msg("config file changed")
				if w.onChange != nil {
					w.onChange()
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("watcher error")

		case <-ctx.Done():
			return
		}
	}
}
