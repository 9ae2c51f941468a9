package session

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reports rewrites of the vault file made outside this process
// (another shell instance signing out, a token wipe). The shell treats a
// change notification as a focus event, so the gate re-checks the session
// without waiting for the user to navigate.
type Watcher struct {
	fw      *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
	log     zerolog.Logger
}

// WatchVault watches the vault at path. The parent directory is watched
// rather than the file itself because saves replace the file by rename,
// which would silently detach a file-level watch.
func WatchVault(path string, log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating vault watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		fw:      fw,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		log:     log,
	}
	go w.run(filepath.Clean(path))
	return w, nil
}

// Changes delivers one notification per observed vault change. The
// channel is buffered and coalescing: a burst of events while the
// consumer is busy collapses into a single notification.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) run(path string) {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug().Str("op", ev.Op.String()).Msg("vault changed on disk")
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("vault watcher error")
		}
	}
}
