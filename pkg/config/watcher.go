package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/open-switch/opx-dhcp-agent/internal/logging"
)

// Watcher observes a config file's directory (not the file itself, so
// editor rename-and-replace saves are still seen) and republishes a
// freshly loaded Snapshot on every write or create event. Updates are
// delivered through Pending in the single-writer/single-reader handoff
// described in §5: the dispatcher goroutine is the only reader.
type Watcher struct {
	path    string
	log     *logging.Logger
	fsw     *fsnotify.Watcher
	pending chan Snapshot
	done    chan struct{}
}

// NewWatcher starts watching path's directory and performs an initial
// load, delivered as the first Pending value.
func NewWatcher(path string, log *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{
		path:    path,
		log:     log,
		fsw:     fsw,
		pending: make(chan Snapshot, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	w.reload()
	return w, nil
}

// Pending delivers a newly loaded Snapshot whenever the watched file
// changes. The dispatcher receives from it in its event loop and
// reconciles each snapshot as it arrives.
func (w *Watcher) Pending() <-chan Snapshot { return w.pending }

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Errorf("config: watcher error: %v", err)
			}
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	fc, err := LoadFile(w.path)
	if err != nil {
		if w.log != nil {
			w.log.Errorf("config: reload %s: %v", w.path, err)
		}
		return
	}
	snap, err := fc.Snapshot()
	if err != nil {
		if w.log != nil {
			w.log.Errorf("config: validate %s: %v", w.path, err)
		}
		return
	}
	select {
	case <-w.pending:
	default:
	}
	w.pending <- snap
}

// Close stops the watcher's goroutine and releases its fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
