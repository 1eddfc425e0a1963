// Package watch monitors a drop directory for the three spreadsheet files
// and signals when a changed set should be reprocessed. Events are
// debounced so a spreadsheet being written in several bursts triggers one
// rerun, not many.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/coursedash/coursedash/internal/dashlog"
)

// Event signals that one of the watched files changed and the pipeline
// should re-run over the directory's current contents.
type Event struct {
	Path string // absolute path of the file that changed
}

// Watcher monitors one directory for changes to a fixed set of file names.
type Watcher struct {
	dir      string
	names    map[string]bool
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
	fired  chan string
}

// New creates a Watcher over dir for the given file names.
func New(dir string, names []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[n] = true
	}

	return &Watcher{
		dir:      dir,
		names:    nameSet,
		debounce: debounce,
		watcher:  fw,
		timers:   make(map[string]*time.Timer),
		fired:    make(chan string, 8),
	}, nil
}

// Start begins watching and returns a channel of debounced events. The
// channel closes when the context is canceled.
func (w *Watcher) Start(ctx context.Context) (<-chan Event, error) {
	if err := w.watcher.Add(w.dir); err != nil {
		return nil, err
	}
	dashlog.Log.Info("Watching directory", "dir", w.dir)

	events := make(chan Event, 8)
	go w.loop(ctx, events)
	return events, nil
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// loop is the only sender on events, so closing it here is safe. Debounce
// timers report through the internal fired channel rather than sending on
// events directly.
func (w *Watcher) loop(ctx context.Context, events chan<- Event) {
	defer close(events)

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !w.names[filepath.Base(ev.Name)] {
				continue
			}
			w.schedule(ev.Name)

		case path := <-w.fired:
			dashlog.Log.Debug("File change", "path", path)
			select {
			case events <- Event{Path: path}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			dashlog.Log.Warn("Watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

// schedule arms (or re-arms) the debounce timer for a path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		select {
		case w.fired <- path:
		default: // an event for this path is already pending
		}
	})
}
