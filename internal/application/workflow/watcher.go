package workflow

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-team-monitor/internal/util"
)

const defaultDebounce = 200 * time.Millisecond

// FileEvent reports that a watched document changed on disk
type FileEvent struct {
	Path      string
	Operation string
}

// FileWatcher watches workflow documents. It watches parent directories
// so that editors which save by rename are still seen, and coalesces
// bursts of writes into one event per file.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	events   chan FileEvent
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
	done    chan struct{}
}

// NewFileWatcher starts watching paths
func NewFileWatcher(paths []string) (*FileWatcher, error) {
	return newFileWatcher(paths, defaultDebounce)
}

func newFileWatcher(paths []string, debounce time.Duration) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		files:    make(map[string]bool, len(paths)),
		events:   make(chan FileEvent, 16),
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(util.ExpandPath(p))
		if err != nil {
			watcher.Close()
			return nil, err
		}
		fw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go fw.processEvents()
	return fw, nil
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.done)
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.schedule(FileEvent{Path: event.Name, Operation: event.Op.String()})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("workflow watch error", util.Err(err))
		}
	}
}

func (fw *FileWatcher) schedule(ev FileEvent) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return
	}

	if timer, ok := fw.pending[ev.Path]; ok {
		timer.Stop()
	}
	fw.pending[ev.Path] = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		defer fw.mu.Unlock()
		delete(fw.pending, ev.Path)
		if fw.closed {
			return
		}
		select {
		case fw.events <- ev:
		default:
			util.LogWarn("workflow watch queue full, dropping event", util.String("path", ev.Path))
		}
	})
}

// Events returns the channel of coalesced change events
func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.events
}

// Close stops watching. Pending events are discarded.
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	fw.closed = true
	for path, timer := range fw.pending {
		timer.Stop()
		delete(fw.pending, path)
	}
	fw.mu.Unlock()

	err := fw.watcher.Close()
	<-fw.done
	return err
}
