package watcher

import (
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is used when Options.PollInterval is not positive.
const DefaultPollInterval = 2 * time.Second

// notifyQuietPeriod caps how long fsnotify events are gathered before they
// trigger a poll.
const notifyQuietPeriod = 100 * time.Millisecond

// Options configures a Watch.
type Options struct {
	// PollInterval is how often every registered path is re-stat'ed.
	PollInterval time.Duration
	// OnPathTouched is invoked from the watch goroutine, once per changed path.
	// It must not call Dispose.
	OnPathTouched func(path string)
	// DisableNotify turns off the fsnotify wake-ups, leaving pure polling.
	DisableNotify bool
	Logger        *slog.Logger
}

// Watch polls a set of registered paths for modification-time changes.
//
// fsnotify events only shorten the wait until the next poll; whether a path
// changed is always decided by comparing its modification time with the last
// value seen.
type Watch struct {
	mu       sync.Mutex
	paths    map[string]time.Time
	interval time.Duration
	touched  func(path string)
	logger   *slog.Logger

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer

	stop        chan struct{}
	done        chan struct{}
	disposeOnce sync.Once
}

// New creates a watch and starts its polling goroutine.
func New(options Options) *Watch {
	interval := options.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	touched := options.OnPathTouched
	if touched == nil {
		touched = func(string) {}
	}

	w := &Watch{
		paths:     make(map[string]time.Time),
		interval:  interval,
		touched:   touched,
		logger:    logger,
		debouncer: NewDebouncer(min(interval/4, notifyQuietPeriod)),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	if !options.DisableNotify {
		fsWatcher, err := fsnotify.NewWatcher()
		if err != nil {
			logger.Warn("fsnotify unavailable, falling back to polling only", "error", err)
		} else {
			w.fsWatcher = fsWatcher
		}
	}

	go w.run()
	return w
}

// AddPath registers a path. Its current modification time becomes the
// baseline; a path that does not exist yet is recorded with the zero time.
func (w *Watch) AddPath(path string) {
	modTime := statModTime(path)

	w.mu.Lock()
	_, exists := w.paths[path]
	w.paths[path] = modTime
	w.mu.Unlock()

	if !exists && w.fsWatcher != nil {
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Debug("fsnotify add failed", "path", path, "error", err)
		}
	}
}

// RemovePath unregisters a path.
func (w *Watch) RemovePath(path string) {
	w.mu.Lock()
	_, exists := w.paths[path]
	delete(w.paths, path)
	w.mu.Unlock()

	if exists && w.fsWatcher != nil {
		w.fsWatcher.Remove(path)
	}
}

// RemoveAll unregisters every path.
func (w *Watch) RemoveAll() {
	w.mu.Lock()
	old := w.paths
	w.paths = make(map[string]time.Time)
	w.mu.Unlock()

	if w.fsWatcher != nil {
		for path := range old {
			w.fsWatcher.Remove(path)
		}
	}
}

// Paths returns the registered paths in sorted order.
func (w *Watch) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.paths))
	for path := range w.paths {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Dispose stops the watch. It is safe to call more than once; once it
// returns, OnPathTouched is never invoked again.
func (w *Watch) Dispose() {
	w.disposeOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.debouncer.Stop()
		if w.fsWatcher != nil {
			w.fsWatcher.Close()
		}
	})
}

// run is the polling loop. All callbacks are invoked from here.
func (w *Watch) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var fsEvents chan fsnotify.Event
	var fsErrors chan error
	if w.fsWatcher != nil {
		fsEvents = w.fsWatcher.Events
		fsErrors = w.fsWatcher.Errors
	}

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.poll()
		case <-w.debouncer.Output():
			w.poll()
		case event, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			if w.canMoveModTime(event) {
				w.debouncer.Add(event.Name)
			}
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// poll re-stats every registered path and reports the ones whose
// modification time moved.
func (w *Watch) poll() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.paths))
	for path := range w.paths {
		paths = append(paths, path)
	}
	w.mu.Unlock()
	sort.Strings(paths)

	var changed []string
	for _, path := range paths {
		modTime := statModTime(path)

		w.mu.Lock()
		last, registered := w.paths[path]
		if registered && !last.Equal(modTime) {
			w.paths[path] = modTime
			changed = append(changed, path)
		}
		w.mu.Unlock()
	}

	for _, path := range changed {
		select {
		case <-w.stop:
			return
		default:
		}
		w.logger.Debug("path touched", "path", path)
		w.touched(path)
	}
}

// canMoveModTime reports whether event may change the modification time of
// a registered path. Writes to files inside a watched directory leave the
// directory's own time alone, so a log file kept there cannot keep the
// watch awake.
func (w *Watch) canMoveModTime(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, registered := w.paths[event.Name]
	return registered
}

func statModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
