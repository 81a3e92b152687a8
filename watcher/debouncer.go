package watcher

import (
	"sync"
	"time"
)

// Debouncer collects touched paths and emits them as one batch after a quiet
// period. Repeated touches of the same path within the window collapse.
type Debouncer struct {
	interval time.Duration
	paths    map[string]struct{}
	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
	output   chan []string
}

// NewDebouncer creates a debouncer with the specified quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		paths:    make(map[string]struct{}),
		output:   make(chan []string, 1),
	}
}

// Output returns the channel that receives batched paths.
func (d *Debouncer) Output() <-chan []string {
	return d.output
}

// Add records a touched path and restarts the quiet period.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.paths[path] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// Stop cancels any pending flush. Later calls to Add are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.paths = make(map[string]struct{})
}

// flush sends the accumulated paths to the output channel and resets the buffer.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.paths) == 0 {
		return
	}

	batch := make([]string, 0, len(d.paths))
	for path := range d.paths {
		batch = append(batch, path)
	}

	select {
	case d.output <- batch:
		d.paths = make(map[string]struct{})
	default:
		// The reader has not drained the previous batch yet; keep collecting
		// and retry after another quiet period.
		d.timer = time.AfterFunc(d.interval, d.flush)
	}
}
