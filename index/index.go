package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lexandro/workspace-search/ignore"
	"github.com/lexandro/workspace-search/watcher"
)

// State describes the availability of the file list.
type State int

const (
	// StateUnavailable means no root has been set yet.
	StateUnavailable State = iota
	// StateScanning means a rescan is running; Snapshot returns nil.
	StateScanning
	// StateReady means the snapshot reflects the last successful rescan.
	StateReady
	// StateFailed means the last rescan failed; the snapshot is empty.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unavailable"
	}
}

// Listener is told about validity transitions of the file list.
type Listener interface {
	FileListStateChanged(valid bool)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(valid bool)

// FileListStateChanged calls f(valid).
func (f ListenerFunc) FileListStateChanged(valid bool) { f(valid) }

// PolicyFunc builds the ignore policy for a rescan of root.
type PolicyFunc func(root string) *ignore.Policy

// Options configures a FileIndex.
type Options struct {
	// Policy is called at the start of every rescan. Defaults to the
	// built-in ignore rules.
	Policy PolicyFunc
	// WorthScanning, when set, can veto scanning a root; a vetoed root
	// yields a valid empty snapshot.
	WorthScanning func(root string) bool
	PollInterval  time.Duration
	DisableNotify bool
	Logger        *slog.Logger
}

// FileIndex keeps the list of interesting files below a project root.
//
// Rescans run one at a time on a dedicated goroutine. Requests arriving while
// a rescan is running or queued are coalesced into at most one extra rescan.
// Each rescan installs a new immutable Snapshot, so readers never see a
// partially built list.
type FileIndex struct {
	mu        sync.RWMutex
	root      string
	snapshot  *Snapshot
	state     State
	lastErr   error
	listeners []Listener
	scans     uint64
	scanDone  chan struct{}
	// queued is set while a rescan request waits for the worker.
	queued bool

	// registrationMu serializes changes to the watch registrations.
	registrationMu sync.Mutex

	policy        PolicyFunc
	worthScanning func(root string) bool
	watch         *watcher.Watch
	logger        *slog.Logger

	requests    chan struct{}
	stop        chan struct{}
	done        chan struct{}
	disposeOnce sync.Once
}

// New creates an empty file index. Nothing is scanned until RootDidChange.
func New(options Options) *FileIndex {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := options.Policy
	if policy == nil {
		policy = func(root string) *ignore.Policy {
			return ignore.NewPolicy(ignore.Options{RootDir: root})
		}
	}

	fi := &FileIndex{
		scanDone:      make(chan struct{}),
		policy:        policy,
		worthScanning: options.WorthScanning,
		logger:        logger,
		requests:      make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	fi.watch = watcher.New(watcher.Options{
		PollInterval: options.PollInterval,
		OnPathTouched: func(path string) {
			fi.logger.Debug("watched path changed, rescanning", "path", path)
			fi.UpdateFileList()
		},
		DisableNotify: options.DisableNotify,
		Logger:        logger,
	})

	go fi.run()
	return fi
}

// AddListener registers l for validity transitions. Notifications are
// delivered from the rescan goroutine.
func (fi *FileIndex) AddListener(l Listener) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.listeners = append(fi.listeners, l)
}

// RootDidChange points the index at a new root: the old watch registrations
// are discarded, the new root is watched and a rescan is queued.
func (fi *FileIndex) RootDidChange(newRoot string) {
	if fi.disposed() {
		return
	}
	if abs, err := filepath.Abs(newRoot); err == nil {
		newRoot = abs
	}

	fi.registrationMu.Lock()
	fi.mu.Lock()
	fi.root = newRoot
	fi.mu.Unlock()
	fi.watch.RemoveAll()
	fi.watch.AddPath(newRoot)
	fi.registrationMu.Unlock()

	fi.logger.Info("file index root changed", "root", newRoot)
	fi.UpdateFileList()
}

// UpdateFileList requests a rescan. It never blocks.
func (fi *FileIndex) UpdateFileList() {
	fi.mu.Lock()
	fi.queued = true
	fi.mu.Unlock()
	select {
	case fi.requests <- struct{}{}:
	default:
		// A rescan is already pending; it will see this change too.
	}
}

// Root returns the current project root.
func (fi *FileIndex) Root() string {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.root
}

// Snapshot returns the current snapshot and whether it is valid. While a
// rescan is running the snapshot is nil; after a failed rescan it is empty
// and valid is false.
func (fi *FileIndex) Snapshot() (*Snapshot, bool) {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.snapshot, fi.state == StateReady
}

// State returns the current availability of the file list.
func (fi *FileIndex) State() State {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.state
}

// Err returns the error of the last rescan, if it failed.
func (fi *FileIndex) Err() error {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.lastErr
}

// FileCount returns the number of entries in the current snapshot.
func (fi *FileIndex) FileCount() int {
	snapshot, _ := fi.Snapshot()
	if snapshot == nil {
		return 0
	}
	return snapshot.Len()
}

// FilesMatching returns, in index order, the entries in which re finds a
// match anywhere in the relative path. A nil re matches everything.
func (fi *FileIndex) FilesMatching(re *regexp.Regexp) []string {
	matches, _, _ := fi.Candidates(re)
	return matches
}

// Candidates filters one snapshot: it returns the entries re matches
// together with the size of that same snapshot. valid is false while the
// file list is not Ready.
func (fi *FileIndex) Candidates(re *regexp.Regexp) (matches []string, total int, valid bool) {
	snapshot, valid := fi.Snapshot()
	if !valid || snapshot == nil {
		return nil, 0, false
	}

	if re == nil {
		return append([]string(nil), snapshot.Paths()...), snapshot.Len(), true
	}
	for _, path := range snapshot.Paths() {
		if re.MatchString(path) {
			matches = append(matches, path)
		}
	}
	return matches, snapshot.Len(), true
}

// FilesMatchingGlob returns entries matching a doublestar glob pattern.
func (fi *FileIndex) FilesMatchingGlob(pattern string, maxResults int) ([]string, error) {
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	snapshot, _ := fi.Snapshot()
	if snapshot == nil {
		return nil, nil
	}

	var result []string
	for _, path := range snapshot.Paths() {
		if maxResults > 0 && len(result) >= maxResults {
			break
		}
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			result = append(result, path)
		}
	}
	return result, nil
}

// ScanCount returns how many rescans have completed (successfully or not).
func (fi *FileIndex) ScanCount() uint64 {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.scans
}

// WaitForScan blocks until more than after rescans have completed and
// returns the new count.
func (fi *FileIndex) WaitForScan(ctx context.Context, after uint64) (uint64, error) {
	for {
		fi.mu.RLock()
		scans, done := fi.scans, fi.scanDone
		fi.mu.RUnlock()
		if scans > after {
			return scans, nil
		}

		select {
		case <-done:
		case <-ctx.Done():
			return scans, ctx.Err()
		case <-fi.stop:
			return scans, errDisposed
		}
	}
}

// WaitSettled blocks while a rescan is running or queued. It returns at
// once when the file list is Ready, Failed or has no root.
func (fi *FileIndex) WaitSettled(ctx context.Context) error {
	for {
		fi.mu.RLock()
		state, queued, done := fi.state, fi.queued, fi.scanDone
		fi.mu.RUnlock()
		if state != StateScanning && !queued {
			return nil
		}

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		case <-fi.stop:
			return errDisposed
		}
	}
}

// WatchedPaths returns the paths currently registered with the watch.
func (fi *FileIndex) WatchedPaths() []string {
	return fi.watch.Paths()
}

// Dispose stops the rescan goroutine and the watch. It is idempotent; once
// it returns no listener is notified again.
func (fi *FileIndex) Dispose() {
	fi.disposeOnce.Do(func() {
		close(fi.stop)
		<-fi.done
		fi.watch.Dispose()
	})
}

func (fi *FileIndex) disposed() bool {
	select {
	case <-fi.stop:
		return true
	default:
		return false
	}
}

// run is the single rescan worker.
func (fi *FileIndex) run() {
	defer close(fi.done)
	for {
		select {
		case <-fi.stop:
			return
		case <-fi.requests:
			fi.rescan()
		}
	}
}

func (fi *FileIndex) rescan() {
	fi.mu.Lock()
	fi.queued = false
	root := fi.root
	if root == "" {
		close(fi.scanDone)
		fi.scanDone = make(chan struct{})
		fi.mu.Unlock()
		return
	}
	fi.snapshot = nil
	fi.state = StateScanning
	fi.mu.Unlock()

	if fi.disposed() {
		return
	}
	fi.notify(false)

	start := time.Now()
	paths, dirs, err := fi.scan(root)
	if errors.Is(err, errDisposed) {
		return
	}

	fi.mu.Lock()
	if fi.root != root {
		// The root moved while we were scanning; the queued rescan for the
		// new root will install the next snapshot.
		fi.mu.Unlock()
		return
	}
	if err != nil {
		fi.snapshot = newSnapshot(root, nil)
		fi.state = StateFailed
		fi.lastErr = err
	} else {
		fi.snapshot = newSnapshot(root, paths)
		fi.state = StateReady
		fi.lastErr = nil
	}
	snapshot := fi.snapshot
	fi.mu.Unlock()

	if err != nil {
		fi.logger.Warn("file index rescan failed", "root", root, "error", err)
		dirs = []string{root}
	} else {
		fi.logger.Info("file index rescanned",
			"root", root,
			"files", snapshot.Len(),
			"directories", len(dirs),
			"duration", time.Since(start),
		)
	}
	fi.syncWatch(root, dirs)

	if fi.disposed() {
		return
	}
	fi.notify(err == nil)
	fi.finishScan()
}

// scan produces the sorted file list for root.
func (fi *FileIndex) scan(root string) ([]string, []string, error) {
	if fi.worthScanning != nil && !fi.worthScanning(root) {
		fi.logger.Info("root does not look like a project, not scanning", "root", root)
		return nil, []string{root}, nil
	}
	return scanTree(root, fi.policy(root), fi.stop)
}

// syncWatch makes the watch registrations equal to dirs, provided root is
// still the current root.
func (fi *FileIndex) syncWatch(root string, dirs []string) {
	fi.registrationMu.Lock()
	defer fi.registrationMu.Unlock()

	if fi.Root() != root {
		return
	}

	wanted := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		wanted[dir] = true
	}
	for _, path := range fi.watch.Paths() {
		if !wanted[path] {
			fi.watch.RemovePath(path)
		} else {
			delete(wanted, path)
		}
	}
	for _, dir := range dirs {
		if wanted[dir] {
			fi.watch.AddPath(dir)
		}
	}
}

func (fi *FileIndex) finishScan() {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.scans++
	close(fi.scanDone)
	fi.scanDone = make(chan struct{})
}

func (fi *FileIndex) notify(valid bool) {
	fi.mu.RLock()
	listeners := append([]Listener(nil), fi.listeners...)
	fi.mu.RUnlock()

	for _, l := range listeners {
		l.FileListStateChanged(valid)
	}
}
