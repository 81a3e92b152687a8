// Package search runs streaming regular-expression searches over the files
// of an index, one live search per engine.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/lexandro/workspace-search/tags"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultWorkers          = 8
	DefaultStatusDelay      = 500 * time.Millisecond
	DefaultStatusInterval   = 250 * time.Millisecond
	DefaultMaxFileSizeBytes = 4 * 1024 * 1024
)

// Generation orders search requests. A request is stale as soon as a larger
// generation exists.
type Generation uint64

// Request is one search as submitted to the engine.
type Request struct {
	Content    string
	FileName   string
	Generation Generation
}

// Index supplies the candidate files.
type Index interface {
	// Candidates returns, in index order, the root-relative paths in which
	// re finds a match, and the size of the file list they were taken
	// from. A nil re matches every path. valid is false while the list is
	// being rebuilt or could not be built.
	Candidates(re *regexp.Regexp) (matches []string, total int, valid bool)
	Root() string
}

// StatusUnavailable is reported when the file list cannot be searched.
const StatusUnavailable = "File list unavailable."

// Annotator accepts definition probes.
type Annotator interface {
	Submit(probe tags.Probe)
}

// Options configures an Engine.
type Options struct {
	Workers          int
	StatusDelay      time.Duration
	StatusInterval   time.Duration
	MaxFileSizeBytes int64
	// Annotator is optional; without one no definition flags are set.
	Annotator Annotator
	Logger    *slog.Logger
}

// EventKind identifies what an Event reports.
type EventKind int

const (
	EventNodeAdded EventKind = iota
	EventDefinitionFound
	EventStatus
	EventFinished
)

// Event is pushed to a Sink as a search progresses.
type Event struct {
	Kind       EventKind
	Generation Generation
	// Node is set for EventNodeAdded and EventDefinitionFound.
	Node *Node
	// Status is set for EventStatus and EventFinished.
	Status string
	// Summary is set for EventFinished.
	Summary *Summary
}

// Sink receives the events of a search. It is called with the engine lock
// held, so it must not call back into the Engine.
type Sink func(Event)

// Summary describes a finished search.
type Summary struct {
	Status string
	// Err is set when a pattern failed to compile.
	Err         error
	FileMatches int
	LineMatches int
	Candidates  int
	// Excluded counts index entries rejected by the file name pattern.
	Excluded  int
	Cancelled bool
	// Unavailable is set when the file list was being rebuilt or had
	// failed; no file was searched.
	Unavailable bool
}

// Run is a handle on a started search.
type Run struct {
	Generation Generation
	Tree       *Tree

	cancel  context.CancelFunc
	done    chan struct{}
	summary Summary
}

// Cancel stops this search if it is still running. Unlike
// Engine.CancelCurrent it never affects a newer generation.
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed when the search has finished or been cancelled.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the search ends and returns its summary.
func (r *Run) Wait() Summary {
	<-r.done
	return r.summary
}

// Engine runs searches against an Index.
type Engine struct {
	index     Index
	workers   int
	delay     time.Duration
	interval  time.Duration
	maxSize   int64
	annotator Annotator
	logger    *slog.Logger

	mu         sync.Mutex
	generation Generation
	cancel     context.CancelFunc
	tree       *Tree
}

// NewEngine creates an engine over index.
func NewEngine(index Index, options Options) *Engine {
	e := &Engine{
		index:     index,
		workers:   options.Workers,
		delay:     options.StatusDelay,
		interval:  options.StatusInterval,
		maxSize:   options.MaxFileSizeBytes,
		annotator: options.Annotator,
		logger:    options.Logger,
		tree:      newTree(0),
	}
	if e.workers <= 0 {
		e.workers = DefaultWorkers
	}
	if e.delay <= 0 {
		e.delay = DefaultStatusDelay
	}
	if e.interval <= 0 {
		e.interval = DefaultStatusInterval
	}
	if e.maxSize <= 0 {
		e.maxSize = DefaultMaxFileSizeBytes
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Search starts a new generation and returns immediately. The previous
// search, if any, is cancelled and its tree abandoned; nothing it produces
// afterwards reaches sink or the new tree.
func (e *Engine) Search(content, fileName string, sink Sink) *Run {
	if sink == nil {
		sink = func(Event) {}
	}

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.generation++
	request := Request{Content: content, FileName: fileName, Generation: e.generation}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	tree := newTree(request.Generation)
	e.tree = tree
	e.mu.Unlock()

	run := &Run{Generation: request.Generation, Tree: tree, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(run.done)
		run.summary = e.execute(ctx, request, tree, sink)
	}()
	return run
}

// CancelCurrent stops the running search, if any. Its tree keeps the nodes
// published so far.
func (e *Engine) CancelCurrent() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Tree returns the tree of the latest generation.
func (e *Engine) Tree() *Tree {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tree
}

// Generation returns the latest generation.
func (e *Engine) Generation() Generation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

func (e *Engine) execute(ctx context.Context, request Request, tree *Tree, sink Sink) Summary {
	contentPattern, err := CompileSmartCase(request.Content)
	var namePattern *regexp.Regexp
	if err == nil {
		namePattern, err = CompileSmartCase(request.FileName)
	}
	if err != nil {
		summary := Summary{Status: err.Error(), Err: err}
		e.emit(ctx, request.Generation, sink, Event{Kind: EventStatus, Status: summary.Status})
		e.emit(ctx, request.Generation, sink, Event{Kind: EventFinished, Status: summary.Status, Summary: &summary})
		return summary
	}

	root := e.index.Root()
	candidates, total, valid := e.index.Candidates(namePattern)
	if !valid {
		summary := Summary{Status: StatusUnavailable, Unavailable: true}
		e.logger.Debug("search skipped, file list unavailable", "generation", request.Generation)
		e.emit(ctx, request.Generation, sink, Event{Kind: EventStatus, Status: summary.Status})
		e.emit(ctx, request.Generation, sink, Event{Kind: EventFinished, Status: summary.Status, Summary: &summary})
		return summary
	}
	summary := Summary{Candidates: len(candidates), Excluded: total - len(candidates)}

	e.logger.Debug("search started",
		"generation", request.Generation,
		"content", request.Content,
		"fileName", request.FileName,
		"candidates", len(candidates),
	)

	started := time.Now()
	limiter := rate.NewLimiter(rate.Every(e.interval), 1)
	processed := 0

	for result := range e.scanAll(ctx, root, candidates, contentPattern) {
		processed++
		if result.matched {
			summary.FileMatches++
			summary.LineMatches += len(result.lines)
			e.publish(ctx, request, root, tree, sink, result, contentPattern)
		}
		if time.Since(started) >= e.delay && limiter.Allow() {
			status := fmt.Sprintf("%d%% ", processed*100/len(candidates))
			e.emit(ctx, request.Generation, sink, Event{Kind: EventStatus, Status: status})
		}
	}

	if ctx.Err() != nil {
		summary.Cancelled = true
		summary.Status = "Search cancelled."
	} else {
		summary.Status = fmt.Sprintf("%d / %d files match.", summary.FileMatches, summary.Candidates)
		if summary.Excluded > 0 {
			summary.Status += fmt.Sprintf(" %d not matching file name pattern.", summary.Excluded)
		}
		e.emit(ctx, request.Generation, sink, Event{Kind: EventStatus, Status: summary.Status})
	}

	e.logger.Debug("search finished",
		"generation", request.Generation,
		"files", summary.FileMatches,
		"lines", summary.LineMatches,
		"cancelled", summary.Cancelled,
		"elapsed", time.Since(started),
	)

	// A cancelled generation that is still current reports its end; a
	// superseded one stays silent.
	e.mu.Lock()
	if e.generation == request.Generation {
		sink(Event{Kind: EventFinished, Generation: request.Generation, Status: summary.Status, Summary: &summary})
	}
	e.mu.Unlock()
	return summary
}

// emit delivers event if its generation is still current and not cancelled.
func (e *Engine) emit(ctx context.Context, generation Generation, sink Sink, event Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != generation || ctx.Err() != nil {
		return false
	}
	event.Generation = generation
	sink(event)
	return true
}

// publish adds a matching file to the tree and pushes every created node.
func (e *Engine) publish(ctx context.Context, request Request, root string, tree *Tree, sink Sink, result fileResult, pattern *regexp.Regexp) {
	generation := request.Generation

	e.mu.Lock()
	if e.generation != generation || ctx.Err() != nil {
		e.mu.Unlock()
		return
	}
	added, file := tree.addFile(result, request.Content)
	for _, node := range added {
		sink(Event{Kind: EventNodeAdded, Generation: generation, Node: node})
	}
	e.mu.Unlock()

	if pattern == nil || e.annotator == nil {
		return
	}
	e.annotator.Submit(tags.Probe{
		Context: ctx,
		Path:    filepath.Join(root, filepath.FromSlash(result.path)),
		Pattern: pattern,
		OnDefinition: func() {
			file.definition.Store(true)
			e.emit(ctx, generation, sink, Event{Kind: EventDefinitionFound, Node: file})
		},
	})
}

// scanAll scans candidates on a bounded set of goroutines and yields the
// results in candidate order. The channel is closed when every dispatched
// file has been delivered.
func (e *Engine) scanAll(ctx context.Context, root string, candidates []string, pattern *regexp.Regexp) <-chan fileResult {
	slots := make(chan chan fileResult, e.workers*4)
	results := make(chan fileResult)

	go func() {
		defer close(slots)
		var group errgroup.Group
		group.SetLimit(e.workers)
		for _, path := range candidates {
			if ctx.Err() != nil {
				break
			}
			slot := make(chan fileResult, 1)
			slots <- slot
			group.Go(func() error {
				slot <- e.scanFile(ctx, root, path, pattern)
				return nil
			})
		}
		group.Wait()
	}()

	go func() {
		defer close(results)
		for slot := range slots {
			results <- <-slot
		}
	}()
	return results
}
