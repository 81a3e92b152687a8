package tags

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/semaphore"
)

// DefaultCacheSize is the number of files whose tags are kept in memory.
const DefaultCacheSize = 1024

// Probe asks whether a file defines a symbol matching Pattern.
type Probe struct {
	// Context is the owning search's context. A request still queued when it
	// is cancelled is dropped.
	Context context.Context
	// Path is the absolute path of the file to examine.
	Path    string
	Pattern *regexp.Regexp
	// OnDefinition is called at most once, from a pool goroutine.
	OnDefinition func()
}

// Options configures a Pool.
type Options struct {
	// Concurrency bounds simultaneous extractor runs. Defaults to NumCPU.
	Concurrency int
	// Extractor defaults to &Ctags{}.
	Extractor Extractor
	CacheSize int
	// Catalog, when set, records every extracted tag.
	Catalog *Catalog
	Logger  *slog.Logger
}

type cacheKey struct {
	path    string
	modTime int64
	size    int64
}

// Pool runs definition requests on at most Concurrency worker goroutines.
// Requests wait in a queue, so a search matching thousands of files costs
// queue entries, not goroutines or extractor processes. One pool is meant
// to be shared by every workspace in the process.
type Pool struct {
	mu    sync.Mutex
	queue []Probe
	// workers holds one unit per running worker goroutine.
	workers *semaphore.Weighted

	extractor Extractor
	cache     *lru.Cache[cacheKey, []Tag]
	catalog   *Catalog
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewPool creates a pool.
func NewPool(options Options) *Pool {
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	extractor := options.Extractor
	if extractor == nil {
		extractor = &Ctags{}
	}
	cacheSize := options.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[cacheKey, []Tag](cacheSize)

	return &Pool{
		workers:   semaphore.NewWeighted(int64(concurrency)),
		extractor: extractor,
		cache:     cache,
		catalog:   options.Catalog,
		logger:    logger,
	}
}

var (
	sharedMu sync.Mutex
	shared   *Pool
)

// InitShared creates the process-wide pool from options on first use and
// returns it. Later calls return the existing pool and ignore options.
func InitShared(options Options) *Pool {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = NewPool(options)
	}
	return shared
}

// Shared returns the process-wide pool, creating it with defaults if needed.
func Shared() *Pool {
	return InitShared(Options{})
}

// Catalog returns the symbol catalog fed by this pool, or nil.
func (p *Pool) Catalog() *Catalog {
	return p.catalog
}

// Submit queues a probe. It never blocks.
func (p *Pool) Submit(probe Probe) {
	p.wg.Add(1)
	p.mu.Lock()
	p.queue = append(p.queue, probe)
	if p.workers.TryAcquire(1) {
		go p.work()
	}
	p.mu.Unlock()
}

// Wait blocks until every submitted probe has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// work drains the queue and exits once it is empty.
func (p *Pool) work() {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.workers.Release(1)
			p.mu.Unlock()
			return
		}
		probe := p.queue[0]
		p.queue[0] = Probe{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.process(probe)
	}
}

func (p *Pool) process(probe Probe) {
	defer p.wg.Done()

	ctx := probe.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	found, err := p.hasDefinition(ctx, probe.Path, probe.Pattern)
	if err != nil {
		p.logger.Warn("tag extraction failed", "path", probe.Path, "error", err)
		return
	}
	if found && probe.OnDefinition != nil {
		probe.OnDefinition()
	}
}

// hasDefinition reports whether any definition in path has a name matched
// by pattern.
func (p *Pool) hasDefinition(ctx context.Context, path string, pattern *regexp.Regexp) (bool, error) {
	tags, err := p.tagsFor(ctx, path)
	if err != nil {
		return false, err
	}
	for _, tag := range tags {
		if tag.IsDefinition() && pattern.MatchString(tag.Name) {
			return true, nil
		}
	}
	return false, nil
}

func (p *Pool) tagsFor(ctx context.Context, path string) ([]Tag, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	key := cacheKey{path: path, modTime: info.ModTime().UnixNano(), size: info.Size()}
	if tags, ok := p.cache.Get(key); ok {
		return tags, nil
	}

	tags, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, tags)

	if p.catalog != nil {
		if err := p.catalog.Record(path, tags); err != nil {
			p.logger.Warn("recording tags failed", "path", path, "error", err)
		}
	}
	return tags, nil
}
