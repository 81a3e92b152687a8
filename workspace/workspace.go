// Package workspace assembles the file index, its watch and the search
// engine for one project root.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lexandro/workspace-search/config"
	"github.com/lexandro/workspace-search/ignore"
	"github.com/lexandro/workspace-search/index"
	"github.com/lexandro/workspace-search/search"
	"github.com/lexandro/workspace-search/tags"
)

// ErrNoCatalog is returned by Definitions when no symbol catalog is attached.
var ErrNoCatalog = errors.New("symbol catalog not available")

// Options configures Open.
type Options struct {
	Root string
	// ConfigPath defaults to <root>/.workspace-search.toml.
	ConfigPath string
	// Exclude adds globs on top of the config file's exclude list.
	Exclude []string
	// PollInterval overrides the config file when positive.
	PollInterval  time.Duration
	DisableNotify bool
	// Annotator defaults to the process-wide tags pool.
	Annotator search.Annotator
	// Catalog defaults to the catalog of the process-wide pool.
	Catalog *tags.Catalog
	Logger  *slog.Logger
}

// Workspace is one open project root.
type Workspace struct {
	root       string
	configPath string
	exclude    []string
	index      *index.FileIndex
	engine     *search.Engine
	catalog    *tags.Catalog
	logger     *slog.Logger
	openedAt   time.Time
	closeOnce  sync.Once
}

// Open loads the configuration, starts the index and schedules the first
// rescan. A missing root is not an error: the index simply stays invalid
// until the directory appears.
func Open(options Options) (*Workspace, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root, err := filepath.Abs(options.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", options.Root, err)
	}
	configPath := options.ConfigPath
	if configPath == "" {
		configPath = filepath.Join(root, config.FileName)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("using default configuration", "error", err)
	}

	annotator := options.Annotator
	catalog := options.Catalog
	if annotator == nil {
		pool := tags.InitShared(tags.Options{
			Concurrency: cfg.Tags.Concurrency,
			Extractor:   &tags.Ctags{Command: cfg.Tags.Command},
			Catalog:     catalog,
			Logger:      logger,
		})
		annotator = pool
		if catalog == nil {
			catalog = pool.Catalog()
		}
	}

	pollInterval := cfg.Index.PollInterval.Duration
	if options.PollInterval > 0 {
		pollInterval = options.PollInterval
	}

	w := &Workspace{
		root:       root,
		configPath: configPath,
		exclude:    options.Exclude,
		catalog:    catalog,
		logger:     logger,
		openedAt:   time.Now(),
	}

	indexOptions := index.Options{
		Policy:        w.policy,
		PollInterval:  pollInterval,
		DisableNotify: options.DisableNotify,
		Logger:        logger,
	}
	if cfg.Index.RequireProject {
		indexOptions.WorthScanning = index.LooksLikeProject
	}
	w.index = index.New(indexOptions)
	w.index.AddListener(index.ListenerFunc(func(valid bool) {
		if valid {
			logger.Info("file list ready", "root", root, "files", w.index.FileCount())
		} else if err := w.index.Err(); err != nil {
			logger.Warn("file list unavailable", "root", root, "error", err)
		} else {
			logger.Debug("file list rescanning", "root", root)
		}
	}))

	w.engine = search.NewEngine(w.index, search.Options{
		Workers:          cfg.Search.Workers,
		StatusDelay:      cfg.Search.StatusDelay.Duration,
		StatusInterval:   cfg.Search.StatusInterval.Duration,
		MaxFileSizeBytes: cfg.Search.MaxFileSize,
		Annotator:        annotator,
		Logger:           logger,
	})

	w.index.RootDidChange(root)
	return w, nil
}

// policy rebuilds the ignore policy from the config file. It runs at the
// start of every rescan so edits take effect without reopening.
func (w *Workspace) policy(root string) *ignore.Policy {
	cfg, err := config.Load(w.configPath)
	if err != nil {
		w.logger.Warn("using default configuration", "error", err)
	}
	exclude := append(append([]string{}, cfg.Index.Exclude...), w.exclude...)
	return ignore.NewPolicy(ignore.Options{
		RootDir:                root,
		ExtraDirectoryPatterns: cfg.Index.IgnoredDirectories,
		ExtraIgnoredExtensions: cfg.Index.IgnoredExtensions,
		ExcludePatterns:        exclude,
		UseGitIgnore:           cfg.Index.UseGitIgnore,
	})
}

// Root returns the absolute project root.
func (w *Workspace) Root() string {
	return w.root
}

// Index returns the workspace's file index.
func (w *Workspace) Index() *index.FileIndex {
	return w.index
}

// OpenedAt returns when the workspace was opened.
func (w *Workspace) OpenedAt() time.Time {
	return w.openedAt
}

// Catalog returns the symbol catalog, or nil.
func (w *Workspace) Catalog() *tags.Catalog {
	return w.catalog
}

// Search starts a new search, superseding the running one.
func (w *Workspace) Search(content, fileName string, sink search.Sink) *search.Run {
	return w.engine.Search(content, fileName, sink)
}

// CancelSearch stops the running search.
func (w *Workspace) CancelSearch() {
	w.engine.CancelCurrent()
}

// WaitReady blocks until at least one rescan has completed.
func (w *Workspace) WaitReady(ctx context.Context) error {
	_, err := w.index.WaitForScan(ctx, 0)
	return err
}

// WaitSettled blocks while a rescan is running, so that a search started
// afterwards sees a complete file list unless another rescan begins.
func (w *Workspace) WaitSettled(ctx context.Context) error {
	return w.index.WaitSettled(ctx)
}

// Reindex requests a rescan and waits for one that started after the
// request. It returns the resulting file count.
func (w *Workspace) Reindex(ctx context.Context) (int, error) {
	after := w.index.ScanCount()
	if w.index.State() == index.StateScanning {
		after++
	}
	w.index.UpdateFileList()
	if _, err := w.index.WaitForScan(ctx, after); err != nil {
		return 0, fmt.Errorf("waiting for rescan: %w", err)
	}
	if err := w.index.Err(); err != nil {
		return 0, err
	}
	return w.index.FileCount(), nil
}

// Definitions looks up symbols recorded by earlier searches. Paths are
// returned relative to the root; symbols from other roots are dropped.
func (w *Workspace) Definitions(pattern string, limit int) ([]tags.Tag, error) {
	if w.catalog == nil {
		return nil, ErrNoCatalog
	}
	found, err := w.catalog.Lookup(pattern, limit)
	if err != nil {
		return nil, err
	}

	result := make([]tags.Tag, 0, len(found))
	for _, tag := range found {
		rel, err := filepath.Rel(w.root, tag.File)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		tag.File = filepath.ToSlash(rel)
		result = append(result, tag)
	}
	return result, nil
}

// Close cancels the running search and disposes the index and its watch.
// The shared annotator pool stays alive for other workspaces.
func (w *Workspace) Close() {
	w.closeOnce.Do(func() {
		w.engine.CancelCurrent()
		w.index.Dispose()
	})
}
