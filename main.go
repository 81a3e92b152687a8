package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexandro/workspace-search/config"
	"github.com/lexandro/workspace-search/server"
	"github.com/lexandro/workspace-search/tags"
	"github.com/lexandro/workspace-search/tools"
	"github.com/lexandro/workspace-search/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const version = "0.1.0"

// excludePatterns is a repeatable CLI flag for custom ignore patterns.
type excludePatterns []string

func (e *excludePatterns) String() string { return strings.Join(*e, ", ") }
func (e *excludePatterns) Set(value string) error {
	*e = append(*e, value)
	return nil
}

func main() {
	var rootDir string
	var configPath string
	var pollInterval time.Duration
	var ctagsCommand string
	var logLevel string
	var logFile string
	var excludes excludePatterns

	flag.StringVar(&rootDir, "root", "", "Project root directory (default: current working directory)")
	flag.StringVar(&configPath, "config", "", "Config file (default: <root>/"+config.FileName+")")
	flag.Var(&excludes, "exclude", "Extra exclude glob (repeatable)")
	flag.DurationVar(&pollInterval, "poll-interval", 0, "Watch poll interval (default: from config, 2s)")
	flag.StringVar(&ctagsCommand, "ctags", "", "Tag extractor command (default: from config, ctags)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (default: <root>/workspace-search.log)")
	flag.Parse()

	if rootDir == "" {
		var err error
		rootDir, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
	}
	rootDir, _ = filepath.Abs(rootDir)
	if configPath == "" {
		configPath = filepath.Join(rootDir, config.FileName)
	}

	if logFile == "" {
		logFile = filepath.Join(rootDir, "workspace-search.log")
	}

	// Always to file or stderr, never to stdout - stdout is for MCP stdio.
	logger := setupLogger(logLevel, logFile)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("using default configuration", "error", err)
	}
	if ctagsCommand != "" {
		cfg.Tags.Command = ctagsCommand
	}

	logger.Info("starting workspace-search",
		"root", rootDir,
		"config", configPath,
		"ctags", cfg.Tags.Command,
		"tagConcurrency", cfg.Tags.Concurrency,
	)

	catalog, err := tags.NewCatalog()
	if err != nil {
		logger.Error("failed to create symbol catalog", "error", err)
		os.Exit(1)
	}
	defer catalog.Close()

	pool := tags.InitShared(tags.Options{
		Concurrency: cfg.Tags.Concurrency,
		Extractor:   &tags.Ctags{Command: cfg.Tags.Command},
		Catalog:     catalog,
		Logger:      logger,
	})

	ws, err := workspace.Open(workspace.Options{
		Root:         rootDir,
		ConfigPath:   configPath,
		Exclude:      excludes,
		PollInterval: pollInterval,
		Annotator:    pool,
		Catalog:      catalog,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("failed to open workspace", "error", err)
		os.Exit(1)
	}
	defer ws.Close()

	mcpServer := server.Setup(server.Handlers{
		Search:      &tools.SearchHandler{Workspace: ws, Logger: logger},
		Files:       &tools.FilesHandler{FileIndex: ws.Index(), Logger: logger},
		Status:      &tools.StatusHandler{Workspace: ws, Logger: logger},
		Reindex:     &tools.ReindexHandler{Workspace: ws, Logger: logger},
		Definitions: &tools.DefinitionsHandler{Workspace: ws, Logger: logger},
	}, version)

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Error("MCP server error", "error", err)
		ws.Close()
		os.Exit(1)
	}
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
