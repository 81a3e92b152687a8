package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/lexandro/workspace-search/language"
	"github.com/lexandro/workspace-search/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the workspace_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Workspace *workspace.Workspace
	Logger    *slog.Logger
}

// Handle processes a workspace_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	fileIndex := h.Workspace.Index()
	paths := fileIndex.FilesMatching(nil)
	langCounts := language.CountLanguages(paths)
	uptime := time.Since(h.Workspace.OpenedAt())

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("workspace_status",
		"state", fileIndex.State(),
		"files", len(paths),
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== workspace-search Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Root directory: %s\n", h.Workspace.Root()))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("File list: %s\n", fileIndex.State()))
	if err := fileIndex.Err(); err != nil {
		builder.WriteString(fmt.Sprintf("Last rescan error: %v\n", err))
	}
	builder.WriteString(fmt.Sprintf("Indexed files: %d\n", len(paths)))
	builder.WriteString(fmt.Sprintf("Rescans: %d\n", fileIndex.ScanCount()))
	builder.WriteString(fmt.Sprintf("Watched directories: %d\n", len(fileIndex.WatchedPaths())))

	if catalog := h.Workspace.Catalog(); catalog != nil {
		symbols, err := catalog.Count()
		if err != nil {
			h.Logger.Warn("counting symbols failed", "error", err)
		}
		builder.WriteString(fmt.Sprintf("Symbol catalog: %d symbols in %d files\n", symbols, catalog.Files()))
	}

	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	if len(langCounts) > 0 {
		builder.WriteString("\nLanguages:\n")

		type langEntry struct {
			lang  string
			count int
		}
		entries := make([]langEntry, 0, len(langCounts))
		for lang, count := range langCounts {
			entries = append(entries, langEntry{lang, count})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].count != entries[j].count {
				return entries[i].count > entries[j].count
			}
			return entries[i].lang < entries[j].lang
		})

		for _, entry := range entries {
			builder.WriteString(fmt.Sprintf("  %-20s %d files\n", entry.lang, entry.count))
		}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: builder.String()}},
	}, nil, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
