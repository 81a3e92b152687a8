package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/workspace-search/search"
	"github.com/lexandro/workspace-search/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgs defines the input parameters for the workspace_search tool.
type SearchArgs struct {
	Content  string `json:"content,omitempty" jsonschema:"Regular expression matched against every line. Lower-case patterns match case-insensitively. Empty lists matching files by name only"`
	FileName string `json:"fileName,omitempty" jsonschema:"Regular expression matched anywhere in the relative path (default: every indexed file)"`
	MaxFiles int    `json:"maxFiles,omitempty" jsonschema:"Maximum number of files to render (default 50)"`
}

const searchAttempts = 3

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Workspace *workspace.Workspace
	Logger    *slog.Logger
}

// Handle processes a workspace_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Content == "" && args.FileName == "" {
		h.Logger.Warn("workspace_search called without patterns")
		return errorResult("Error: content or fileName parameter is required"), nil, nil
	}

	var (
		run     *search.Run
		summary search.Summary
	)
	// A rescan starting between the wait and the search leaves the list
	// unavailable; try again a few times before reporting it.
	for attempt := 0; attempt < searchAttempts; attempt++ {
		if err := h.Workspace.WaitSettled(ctx); err != nil {
			return errorResult(fmt.Sprintf("Search error: waiting for the file list: %v", err)), nil, nil
		}
		run = h.Workspace.Search(args.Content, args.FileName, nil)
		select {
		case <-run.Done():
		case <-ctx.Done():
			run.Cancel()
		}
		summary = run.Wait()
		if !summary.Unavailable {
			break
		}
	}

	if summary.Unavailable {
		reason := summary.Status
		if err := h.Workspace.Index().Err(); err != nil {
			reason = fmt.Sprintf("%s %v", reason, err)
		}
		h.Logger.Warn("workspace_search on unavailable file list", "content", args.Content, "reason", reason)
		return errorResult(fmt.Sprintf("Search error: %s", reason)), nil, nil
	}

	if summary.Err != nil {
		h.Logger.Warn("workspace_search rejected pattern", "content", args.Content, "fileName", args.FileName, "error", summary.Err)
		return errorResult(fmt.Sprintf("Search error: %s", summary.Status)), nil, nil
	}

	h.Logger.Info("workspace_search",
		"content", args.Content,
		"fileName", args.FileName,
		"files", summary.FileMatches,
		"lines", summary.LineMatches,
		"candidates", summary.Candidates,
		"cancelled", summary.Cancelled,
		"elapsed", time.Since(start),
	)

	output := FormatSearchTree(run.Tree, summary, args.MaxFiles)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
