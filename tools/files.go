package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/workspace-search/index"
	"github.com/lexandro/workspace-search/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FilesArgs defines the input parameters for the workspace_files tool.
type FilesArgs struct {
	Pattern    string `json:"pattern,omitempty" jsonschema:"Regular expression matched anywhere in the relative path (smart case)"`
	Glob       string `json:"glob,omitempty" jsonschema:"Glob pattern instead of a regular expression (e.g. **/*.go). Takes precedence over pattern"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	FileIndex *index.FileIndex
	Logger    *slog.Logger
}

// Handle processes a workspace_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	if _, valid := h.FileIndex.Snapshot(); !valid {
		return errorResult(fmt.Sprintf("File list unavailable (%s).", h.FileIndex.State())), nil, nil
	}

	var results []string
	if args.Glob != "" {
		matches, err := h.FileIndex.FilesMatchingGlob(args.Glob, 0)
		if err != nil {
			h.Logger.Error("workspace_files failed", "glob", args.Glob, "error", err)
			return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
		}
		results = matches
	} else {
		re, err := search.CompileSmartCase(args.Pattern)
		if err != nil {
			return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
		}
		results = h.FileIndex.FilesMatching(re)
	}

	h.Logger.Info("workspace_files",
		"pattern", args.Pattern,
		"glob", args.Glob,
		"results", len(results),
		"elapsed", time.Since(start),
	)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatFileResults(results, maxResults)}},
	}, nil, nil
}
