package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/workspace-search/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReindexArgs defines the input parameters for the workspace_reindex tool.
type ReindexArgs struct{}

// ReindexHandler holds the dependencies for the reindex tool.
type ReindexHandler struct {
	Workspace *workspace.Workspace
	Logger    *slog.Logger
}

// Handle processes a workspace_reindex request.
func (h *ReindexHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReindexArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("workspace_reindex started")
	start := time.Now()

	count, err := h.Workspace.Reindex(ctx)
	if err != nil {
		h.Logger.Error("workspace_reindex failed", "error", err)
		return errorResult(fmt.Sprintf("Reindex error: %v", err)), nil, nil
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	h.Logger.Info("workspace_reindex complete", "files", count, "elapsed", elapsed)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("reindexed: %d files in %s", count, elapsed)}},
	}, nil, nil
}
