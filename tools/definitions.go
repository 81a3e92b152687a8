package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexandro/workspace-search/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefinitionsArgs defines the input parameters for the workspace_definitions tool.
type DefinitionsArgs struct {
	Pattern    string `json:"pattern" jsonschema:"Regular expression matched against whole symbol names (e.g. parse.*)"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of definitions to return (default 50)"`
}

// DefinitionsHandler holds the dependencies for the definitions tool.
type DefinitionsHandler struct {
	Workspace *workspace.Workspace
	Logger    *slog.Logger
}

// Handle processes a workspace_definitions request.
func (h *DefinitionsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args DefinitionsArgs) (*mcp.CallToolResult, any, error) {
	if args.Pattern == "" {
		return errorResult("Error: pattern parameter is required"), nil, nil
	}

	found, err := h.Workspace.Definitions(args.Pattern, args.MaxResults)
	if err != nil {
		h.Logger.Error("workspace_definitions failed", "pattern", args.Pattern, "error", err)
		return errorResult(fmt.Sprintf("Lookup error: %v", err)), nil, nil
	}

	h.Logger.Info("workspace_definitions", "pattern", args.Pattern, "results", len(found))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatDefinitions(found)}},
	}, nil, nil
}
