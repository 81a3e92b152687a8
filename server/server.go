package server

import (
	"github.com/lexandro/workspace-search/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handlers bundles the tool handlers registered by Setup.
type Handlers struct {
	Search      *tools.SearchHandler
	Files       *tools.FilesHandler
	Status      *tools.StatusHandler
	Reindex     *tools.ReindexHandler
	Definitions *tools.DefinitionsHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(handlers Handlers, version string) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "workspace-search",
			Version: version,
		},
		&mcp.ServerOptions{
			Instructions: `This server keeps a live list of the project's files and searches their contents with regular expressions.

- Use workspace_search for content search. Patterns without upper-case letters match case-insensitively.
- Use workspace_files to list files by regular expression or glob.
- Use workspace_definitions to look up symbols found in earlier content searches.
- The file list follows the filesystem automatically; workspace_reindex forces a rescan.`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "workspace_search",
		Description: `Search file contents with a regular expression and return the matches grouped by directory.

Parameters:
  - content: regular expression matched against each line (e.g. "func\s+\w+Handler"). Empty lists files by name only.
  - fileName: regular expression matched anywhere in the relative path (e.g. "\.go$").

Case: a pattern containing an upper-case letter is case-sensitive, otherwise case-insensitive.
Files marked [definition] define a symbol matching the content pattern.`,
	}, handlers.Search.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "workspace_files",
		Description: `List indexed files.

  - pattern: regular expression matched anywhere in the relative path (e.g. "test")
  - glob: glob pattern instead (e.g. "**/*.go", "src/**/*.ts")`,
	}, handlers.Files.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "workspace_definitions",
		Description: "Look up symbol definitions (functions, types, classes) whose whole name matches a regular expression. Only files seen by earlier content searches are known.",
	}, handlers.Definitions.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "workspace_status",
		Description: "Show workspace status: file list state, file count, languages, symbol catalog size, memory usage, and uptime.",
	}, handlers.Status.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "workspace_reindex",
		Description: "Rescan the project root now instead of waiting for the filesystem watch.",
	}, handlers.Reindex.Handle)

	return mcpServer
}
