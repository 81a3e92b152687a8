package tools

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lexandro/workspace-search/tags"
	"github.com/lexandro/workspace-search/workspace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type nopAnnotator struct{}

func (nopAnnotator) Submit(tags.Probe) {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestWorkspace writes files under a temporary root and waits for the
// first rescan.
func newTestWorkspace(t *testing.T, files map[string]string, catalog *tags.Catalog) *workspace.Workspace {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	ws, err := workspace.Open(workspace.Options{
		Root:          root,
		DisableNotify: true,
		Annotator:     nopAnnotator{},
		Catalog:       catalog,
		Logger:        testLogger(),
	})
	if err != nil {
		t.Fatalf("failed to open workspace: %v", err)
	}
	t.Cleanup(ws.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ws.WaitReady(ctx); err != nil {
		t.Fatalf("workspace never became ready: %v", err)
	}
	return ws
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in result")
	}
	return result.Content[0].(*mcp.TextContent).Text
}
