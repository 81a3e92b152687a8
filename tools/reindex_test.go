package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func Test_ReindexHandler_PicksUpNewFiles(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{"a.go": "package a"}, nil)
	h := &ReindexHandler{Workspace: ws, Logger: testLogger()}

	if err := os.WriteFile(filepath.Join(ws.Root(), "b.go"), []byte("package b"), 0644); err != nil {
		t.Fatal(err)
	}

	result, _, err := h.Handle(context.Background(), nil, ReindexArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.HasPrefix(text, "reindexed: 2 files") {
		t.Errorf("unexpected output: %s", text)
	}
}

func Test_ReindexHandler_CancelledContext(t *testing.T) {
	ws := newTestWorkspace(t, map[string]string{"a.go": "package a"}, nil)
	h := &ReindexHandler{Workspace: ws, Logger: testLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Either the rescan wins the race or the cancellation is reported.
	result, _, err := h.Handle(ctx, nil, ReindexArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError && !strings.Contains(resultText(t, result), "context canceled") {
		t.Errorf("unexpected error text: %s", resultText(t, result))
	}
}
