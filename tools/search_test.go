package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lexandro/workspace-search/workspace"
)

func newTestSearchHandler(t *testing.T, files map[string]string) *SearchHandler {
	t.Helper()
	return &SearchHandler{
		Workspace: newTestWorkspace(t, files, nil),
		Logger:    testLogger(),
	}
}

func Test_SearchHandler_NoPatterns(t *testing.T) {
	h := newTestSearchHandler(t, nil)

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true without patterns")
	}
	if text := resultText(t, result); !strings.Contains(text, "content or fileName parameter is required") {
		t.Errorf("unexpected message: %s", text)
	}
}

func Test_SearchHandler_RendersTree(t *testing.T) {
	h := newTestSearchHandler(t, map[string]string{
		"a/x.txt":   "hello world",
		"a/y.txt":   "say hello\nand hello again",
		"b/z.log":   "hello",
		"b/.hidden": "hello",
	})

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Content: "hello", FileName: ".*"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got: %s", resultText(t, result))
	}

	text := resultText(t, result)
	for _, want := range []string{
		"a/\n",
		"  x.txt (1 matches)\n",
		"    1: hello world\n",
		"  y.txt (2 matches)\n",
		"    2: and hello again\n",
		"2 / 2 files match.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "z.log") || strings.Contains(text, ".hidden") {
		t.Errorf("expected ignored files to be absent, got:\n%s", text)
	}
}

func Test_SearchHandler_InvalidPattern(t *testing.T) {
	h := newTestSearchHandler(t, map[string]string{"a.txt": "x"})

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Content: "("})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for an invalid pattern")
	}
	if text := resultText(t, result); !strings.Contains(text, "missing closing )") {
		t.Errorf("expected the regexp error, got: %s", text)
	}
}

func Test_SearchHandler_NoResults(t *testing.T) {
	h := newTestSearchHandler(t, map[string]string{"main.go": "package main"})

	result, _, _ := h.Handle(context.Background(), nil, SearchArgs{Content: "nonexistent"})
	if result.IsError {
		t.Fatal("expected success (no error), got error result")
	}
	text := resultText(t, result)
	if !strings.Contains(text, "No matches found.") || !strings.Contains(text, "0 / 1 files match.") {
		t.Errorf("unexpected output:\n%s", text)
	}
}

func Test_SearchHandler_MaxFiles(t *testing.T) {
	h := newTestSearchHandler(t, map[string]string{
		"a.txt": "hit",
		"b.txt": "hit",
		"c.txt": "hit",
	})

	result, _, _ := h.Handle(context.Background(), nil, SearchArgs{Content: "hit", MaxFiles: 1})
	text := resultText(t, result)
	if !strings.Contains(text, "a.txt") || strings.Contains(text, "b.txt") {
		t.Errorf("expected only the first file, got:\n%s", text)
	}
	if !strings.Contains(text, "... 2 more files") {
		t.Errorf("expected a truncation note, got:\n%s", text)
	}
}

func Test_SearchHandler_RightAfterOpenSearchesCompleteList(t *testing.T) {
	root := t.TempDir()
	for i := range 120 {
		abs := filepath.Join(root, fmt.Sprintf("pkg%d", i%6), fmt.Sprintf("f%03d.txt", i))
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte("needle"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	ws, err := workspace.Open(workspace.Options{
		Root:          root,
		DisableNotify: true,
		Annotator:     nopAnnotator{},
		Logger:        testLogger(),
	})
	if err != nil {
		t.Fatalf("failed to open workspace: %v", err)
	}
	t.Cleanup(ws.Close)
	h := &SearchHandler{Workspace: ws, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Content: "needle"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, "120 / 120 files match.") {
		t.Errorf("expected every file to be searched, got:\n%s", text)
	}
}

func Test_SearchHandler_FailedFileListIsAnError(t *testing.T) {
	ws, err := workspace.Open(workspace.Options{
		Root:          filepath.Join(t.TempDir(), "missing"),
		DisableNotify: true,
		Annotator:     nopAnnotator{},
		Logger:        testLogger(),
	})
	if err != nil {
		t.Fatalf("failed to open workspace: %v", err)
	}
	t.Cleanup(ws.Close)
	h := &SearchHandler{Workspace: ws, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Content: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected IsError=true, got: %s", resultText(t, result))
	}
	if text := resultText(t, result); !strings.Contains(text, "File list unavailable.") {
		t.Errorf("unexpected message: %s", text)
	}
}
