package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lexandro/workspace-search/tags"
)

func Test_DefinitionsHandler_Lookup(t *testing.T) {
	catalog, err := tags.NewCatalog()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { catalog.Close() })

	ws := newTestWorkspace(t, map[string]string{"src/Foo.java": "class Foo { void run() {} }"}, catalog)
	err = catalog.Record(filepath.Join(ws.Root(), "src", "Foo.java"), []tags.Tag{
		{Name: "Foo", Line: 1, Kind: 'c'},
		{Name: "run", Line: 1, Kind: 'm', ScopeKind: "class", Scope: "Foo"},
	})
	if err != nil {
		t.Fatal(err)
	}

	h := &DefinitionsHandler{Workspace: ws, Logger: testLogger()}
	result, _, err := h.Handle(context.Background(), nil, DefinitionsArgs{Pattern: "run"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "src/Foo.java:1  run (m) in class Foo") {
		t.Errorf("unexpected output:\n%s", text)
	}
}

func Test_DefinitionsHandler_EmptyPattern(t *testing.T) {
	ws := newTestWorkspace(t, nil, nil)
	h := &DefinitionsHandler{Workspace: ws, Logger: testLogger()}

	result, _, _ := h.Handle(context.Background(), nil, DefinitionsArgs{})
	if !result.IsError {
		t.Fatal("expected IsError=true for an empty pattern")
	}
}

func Test_DefinitionsHandler_NoCatalog(t *testing.T) {
	ws := newTestWorkspace(t, nil, nil)
	h := &DefinitionsHandler{Workspace: ws, Logger: testLogger()}

	result, _, _ := h.Handle(context.Background(), nil, DefinitionsArgs{Pattern: "Foo"})
	if !result.IsError || !strings.Contains(resultText(t, result), "symbol catalog not available") {
		t.Errorf("expected a catalog error, got: %s", resultText(t, result))
	}
}
