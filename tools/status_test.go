package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lexandro/workspace-search/tags"
)

func Test_FormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"Seconds_zero", 0, "0s"},
		{"Seconds_59", 59 * time.Second, "59s"},
		{"Minutes_5m30s", 5*time.Minute + 30*time.Second, "5m30s"},
		{"Hours_1h30m", 90 * time.Minute, "1h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

func Test_StatusHandler_Report(t *testing.T) {
	catalog, err := tags.NewCatalog()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { catalog.Close() })

	ws := newTestWorkspace(t, map[string]string{
		"main.go":   "package main",
		"util.go":   "package main",
		"README.md": "# readme",
	}, catalog)
	h := &StatusHandler{Workspace: ws, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	for _, want := range []string{
		"Root directory: " + ws.Root(),
		"File list: ready",
		"Indexed files: 3",
		"Symbol catalog: 0 symbols in 0 files",
		"Go",
		"Markdown",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected status to contain %q, got:\n%s", want, text)
		}
	}
}
