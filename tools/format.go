package tools

import (
	"fmt"
	"strings"

	"github.com/lexandro/workspace-search/language"
	"github.com/lexandro/workspace-search/search"
	"github.com/lexandro/workspace-search/tags"
)

// FormatSearchTree renders a result tree with directories as headers, files
// with their match counts and lines indented below, followed by the status.
func FormatSearchTree(tree *search.Tree, summary search.Summary, maxFiles int) string {
	if maxFiles <= 0 {
		maxFiles = 50
	}

	var builder strings.Builder
	shown, hidden := 0, 0
	skipping := false
	tree.Walk(func(n *search.Node, depth int) {
		switch n.Kind {
		case search.KindFile:
			skipping = shown >= maxFiles
			if skipping {
				hidden++
				return
			}
			shown++
		case search.KindDirectory:
			if shown >= maxFiles {
				return
			}
		case search.KindLine:
			if skipping {
				return
			}
		}

		indent := strings.Repeat("  ", depth)
		switch n.Kind {
		case search.KindDirectory:
			builder.WriteString(fmt.Sprintf("%s%s/\n", indent, n.Name))
		case search.KindFile:
			builder.WriteString(indent + n.Name)
			if n.MatchCount > 0 {
				builder.WriteString(fmt.Sprintf(" (%d matches)", n.MatchCount))
			}
			if n.HasDefinition() {
				builder.WriteString(" [definition]")
			}
			builder.WriteString("\n")
		case search.KindLine:
			builder.WriteString(fmt.Sprintf("%s%d: %s\n", indent, n.LineNumber, n.Text))
		}
	})

	if hidden > 0 {
		builder.WriteString(fmt.Sprintf("... %d more files\n", hidden))
	}
	if summary.FileMatches == 0 {
		builder.WriteString("No matches found.\n")
	}
	builder.WriteString("\n")
	builder.WriteString(summary.Status)
	return builder.String()
}

// FormatFileResults formats file search results as human-readable text.
func FormatFileResults(results []string, maxResults int) string {
	if len(results) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(results)))

	for i, path := range results {
		if i >= maxResults {
			builder.WriteString(fmt.Sprintf("... %d more\n", len(results)-maxResults))
			break
		}
		builder.WriteString(fmt.Sprintf("  %s  (%s)\n", path, language.DetectLanguage(path)))
	}

	return builder.String()
}

// FormatDefinitions lists symbols as path:line with their kind and scope.
func FormatDefinitions(found []tags.Tag) string {
	if len(found) == 0 {
		return "No definitions found. The catalog only knows files that appeared in earlier content searches."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d definitions:\n\n", len(found)))
	for _, tag := range found {
		builder.WriteString(fmt.Sprintf("  %s:%d  %s (%c)", tag.File, tag.Line, tag.Name, tag.Kind))
		if tag.Scope != "" {
			builder.WriteString(fmt.Sprintf(" in %s %s", tag.ScopeKind, tag.Scope))
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
