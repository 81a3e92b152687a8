// Package tags finds symbol definitions with an external tag extractor.
package tags

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Tag is one symbol reported by the extractor.
type Tag struct {
	Name string
	File string
	Line int
	// Kind is the one-letter tag type, e.g. 'f' for a function.
	Kind byte
	// ScopeKind and Scope describe the enclosing symbol, e.g. "class" and "Foo".
	ScopeKind string
	Scope     string
}

// IsDefinition reports whether the tag is a definition site. Kind 'p' is a
// prototype in C-like languages and a package in Java; neither counts.
func (t Tag) IsDefinition() bool {
	return t.Kind != 'p'
}

// ParseTags reads tags in the tab-separated ctags format:
//
//	name<TAB>file<TAB>address;"<TAB>kind<TAB>scope...
//
// Header lines starting with "!_TAG_" are skipped.
func ParseTags(r io.Reader) ([]Tag, error) {
	var tags []Tag
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "!_TAG_") {
			continue
		}

		tag, err := parseTagLine(line)
		if err != nil {
			return nil, fmt.Errorf("tags line %d: %w", lineNumber, err)
		}
		tags = append(tags, tag)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}
	return tags, nil
}

func parseTagLine(line string) (Tag, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 || fields[0] == "" {
		return Tag{}, fmt.Errorf("malformed tag %q", line)
	}

	tag := Tag{Name: fields[0], File: fields[1]}

	address := strings.TrimSuffix(fields[2], `;"`)
	if n, err := strconv.Atoi(address); err == nil {
		tag.Line = n
	}

	for _, field := range fields[3:] {
		key, value, hasKey := strings.Cut(field, ":")
		switch {
		case !hasKey && len(field) == 1:
			tag.Kind = field[0]
		case hasKey && key == "kind" && value != "":
			tag.Kind = value[0]
		case hasKey && key != "file" && key != "line" && key != "signature":
			tag.ScopeKind = key
			tag.Scope = value
		}
	}
	return tag, nil
}
