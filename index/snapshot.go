package index

import (
	"slices"
	"strings"
	"time"
)

// Snapshot is one immutable result of a rescan: project-relative paths with
// forward slashes, unique, ordered case-insensitively.
type Snapshot struct {
	root      string
	paths     []string
	createdAt time.Time
}

func newSnapshot(root string, paths []string) *Snapshot {
	slices.SortFunc(paths, compareEntries)
	return &Snapshot{root: root, paths: slices.Clip(paths), createdAt: time.Now()}
}

// Root returns the directory the snapshot was taken from.
func (s *Snapshot) Root() string { return s.root }

// Len returns the number of entries.
func (s *Snapshot) Len() int { return len(s.paths) }

// CreatedAt returns when the rescan that produced the snapshot finished.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }

// Paths returns the ordered entries. The slice is shared and must not be modified.
func (s *Snapshot) Paths() []string { return s.paths }

// Contains reports whether relativePath is in the snapshot.
func (s *Snapshot) Contains(relativePath string) bool {
	_, found := slices.BinarySearchFunc(s.paths, relativePath, compareEntries)
	return found
}

// compareEntries orders paths case-insensitively, falling back to byte order
// so that names differing only in case still have a stable position.
func compareEntries(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
