package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lexandro/workspace-search/ignore"
)

var errDisposed = errors.New("file index disposed")

// walker performs one depth-first rescan of a project root.
type walker struct {
	root     string
	realRoot string
	policy   *ignore.Policy
	stop     <-chan struct{}

	visited map[string]bool
	paths   []string
	dirs    []string
	// links holds symlinked directories, walked after every real directory
	// so that a real directory is always indexed under its own path.
	links []linkedDir
}

type linkedDir struct {
	absPath string
	relPath string
}

// scanTree walks root and returns the interesting files (relative paths) and
// every directory visited (absolute paths, for watch registration).
func scanTree(root string, policy *ignore.Policy, stop <-chan struct{}) (paths []string, dirs []string, err error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("root %s is not a directory", root)
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving root %s: %w", root, err)
	}

	w := &walker{
		root:     root,
		realRoot: realRoot,
		policy:   policy,
		stop:     stop,
		visited:  make(map[string]bool),
	}
	if err := w.walk(root, ""); err != nil {
		return nil, nil, err
	}
	// A link whose target was already walked is skipped by the visited set;
	// links into ignored directories are indexed once under the link name.
	for len(w.links) > 0 {
		link := w.links[0]
		w.links = w.links[1:]
		if err := w.walk(link.absPath, link.relPath); err != nil {
			return nil, nil, err
		}
	}
	return w.paths, w.dirs, nil
}

func (w *walker) walk(dir string, relDir string) error {
	select {
	case <-w.stop:
		return errDisposed
	default:
	}

	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if relDir == "" {
			return fmt.Errorf("resolving root %s: %w", dir, err)
		}
		return nil
	}
	// A directory reachable through several links is walked once.
	if w.visited[realDir] {
		return nil
	}
	w.visited[realDir] = true
	w.dirs = append(w.dirs, dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if relDir == "" {
			return fmt.Errorf("reading root %s: %w", dir, err)
		}
		// Directories vanishing mid-scan are ordinary races.
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		relPath := name
		if relDir != "" {
			relPath = relDir + "/" + name
		}
		absPath := filepath.Join(dir, name)

		isDir := entry.IsDir()
		isLink := entry.Type()&fs.ModeSymlink != 0
		switch {
		case isLink:
			if !w.insideRoot(absPath) {
				continue
			}
			info, err := os.Stat(absPath)
			if err != nil {
				continue
			}
			isDir = info.IsDir()
			if !isDir && !info.Mode().IsRegular() {
				continue
			}
		case !isDir && !entry.Type().IsRegular():
			continue
		}

		if w.policy.IsIgnored(relPath, isDir) {
			continue
		}
		if isDir && isLink {
			w.links = append(w.links, linkedDir{absPath: absPath, relPath: relPath})
			continue
		}
		if isDir {
			if err := w.walk(absPath, relPath); err != nil {
				return err
			}
			continue
		}
		w.paths = append(w.paths, relPath)
	}
	return nil
}

// insideRoot reports whether the symlink at path resolves to a location
// under the (resolved) project root.
func (w *walker) insideRoot(path string) bool {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(w.realRoot, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
