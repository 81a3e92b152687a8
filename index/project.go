package index

import (
	"os"
	"path/filepath"
)

// ProjectMarkers are file names whose presence in a root suggests that the
// directory is a project worth indexing.
var ProjectMarkers = []string{
	".git", ".hg", ".svn", "CVS",
	"Makefile", "GNUmakefile", "CMakeLists.txt",
	"build.xml", "pom.xml", "build.gradle",
	"go.mod", "Cargo.toml", "package.json",
	"setup.py", "pyproject.toml", "Gemfile",
}

// LooksLikeProject is a WorthScanning predicate that accepts roots containing
// at least one of ProjectMarkers.
func LooksLikeProject(root string) bool {
	for _, marker := range ProjectMarkers {
		if _, err := os.Lstat(filepath.Join(root, marker)); err == nil {
			return true
		}
	}
	return false
}
