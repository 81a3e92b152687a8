package ignore

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// Policy decides whether a path below the project root belongs in the index.
// A Policy is immutable: the file index builds a fresh one at the start of
// every rescan so configuration changes apply without a restart.
type Policy struct {
	rootDir           string
	directoryPatterns []string
	ignoredExtensions []string
	excludePatterns   []string
	gitIgnore         gitignore.GitIgnore
}

// Options configures a Policy. Nil slices fall back to the defaults;
// Extra* slices are appended to the defaults instead of replacing them.
type Options struct {
	RootDir string

	DirectoryPatterns      []string
	ExtraDirectoryPatterns []string

	IgnoredExtensions      []string
	ExtraIgnoredExtensions []string

	// ExcludePatterns are doublestar globs matched against the relative path
	// and against the base name.
	ExcludePatterns []string

	// UseGitIgnore loads <RootDir>/.gitignore when set.
	UseGitIgnore bool
}

// NewPolicy builds a policy from the given options.
func NewPolicy(options Options) *Policy {
	dirPatterns := options.DirectoryPatterns
	if dirPatterns == nil {
		dirPatterns = DefaultDirectoryPatterns
	}
	extensions := options.IgnoredExtensions
	if extensions == nil {
		extensions = DefaultIgnoredExtensions
	}

	policy := &Policy{
		rootDir:           options.RootDir,
		directoryPatterns: append(append([]string{}, dirPatterns...), options.ExtraDirectoryPatterns...),
		excludePatterns:   normalizePatterns(options.ExcludePatterns),
	}
	for _, ext := range append(append([]string{}, extensions...), options.ExtraIgnoredExtensions...) {
		if ext == "" {
			continue
		}
		policy.ignoredExtensions = append(policy.ignoredExtensions, strings.ToLower(ext))
	}

	if options.UseGitIgnore && options.RootDir != "" {
		policy.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".gitignore"), options.RootDir)
	}
	return policy
}

// IsIgnored reports whether relativePath (forward slashes, relative to the
// root) should be left out of the index.
func (p *Policy) IsIgnored(relativePath string, isDir bool) bool {
	relativePath = filepath.ToSlash(relativePath)
	baseName := path.Base(relativePath)

	// Hidden files and editor backups
	if strings.HasPrefix(baseName, ".") || strings.HasSuffix(baseName, "~") {
		return true
	}

	if isDir {
		if p.matchesDirectoryPattern(baseName) {
			return true
		}
	} else if p.hasIgnoredExtension(baseName) {
		return true
	}

	if p.gitIgnore != nil {
		match := p.gitIgnore.Relative(relativePath, isDir)
		if match != nil && match.Ignore() {
			return true
		}
	}

	return p.matchesExcludePattern(relativePath, baseName)
}

// DirectoryPatterns returns the effective directory patterns.
func (p *Policy) DirectoryPatterns() []string {
	return append([]string(nil), p.directoryPatterns...)
}

// IgnoredExtensions returns the effective extension blacklist (lower-cased).
func (p *Policy) IgnoredExtensions() []string {
	return append([]string(nil), p.ignoredExtensions...)
}

func (p *Policy) matchesDirectoryPattern(baseName string) bool {
	for _, pattern := range p.directoryPatterns {
		if pattern == baseName {
			return true
		}
		matched, err := doublestar.Match(pattern, baseName)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (p *Policy) hasIgnoredExtension(baseName string) bool {
	lower := strings.ToLower(baseName)
	for _, ext := range p.ignoredExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// matchesExcludePattern checks the user-provided globs against the relative
// path and the base name.
func (p *Policy) matchesExcludePattern(relativePath string, baseName string) bool {
	for _, pattern := range p.excludePatterns {
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// normalizePatterns drops invalid globs and converts backslashes.
func normalizePatterns(patterns []string) []string {
	var result []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(strings.ReplaceAll(pattern, "\\", "/"))
		if pattern == "" || !doublestar.ValidatePattern(pattern) {
			continue
		}
		result = append(result, pattern)
	}
	return result
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses io.Reader approach to ensure the file handle is properly closed on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
