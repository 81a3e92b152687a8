package search

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lexandro/workspace-search/language"
)

// cancelCheckLines is how many lines are scanned between cancellation checks.
const cancelCheckLines = 1000

type lineMatch struct {
	number  int
	text    string
	regions []Region
}

type fileResult struct {
	path    string
	matched bool
	lines   []lineMatch
}

// scanFile matches one candidate. A nil pattern is a name-only match and
// does not touch the file.
func (e *Engine) scanFile(ctx context.Context, root, path string, pattern *regexp.Regexp) fileResult {
	result := fileResult{path: path}
	if ctx.Err() != nil {
		return result
	}
	if pattern == nil {
		result.matched = true
		return result
	}

	absPath := filepath.Join(root, filepath.FromSlash(path))
	info, err := os.Stat(absPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.logger.Debug("stat failed", "path", absPath, "error", err)
		}
		return result
	}
	if !info.Mode().IsRegular() || info.Size() > e.maxSize {
		return result
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.logger.Debug("read failed", "path", absPath, "error", err)
		}
		return result
	}
	text, ok := language.DecodeText(data)
	if !ok || text == "" {
		return result
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		if i%cancelCheckLines == 0 && ctx.Err() != nil {
			return fileResult{path: path}
		}
		line = strings.TrimSuffix(line, "\r")
		locations := pattern.FindAllStringIndex(line, -1)
		if locations == nil {
			continue
		}
		regions := make([]Region, len(locations))
		for j, loc := range locations {
			regions[j] = Region{Start: loc[0], End: loc[1]}
		}
		result.lines = append(result.lines, lineMatch{number: i + 1, text: line, regions: regions})
	}
	result.matched = len(result.lines) > 0
	return result
}
