package tags

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Extractor produces the tags of a single file.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Tag, error)
}

// DefaultCtagsArgs are the flags passed before "-f <tmp> <file>".
var DefaultCtagsArgs = []string{"--excmd=number", "--sort=no", "--fields=ks"}

// Ctags runs an external ctags binary and parses the tags file it writes.
type Ctags struct {
	// Command defaults to "ctags".
	Command string
	// Args defaults to DefaultCtagsArgs.
	Args []string
}

// Extract implements Extractor. The temporary tags file is removed before
// returning, whether or not parsing succeeded.
func (c *Ctags) Extract(ctx context.Context, path string) ([]Tag, error) {
	tmpFile, err := os.CreateTemp("", "workspace-search-*.tags")
	if err != nil {
		return nil, fmt.Errorf("creating tags file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	command := c.Command
	if command == "" {
		command = "ctags"
	}
	args := c.Args
	if args == nil {
		args = DefaultCtagsArgs
	}
	args = append(append([]string{}, args...), "-f", tmpPath, path)

	cmd := exec.CommandContext(ctx, command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running %s on %s: %w: %s", command, path, err, strings.TrimSpace(stderr.String()))
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("opening tags file: %w", err)
	}
	defer f.Close()

	return ParseTags(f)
}
