// Package config loads the per-workspace settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the settings file looked up in the project root.
const FileName = ".workspace-search.toml"

// Config holds every tunable of a workspace.
type Config struct {
	Index  IndexConfig  `toml:"index"`
	Search SearchConfig `toml:"search"`
	Tags   TagsConfig   `toml:"tags"`
}

// IndexConfig controls what the file index considers interesting.
type IndexConfig struct {
	// IgnoredDirectories and IgnoredExtensions are added to the built-in lists.
	IgnoredDirectories []string `toml:"ignored_directories"`
	IgnoredExtensions  []string `toml:"ignored_extensions"`
	// Exclude holds doublestar globs matched against relative paths.
	Exclude []string `toml:"exclude"`
	// UseGitIgnore honours the project's .gitignore.
	UseGitIgnore bool `toml:"use_gitignore"`
	// RequireProject skips roots that do not look like a project.
	RequireProject bool     `toml:"require_project"`
	PollInterval   Duration `toml:"poll_interval"`
}

// SearchConfig controls the search engine.
type SearchConfig struct {
	Workers        int      `toml:"workers"`
	StatusDelay    Duration `toml:"status_delay"`
	StatusInterval Duration `toml:"status_interval"`
	MaxFileSize    int64    `toml:"max_file_size"`
}

// TagsConfig controls the definition annotator.
type TagsConfig struct {
	Command     string `toml:"command"`
	Concurrency int    `toml:"concurrency"`
}

// Duration is a time.Duration that decodes from strings such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Index: IndexConfig{
			UseGitIgnore: true,
			PollInterval: Duration{2 * time.Second},
		},
		Search: SearchConfig{
			Workers:        8,
			StatusDelay:    Duration{500 * time.Millisecond},
			StatusInterval: Duration{250 * time.Millisecond},
			MaxFileSize:    4 * 1024 * 1024,
		},
		Tags: TagsConfig{
			Command:     "ctags",
			Concurrency: 4,
		},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize replaces nonsensical values with defaults.
func (c *Config) normalize() {
	defaults := Default()
	if c.Index.PollInterval.Duration <= 0 {
		c.Index.PollInterval = defaults.Index.PollInterval
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = defaults.Search.Workers
	}
	if c.Search.StatusInterval.Duration <= 0 {
		c.Search.StatusInterval = defaults.Search.StatusInterval
	}
	if c.Search.StatusDelay.Duration < 0 {
		c.Search.StatusDelay = defaults.Search.StatusDelay
	}
	if c.Search.MaxFileSize <= 0 {
		c.Search.MaxFileSize = defaults.Search.MaxFileSize
	}
	if c.Tags.Command == "" {
		c.Tags.Command = defaults.Tags.Command
	}
	if c.Tags.Concurrency <= 0 {
		c.Tags.Concurrency = defaults.Tags.Concurrency
	}
}
