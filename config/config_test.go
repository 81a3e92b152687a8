package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func Test_Load_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func Test_Load_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "ctags", cfg.Tags.Command)
}

func Test_Load_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[index]
ignored_directories = ["build"]
ignored_extensions = [".tmp"]
exclude = ["docs/generated/**"]
use_gitignore = false
poll_interval = "250ms"

[search]
workers = 2
status_delay = "0s"

[tags]
command = "/usr/local/bin/uctags"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, []string{"build"}, cfg.Index.IgnoredDirectories)
	require.Equal(t, []string{".tmp"}, cfg.Index.IgnoredExtensions)
	require.Equal(t, []string{"docs/generated/**"}, cfg.Index.Exclude)
	require.False(t, cfg.Index.UseGitIgnore)
	require.Equal(t, 250*time.Millisecond, cfg.Index.PollInterval.Duration)
	require.Equal(t, 2, cfg.Search.Workers)
	require.Equal(t, time.Duration(0), cfg.Search.StatusDelay.Duration)
	require.Equal(t, "/usr/local/bin/uctags", cfg.Tags.Command)
	// Untouched values keep their defaults.
	require.Equal(t, Default().Search.StatusInterval, cfg.Search.StatusInterval)
	require.Equal(t, Default().Tags.Concurrency, cfg.Tags.Concurrency)
}

func Test_Load_NormalizesBadValues(t *testing.T) {
	path := writeConfig(t, `
[search]
workers = -3
max_file_size = 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default().Search.Workers, cfg.Search.Workers)
	require.Equal(t, Default().Search.MaxFileSize, cfg.Search.MaxFileSize)
}

func Test_Load_MalformedFile(t *testing.T) {
	path := writeConfig(t, "[index\npoll_interval = ")

	cfg, err := Load(path)
	require.Error(t, err)
	require.Equal(t, Default(), cfg)
}

func Test_Load_BadDuration(t *testing.T) {
	path := writeConfig(t, "[index]\npoll_interval = \"soon\"\n")

	_, err := Load(path)
	require.Error(t, err)
}
