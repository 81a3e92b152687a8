package workspace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lexandro/workspace-search/config"
	"github.com/lexandro/workspace-search/search"
	"github.com/lexandro/workspace-search/tags"
	"github.com/stretchr/testify/require"
)

type nopAnnotator struct{}

func (nopAnnotator) Submit(tags.Probe) {}

func writeFile(t *testing.T, root, path, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0644))
}

func openTestWorkspace(t *testing.T, root string, catalog *tags.Catalog) *Workspace {
	t.Helper()
	ws, err := Open(Options{
		Root:          root,
		PollInterval:  20 * time.Millisecond,
		DisableNotify: true,
		Annotator:     nopAnnotator{},
		Catalog:       catalog,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(ws.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ws.WaitReady(ctx))
	return ws
}

func Test_Workspace_HelloScenario(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/x.txt", "hello world")
	writeFile(t, root, "a/y.txt", "hello")
	writeFile(t, root, "b/.hidden", "hello")
	writeFile(t, root, "b/z.log", "hello")

	ws := openTestWorkspace(t, root, nil)
	run := ws.Search("hello", ".*", nil)
	summary := run.Wait()

	require.Equal(t, 2, summary.FileMatches)
	require.Equal(t, "2 / 2 files match.", summary.Status)

	top := run.Tree.Children(run.Tree.Root())
	require.Len(t, top, 1)
	require.Equal(t, "a/", top[0].Path)
	require.Equal(t, search.KindDirectory, top[0].Kind)

	files := run.Tree.Children(top[0])
	require.Len(t, files, 2)
	require.Equal(t, "a/x.txt", files[0].Path)
	require.Equal(t, "a/y.txt", files[1].Path)
}

func Test_Workspace_ConfigChangesApplyOnNextRescan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	writeFile(t, root, "build/out.go", "package out")

	ws := openTestWorkspace(t, root, nil)
	require.Equal(t, 2, ws.Index().FileCount())

	writeFile(t, root, config.FileName, "[index]\nignored_directories = [\"build\"]\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	count, err := ws.Reindex(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, []string{"src/main.go"}, ws.Index().FilesMatching(nil))
}

func Test_Workspace_ExcludeOption(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/generated/api.md", "hello")
	writeFile(t, root, "docs/guide.md", "hello")

	ws, err := Open(Options{
		Root:          root,
		Exclude:       []string{"docs/generated/**"},
		DisableNotify: true,
		Annotator:     nopAnnotator{},
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	defer ws.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ws.WaitReady(ctx))
	require.Equal(t, []string{"docs/guide.md"}, ws.Index().FilesMatching(nil))
}

func Test_Workspace_MissingRootIsInvalidNotFatal(t *testing.T) {
	ws := openTestWorkspace(t, filepath.Join(t.TempDir(), "nope"), nil)

	_, valid := ws.Index().Snapshot()
	require.False(t, valid)
	require.Error(t, ws.Index().Err())

	summary := ws.Search("hello", "", nil).Wait()
	require.Equal(t, 0, summary.FileMatches)
	require.True(t, summary.Unavailable)
	require.Equal(t, search.StatusUnavailable, summary.Status)
}

func Test_Workspace_SearchRightAfterOpenSeesEveryFile(t *testing.T) {
	root := t.TempDir()
	for i := range 200 {
		writeFile(t, root, fmt.Sprintf("dir%02d/file%03d.txt", i%10, i), "needle")
	}

	ws, err := Open(Options{
		Root:          root,
		PollInterval:  time.Hour,
		DisableNotify: true,
		Annotator:     nopAnnotator{},
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(ws.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ws.WaitSettled(ctx))

	summary := ws.Search("needle", "", nil).Wait()
	require.False(t, summary.Unavailable)
	require.Equal(t, 200, summary.FileMatches)
	require.Equal(t, "200 / 200 files match.", summary.Status)
}

func Test_Workspace_SearchDuringRescanIsNeverPartial(t *testing.T) {
	root := t.TempDir()
	for i := range 100 {
		writeFile(t, root, fmt.Sprintf("f%03d.txt", i), "needle")
	}
	ws := openTestWorkspace(t, root, nil)

	ws.Index().UpdateFileList()
	summary := ws.Search("needle", "", nil).Wait()
	if summary.Unavailable {
		require.Equal(t, search.StatusUnavailable, summary.Status)
		require.Equal(t, 0, summary.FileMatches)
		return
	}
	require.Equal(t, "100 / 100 files match.", summary.Status)
}

func Test_Workspace_Definitions(t *testing.T) {
	root := t.TempDir()
	catalog, err := tags.NewCatalog()
	require.NoError(t, err)
	defer catalog.Close()

	require.NoError(t, catalog.Record(filepath.Join(root, "src", "Foo.java"), []tags.Tag{{Name: "Foo", Line: 3, Kind: 'c'}}))
	require.NoError(t, catalog.Record(filepath.Join(t.TempDir(), "Other.java"), []tags.Tag{{Name: "Foo", Line: 1, Kind: 'c'}}))

	ws := openTestWorkspace(t, root, catalog)
	found, err := ws.Definitions("Foo", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "src/Foo.java", found[0].File)
	require.Equal(t, 3, found[0].Line)
}

func Test_Workspace_DefinitionsWithoutCatalog(t *testing.T) {
	ws := openTestWorkspace(t, t.TempDir(), nil)
	_, err := ws.Definitions("Foo", 10)
	require.ErrorIs(t, err, ErrNoCatalog)
}

func Test_Workspace_CloseIsIdempotent(t *testing.T) {
	ws := openTestWorkspace(t, t.TempDir(), nil)
	ws.Close()
	ws.Close()
}
