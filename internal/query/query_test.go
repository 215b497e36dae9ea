package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxfs/oxen/internal/progress"
	"github.com/oxfs/oxen/internal/store/repo"
)

func newTestRepo(t *testing.T) *repo.Repository {
	t.Helper()
	root := t.TempDir()
	r, err := repo.Init(root, "repo-1", "ds")
	require.NoError(t, err)
	r.Config.User.Name = "tester"
	r.Config.User.Email = "tester@example.com"
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestListCommitsAndGetCommit(t *testing.T) {
	r := newTestRepo(t)
	root := r.Root()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "train.csv"), []byte("a,b\n1,2\n"), 0o644))
	require.NoError(t, r.Staging.AddFile("data/train.csv"))
	c1, err := r.Commit("add train split", progress.Noop())
	require.NoError(t, err)

	reader := NewReader(r.Commits, r.Refs, r.HistoryDir())

	info, err := reader.GetCommit(c1.ID)
	require.NoError(t, err)
	require.Equal(t, c1.ID, info.ID)
	require.NotEmpty(t, info.ContentHash)

	commits, err := reader.ListCommits("")
	require.NoError(t, err)
	require.Len(t, commits, 1)
	require.Equal(t, c1.ID, commits[0].ID)
}

func TestListDirectoryAndRepoStats(t *testing.T) {
	r := newTestRepo(t)
	root := r.Root()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "a.png"), []byte("pngdata"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "b.png"), []byte("pngdata2"), 0o644))
	require.NoError(t, r.Staging.AddDir("images"))
	_, err := r.Commit("add images", progress.Noop())
	require.NoError(t, err)

	reader := NewReader(r.Commits, r.Refs, r.HistoryDir())

	entries, total, err := reader.ListDirectory("", "images", 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, entries, 2)

	stats, err := reader.RepoStats("")
	require.NoError(t, err)
	require.EqualValues(t, len("pngdata")+len("pngdata2"), stats.DataSize)
}

func TestListSchemasEmptyWhenDirAbsent(t *testing.T) {
	r := newTestRepo(t)
	root := r.Root()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, r.Staging.AddFile("a.txt"))
	c1, err := r.Commit("init", progress.Noop())
	require.NoError(t, err)

	reader := NewReader(r.Commits, r.Refs, r.HistoryDir())
	schemas, err := reader.ListSchemas(c1.ID)
	require.NoError(t, err)
	require.Empty(t, schemas)
}

func TestListBranches(t *testing.T) {
	r := newTestRepo(t)
	root := r.Root()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, r.Staging.AddFile("a.txt"))
	_, err := r.Commit("init", progress.Noop())
	require.NoError(t, err)

	reader := NewReader(r.Commits, r.Refs, r.HistoryDir())
	branches, err := reader.ListBranches()
	require.NoError(t, err)
	require.Len(t, branches, 1)
	require.Equal(t, "main", branches[0].Name)
	require.True(t, branches[0].IsHead)
}
