package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/progress"
	"github.com/oxfs/oxen/internal/store/entryindex"
	"github.com/oxfs/oxen/internal/store/hash"
)

func TestInitCreatesLayoutAndFailsOnReinit(t *testing.T) {
	root := t.TempDir()

	r, err := Init(root, "repo-1", "my-dataset")
	require.NoError(t, err)
	defer r.Close()

	require.DirExists(t, filepath.Join(root, ".oxen", "history"))
	require.FileExists(t, filepath.Join(root, ".oxen", "config.toml"))
	require.FileExists(t, filepath.Join(root, ".oxen", "HEAD"))

	_, err = Init(root, "repo-1", "my-dataset")
	require.Error(t, err)
	require.True(t, oxenerr.Is(err, oxenerr.AlreadyExists))
}

func TestCommitRequiresConfiguredAuthor(t *testing.T) {
	root := t.TempDir()
	r, err := Init(root, "repo-1", "my-dataset")
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0o644))
	require.NoError(t, r.Staging.AddFile("a.txt"))

	_, err = r.Commit("init", progress.Noop())
	require.Error(t, err)
	require.True(t, oxenerr.Is(err, oxenerr.AuthMissing))

	r.Config.User.Name = "tester"
	r.Config.User.Email = "tester@example.com"

	commit, err := r.Commit("init", progress.Noop())
	require.NoError(t, err)
	require.True(t, commit.IsInitial())
}

func TestCommitIgnoresUnstagedWorkingTreeChanges(t *testing.T) {
	root := t.TempDir()
	r, err := Init(root, "repo-1", "my-dataset")
	require.NoError(t, err)
	defer r.Close()
	r.Config.User.Name = "tester"
	r.Config.User.Email = "tester@example.com"

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("v1"), 0o644))
	require.NoError(t, r.Staging.AddFile("a.txt"))
	_, err = r.Commit("v1", progress.Noop())
	require.NoError(t, err)

	// a.txt is modified on disk but never re-added; b.txt is created but
	// never staged at all. Neither may be swept into the next commit.
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("v2-unstaged"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.txt"), []byte("v1"), 0o644))
	require.NoError(t, r.Staging.AddFile("c.txt"))

	commit, err := r.Commit("add c only", progress.Noop())
	require.NoError(t, err)

	head, err := entryindex.OpenReader(r.HistoryDir(), commit.ID)
	require.NoError(t, err)
	defer head.Close()

	_, err = head.GetEntry("b.txt")
	require.True(t, oxenerr.Is(err, oxenerr.NotFound))

	entry, err := head.GetEntry("a.txt")
	require.NoError(t, err)
	require.Equal(t, string(hash.Buffer([]byte("v1"))), entry.Hash)

	_, err = head.GetEntry("c.txt")
	require.NoError(t, err)
}

func TestOpenReopensExistingRepository(t *testing.T) {
	root := t.TempDir()
	r, err := Init(root, "repo-1", "my-dataset")
	require.NoError(t, err)
	r.Config.User.Name = "tester"
	r.Config.User.Email = "tester@example.com"
	require.NoError(t, r.SaveConfig())

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0o644))
	require.NoError(t, r.Staging.AddFile("a.txt"))
	commit, err := r.Commit("init", progress.Noop())
	require.NoError(t, err)
	require.NoError(t, r.Close())

	reopened, err := Open(root)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, "tester", reopened.Config.User.Name)
	headID, err := reopened.Refs.HeadCommitID()
	require.NoError(t, err)
	require.Equal(t, commit.ID, headID)
}

func TestCommitThenCheckoutRoundTrip(t *testing.T) {
	root := t.TempDir()
	r, err := Init(root, "repo-1", "my-dataset")
	require.NoError(t, err)
	defer r.Close()
	r.Config.User.Name = "tester"
	r.Config.User.Email = "tester@example.com"

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("v1"), 0o644))
	require.NoError(t, r.Staging.AddFile("a.txt"))
	c1, err := r.Commit("v1", progress.Noop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("v2"), 0o644))
	require.NoError(t, r.Staging.AddFile("a.txt"))
	c2, err := r.Commit("v2", progress.Noop())
	require.NoError(t, err)

	require.NoError(t, r.Checkout(c1.ID, progress.Noop()))
	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(data))

	// Checking back out to tip must restore v2 byte-for-byte: a commit's
	// version of a file is never mutated by visiting another commit in
	// between.
	require.NoError(t, r.Checkout(c2.ID, progress.Noop()))
	data, err = os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "v2", string(data))
}
