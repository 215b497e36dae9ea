package commitwriter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/progress"
	"github.com/oxfs/oxen/internal/store/commitdb"
	"github.com/oxfs/oxen/internal/store/entryindex"
	"github.com/oxfs/oxen/internal/store/model"
	"github.com/oxfs/oxen/internal/store/objstore"
	"github.com/oxfs/oxen/internal/store/refstore"
)

type harness struct {
	oxenDir    string
	workDir    string
	historyDir string
	commits    *commitdb.DB
	refs       *refstore.Store
	objects    *objstore.Store
	writer     *Writer
}

func newHarness(t *testing.T, author string) *harness {
	t.Helper()
	root := t.TempDir()
	oxenDir := filepath.Join(root, ".oxen")
	historyDir := filepath.Join(oxenDir, "history")
	require.NoError(t, os.MkdirAll(historyDir, 0o755))

	commits, err := commitdb.OpenWriter(filepath.Join(oxenDir, "commits.db"))
	require.NoError(t, err)
	refs, err := refstore.OpenWriter(oxenDir)
	require.NoError(t, err)
	require.NoError(t, refs.InitHEAD("main"))
	objects := objstore.New(filepath.Join(oxenDir, "versions"))

	h := &harness{
		oxenDir:    oxenDir,
		workDir:    root,
		historyDir: historyDir,
		commits:    commits,
		refs:       refs,
		objects:    objects,
		writer:     New(commits, refs, objects, historyDir, root, author),
	}
	t.Cleanup(func() {
		_ = commits.Close()
		_ = refs.Close()
	})
	return h
}

func (h *harness) writeFile(t *testing.T, relPath, content string) {
	t.Helper()
	full := filepath.Join(h.workDir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func added(relPaths ...string) model.StagedData {
	s := model.NewStagedData()
	for _, p := range relPaths {
		s.AddedFiles[p] = model.StagedEntry{Path: p}
	}
	return s
}

func TestInitialCommitHasNoParent(t *testing.T) {
	h := newHarness(t, "tester")
	h.writeFile(t, "a.txt", "hello")

	commit, err := h.writer.Commit(added("a.txt"), "init", progress.Noop())
	require.NoError(t, err)
	require.True(t, commit.IsInitial())
	require.Empty(t, commit.ParentID)

	branch, err := h.refs.GetBranchByName("main")
	require.NoError(t, err)
	require.Equal(t, commit.ID, branch.CommitID)
	require.True(t, branch.IsHead)

	idx, err := entryindex.OpenReader(h.historyDir, commit.ID)
	require.NoError(t, err)
	defer idx.Close()
	entry, err := idx.GetEntry("a.txt")
	require.NoError(t, err)
	require.Equal(t, commit.ID, entry.CommitID)
}

func TestCommitWithoutAuthorFailsWithAuthMissing(t *testing.T) {
	h := newHarness(t, "")
	h.writeFile(t, "a.txt", "hello")

	_, err := h.writer.Commit(added("a.txt"), "init", progress.Noop())
	require.Error(t, err)
	require.True(t, oxenerr.Is(err, oxenerr.AuthMissing))
}

func TestEntryIDStableAcrossCommits(t *testing.T) {
	h := newHarness(t, "tester")
	h.writeFile(t, "a.txt", "hello")
	c1, err := h.writer.Commit(added("a.txt"), "init", progress.Noop())
	require.NoError(t, err)

	idx1, err := entryindex.OpenReader(h.historyDir, c1.ID)
	require.NoError(t, err)
	e1, err := idx1.GetEntry("a.txt")
	require.NoError(t, err)
	require.NoError(t, idx1.Close())

	h.writeFile(t, "a.txt", "world")
	staged := model.NewStagedData()
	staged.ModifiedFiles["a.txt"] = struct{}{}
	c2, err := h.writer.Commit(staged, "modify", progress.Noop())
	require.NoError(t, err)
	require.Equal(t, c1.ID, c2.ParentID)

	idx2, err := entryindex.OpenReader(h.historyDir, c2.ID)
	require.NoError(t, err)
	e2, err := idx2.GetEntry("a.txt")
	require.NoError(t, err)
	require.NoError(t, idx2.Close())

	require.Equal(t, e1.ID, e2.ID)
	require.NotEqual(t, e1.Hash, e2.Hash)

	require.True(t, h.objects.Exists(e1))
	require.True(t, h.objects.Exists(e2))
	require.Equal(t, filepath.Dir(h.objects.BlobPath(e1)), filepath.Dir(h.objects.BlobPath(e2)))
}

func TestHashSkipReusesParentEntryButStillWritesIndex(t *testing.T) {
	h := newHarness(t, "tester")
	h.writeFile(t, "a.txt", "hello")
	c1, err := h.writer.Commit(added("a.txt"), "init", progress.Noop())
	require.NoError(t, err)

	// Re-stage the same unmodified content under a new commit (e.g. touched
	// but not edited).
	staged := model.NewStagedData()
	staged.ModifiedFiles["a.txt"] = struct{}{}
	c2, err := h.writer.Commit(staged, "no-op edit", progress.Noop())
	require.NoError(t, err)

	idx1, err := entryindex.OpenReader(h.historyDir, c1.ID)
	require.NoError(t, err)
	e1, err := idx1.GetEntry("a.txt")
	require.NoError(t, err)
	require.NoError(t, idx1.Close())

	idx2, err := entryindex.OpenReader(h.historyDir, c2.ID)
	require.NoError(t, err)
	e2, err := idx2.GetEntry("a.txt")
	require.NoError(t, err)
	require.NoError(t, idx2.Close())

	require.Equal(t, e1.ID, e2.ID)
	require.Equal(t, e1.Hash, e2.Hash)
	require.Equal(t, c1.ID, e2.CommitID, "the new commit's index must still name the path, reusing the parent's record whose blob c1 wrote")
	require.True(t, h.objects.Exists(e2))
}

func TestDetachedHeadCommitMovesHeadNotBranch(t *testing.T) {
	h := newHarness(t, "tester")
	h.writeFile(t, "a.txt", "hello")
	c1, err := h.writer.Commit(added("a.txt"), "init", progress.Noop())
	require.NoError(t, err)

	require.NoError(t, h.refs.SetHead(c1.ID))

	h.writeFile(t, "b.txt", "second")
	c2, err := h.writer.Commit(added("b.txt"), "detached commit", progress.Noop())
	require.NoError(t, err)
	require.Equal(t, c1.ID, c2.ParentID)

	head, err := h.refs.ReadHeadRef()
	require.NoError(t, err)
	require.Equal(t, c2.ID, head)

	branch, err := h.refs.GetBranchByName("main")
	require.NoError(t, err)
	require.Equal(t, c1.ID, branch.CommitID, "detached commit must not move the main branch tip")
}

func TestEmptyCommitEqualsParentIndex(t *testing.T) {
	h := newHarness(t, "tester")
	h.writeFile(t, "a.txt", "hello")
	c1, err := h.writer.Commit(added("a.txt"), "init", progress.Noop())
	require.NoError(t, err)

	c2, err := h.writer.Commit(model.NewStagedData(), "empty", progress.Noop())
	require.NoError(t, err)
	require.Equal(t, c1.ID, c2.ParentID)

	idx2, err := entryindex.OpenReader(h.historyDir, c2.ID)
	require.NoError(t, err)
	defer idx2.Close()
	files, err := idx2.ListFiles()
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt"}, files)
}
