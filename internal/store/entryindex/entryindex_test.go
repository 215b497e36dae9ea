package entryindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/store/model"
)

func openTestIndex(t *testing.T, commitID string) *Index {
	t.Helper()
	idx, err := OpenWriter(t.TempDir(), commitID)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestPutAndGetEntry(t *testing.T) {
	idx := openTestIndex(t, "c1")
	entry := model.CommitEntry{ID: "e1", Path: "a.txt", Hash: "h1", CommitID: "c1", Extension: "txt", NumBytes: 5}
	require.NoError(t, idx.PutEntry(entry))

	got, err := idx.GetEntry("a.txt")
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	has, err := idx.HasFile("a.txt")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = idx.HasFile("missing.txt")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestGetEntryNotFound(t *testing.T) {
	idx := openTestIndex(t, "c1")
	_, err := idx.GetEntry("missing.txt")
	require.Error(t, err)
	assert.True(t, oxenerr.Is(err, oxenerr.NotFound))
}

func TestListEntriesAndFiles(t *testing.T) {
	idx := openTestIndex(t, "c1")
	require.NoError(t, idx.PutEntry(model.CommitEntry{ID: "e1", Path: "b.txt"}))
	require.NoError(t, idx.PutEntry(model.CommitEntry{ID: "e2", Path: "a.txt"}))

	entries, err := idx.ListEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	files, err := idx.ListFiles()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, files)
}

func TestListDirectoryPagination(t *testing.T) {
	idx := openTestIndex(t, "c1")
	paths := []string{"train/a.txt", "train/b.txt", "train/c.txt", "test/y.txt"}
	for _, p := range paths {
		require.NoError(t, idx.PutEntry(model.CommitEntry{ID: p, Path: p}))
	}

	page1, total, err := idx.ListDirectory("train", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "train/a.txt", page1[0].Path)
	assert.Equal(t, "train/b.txt", page1[1].Path)

	page2, total, err := idx.ListDirectory("train", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page2, 1)
	assert.Equal(t, "train/c.txt", page2[0].Path)
}

func TestListUnsyncedEntries(t *testing.T) {
	idx := openTestIndex(t, "c1")
	require.NoError(t, idx.PutEntry(model.CommitEntry{ID: "e1", Path: "a.txt", Synced: true}))
	require.NoError(t, idx.PutEntry(model.CommitEntry{ID: "e2", Path: "b.txt", Synced: false}))

	unsynced, err := idx.ListUnsyncedEntries()
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "b.txt", unsynced[0].Path)
}

func TestDirStatRoundTrip(t *testing.T) {
	idx := openTestIndex(t, "c1")
	stat := model.NewDirStat("train")
	stat.Add(model.CommitEntry{Path: "train/a.png", NumBytes: 100})
	require.NoError(t, idx.PutDirStat(stat))

	got, err := idx.GetDirStat("train")
	require.NoError(t, err)
	assert.Equal(t, 1, got.FileCount)
	assert.Equal(t, int64(100), got.DataSize)
}
