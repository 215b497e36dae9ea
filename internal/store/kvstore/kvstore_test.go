package kvstore

import (
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWriterCreatesBuckets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commits.db")
	s, err := OpenWriter(path, "commits")
	require.NoError(t, err)
	defer s.Close()

	err = s.View(func(tx *bolt.Tx) error {
		assert.NotNil(t, tx.Bucket([]byte("commits")))
		return nil
	})
	require.NoError(t, err)
}

func TestOpenWriterSecondWriterIsResourceBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.db")
	first, err := OpenWriter(path, "refs")
	require.NoError(t, err)
	defer first.Close()

	_, err = OpenWriter(path, "refs")
	require.Error(t, err)
	assert.True(t, oxenerr.Is(err, oxenerr.ResourceBusy))
}

func TestOpenReadersConcurrentOnceWriterClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.db")
	w, err := OpenWriter(path, "files")
	require.NoError(t, err)

	// The writer's exclusive lock keeps readers out until it is closed.
	_, err = OpenReader(path)
	require.Error(t, err)
	require.NoError(t, w.Close())

	r1, err := OpenReader(path)
	require.NoError(t, err)
	defer r1.Close()

	r2, err := OpenReader(path)
	require.NoError(t, err)
	defer r2.Close()
}

func TestOpenReaderMissingFile(t *testing.T) {
	_, err := OpenReader(filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.True(t, oxenerr.Is(err, oxenerr.NotFound))
}

func TestUpdateOnReaderPanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staged.db")
	w, err := OpenWriter(path, "staged")
	require.NoError(t, err)
	w.Close()

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Panics(t, func() {
		_ = r.Update(func(tx *bolt.Tx) error { return nil })
	})
}
