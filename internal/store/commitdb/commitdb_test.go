package commitdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/store/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "commits.db")
	db, err := OpenWriter(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGetRoundTrip(t *testing.T) {
	db := openTestDB(t)
	c := model.Commit{ID: "c1", Message: "init", Author: "ada", Date: time.Now().UTC()}
	require.NoError(t, db.Put(c))

	got, err := db.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.Message, got.Message)
	assert.True(t, got.IsInitial())
}

func TestGetNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Get("missing")
	require.Error(t, err)
	assert.True(t, oxenerr.Is(err, oxenerr.NotFound))

	exists, err := db.Exists("missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAncestorsOrderAndBoundary(t *testing.T) {
	db := openTestDB(t)
	c1 := model.Commit{ID: "c1", Message: "init"}
	c2 := model.Commit{ID: "c2", ParentID: "c1", Message: "m2"}
	c3 := model.Commit{ID: "c3", ParentID: "c2", Message: "m3"}
	require.NoError(t, db.Put(c1))
	require.NoError(t, db.Put(c2))
	require.NoError(t, db.Put(c3))

	ancestors, err := db.Ancestors("c3")
	require.NoError(t, err)
	require.Len(t, ancestors, 3)
	assert.Equal(t, []string{"c3", "c2", "c1"}, []string{ancestors[0].ID, ancestors[1].ID, ancestors[2].ID})

	initialOnly, err := db.Ancestors("c1")
	require.NoError(t, err)
	require.Len(t, initialOnly, 1)
	assert.True(t, initialOnly[0].IsInitial())
}

func TestAncestorsDetectsCycle(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Put(model.Commit{ID: "a", ParentID: "b"}))
	require.NoError(t, db.Put(model.Commit{ID: "b", ParentID: "a"}))

	_, err := db.Ancestors("a")
	require.Error(t, err)
	assert.True(t, oxenerr.Is(err, oxenerr.Corruption))
}
