// Package commitdb implements the commit graph store, the bbolt file
// .oxen/commits.db (§4.2): an embedded key-value store mapping commit id to a JSON Commit
// record, plus ancestor traversal with cycle detection.
package commitdb

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/store/kvstore"
	"github.com/oxfs/oxen/internal/store/model"
)

const bucketCommits = "commits"

// DB wraps the commit store. A DB opened via OpenWriter is the sole writer;
// any number of OpenReader handles may read concurrently.
type DB struct {
	store *kvstore.Store
}

// OpenWriter opens path for exclusive read-write access.
func OpenWriter(path string) (*DB, error) {
	s, err := kvstore.OpenWriter(path, bucketCommits)
	if err != nil {
		return nil, err
	}
	return &DB{store: s}, nil
}

// OpenReader opens path for concurrent read-only access.
func OpenReader(path string) (*DB, error) {
	s, err := kvstore.OpenReader(path)
	if err != nil {
		return nil, err
	}
	return &DB{store: s}, nil
}

// Close releases the underlying store handle.
func (d *DB) Close() error { return d.store.Close() }

// Put appends commit to the store. Commits are write-once by convention;
// callers must not call Put twice for the same id.
func (d *DB) Put(commit model.Commit) error {
	data, err := json.Marshal(commit)
	if err != nil {
		return oxenerr.Wrap(oxenerr.InvalidInput, "commitdb.Put", "marshaling commit", err)
	}
	err = d.store.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCommits))
		return b.Put([]byte(commit.ID), data)
	})
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "commitdb.Put", "writing commit "+commit.ID, err)
	}
	return nil
}

// Get returns the commit with the given id, or NotFound.
func (d *DB) Get(id string) (model.Commit, error) {
	var commit model.Commit
	var raw []byte
	err := d.store.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCommits))
		v := b.Get([]byte(id))
		if v == nil {
			return nil
		}
		raw = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return commit, oxenerr.Wrap(oxenerr.IoError, "commitdb.Get", "reading commit "+id, err)
	}
	if raw == nil {
		return commit, oxenerr.New(oxenerr.NotFound, "commitdb.Get", "commit "+id+" not found")
	}
	if err := json.Unmarshal(raw, &commit); err != nil {
		return commit, oxenerr.Wrap(oxenerr.Corruption, "commitdb.Get", "decoding commit "+id, err)
	}
	return commit, nil
}

// Exists reports whether id is present in the store.
func (d *DB) Exists(id string) (bool, error) {
	_, err := d.Get(id)
	if err == nil {
		return true, nil
	}
	if oxenerr.Is(err, oxenerr.NotFound) {
		return false, nil
	}
	return false, err
}

// Ancestors walks the parent_id chain starting at id, most-recent-first,
// and returns every commit encountered including id's own commit. It
// detects cycles with a seen-set and fails with Corruption rather than
// looping forever.
func (d *DB) Ancestors(id string) ([]model.Commit, error) {
	var result []model.Commit
	seen := make(map[string]struct{})

	cur := id
	for cur != "" {
		if _, ok := seen[cur]; ok {
			return nil, oxenerr.New(oxenerr.Corruption, "commitdb.Ancestors", "cycle detected in commit graph at "+cur)
		}
		seen[cur] = struct{}{}

		c, err := d.Get(cur)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
		cur = c.ParentID
	}
	return result, nil
}
