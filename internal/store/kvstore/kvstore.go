// Package kvstore wraps go.etcd.io/bbolt with the open-mode semantics the
// engine's concurrency model requires (§5/§9 of the engine specification):
// a single read-write handle may hold a store at a time, while any number of
// read-only handles may be open concurrently. A second writer does not block
// forever — it fails fast with oxenerr.ResourceBusy.
package kvstore

import (
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/oxfs/oxen/internal/oxenerr"
)

// writeLockTimeout bounds how long OpenWriter waits for bbolt's exclusive
// file lock before giving up and reporting ResourceBusy. A real second
// writer (another oxen process) holds the lock indefinitely, so this is a
// deliberately short timeout rather than a backoff/retry policy.
const writeLockTimeout = 200 * time.Millisecond

// Store is a thin handle around one bbolt database file.
type Store struct {
	db       *bolt.DB
	path     string
	readOnly bool
}

// OpenWriter opens path for exclusive read-write access, creating it (and
// any named buckets) if it does not exist. If another process already holds
// the write lock, it returns an *oxenerr.Error of kind ResourceBusy instead
// of blocking.
func OpenWriter(path string, buckets ...string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: writeLockTimeout})
	if err != nil {
		if err == bolt.ErrTimeout {
			return nil, oxenerr.Wrap(oxenerr.ResourceBusy, "kvstore.OpenWriter", "store is locked by another writer", err)
		}
		return nil, oxenerr.Wrap(oxenerr.IoError, "kvstore.OpenWriter", "opening store", err)
	}

	if len(buckets) > 0 {
		err = db.Update(func(tx *bolt.Tx) error {
			for _, b := range buckets {
				if _, err := tx.CreateBucketIfNotExists([]byte(b)); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			_ = db.Close()
			return nil, oxenerr.Wrap(oxenerr.IoError, "kvstore.OpenWriter", "creating buckets", err)
		}
	}

	return &Store{db: db, path: path, readOnly: false}, nil
}

// OpenReader opens path for concurrent read-only access. Many readers may
// hold a store open at once, but not alongside a writer: the writer's
// exclusive bbolt file lock keeps a reader out, and the attempt fails after
// writeLockTimeout. Every open failure, including a store file that does
// not exist yet, is returned as NotFound.
func OpenReader(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{ReadOnly: true, Timeout: writeLockTimeout})
	if err != nil {
		return nil, oxenerr.Wrap(oxenerr.NotFound, "kvstore.OpenReader", "opening store", err)
	}
	return &Store{db: db, path: path, readOnly: true}, nil
}

// Close releases the underlying file handle and lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the filesystem path backing this store.
func (s *Store) Path() string { return s.path }

// View runs fn in a read-only transaction, usable on either a reader or
// writer handle.
func (s *Store) View(fn func(*bolt.Tx) error) error {
	return s.db.View(fn)
}

// Update runs fn in a read-write transaction. It panics if called on a
// store opened via OpenReader — that is a programming error, not a runtime
// condition callers should branch on.
func (s *Store) Update(fn func(*bolt.Tx) error) error {
	if s.readOnly {
		panic("kvstore: Update called on a read-only store")
	}
	return s.db.Update(fn)
}
