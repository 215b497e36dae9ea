// Package objstore implements the content-addressed blob store at
// .oxen/versions/<entry_id>/<commit_id>.<ext> (§4.1). Blobs are keyed by
// entry id rather than content hash so that every historical version of one
// logical file lives under a single directory listing.
package objstore

import (
	"io"
	"os"
	"path/filepath"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/store/model"
)

// Store manages blob files under root (normally .oxen/versions).
type Store struct {
	root string
}

// New returns a Store rooted at root. root is created lazily by Put.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the versions directory path.
func (s *Store) Root() string { return s.root }

// BlobPath is a pure function computing the on-disk path for entry's blob.
// It performs no I/O.
func (s *Store) BlobPath(entry model.CommitEntry) string {
	return filepath.Join(s.root, entry.ID, entry.Filename())
}

// Exists reports whether entry's blob is already present on disk.
func (s *Store) Exists(entry model.CommitEntry) bool {
	_, err := os.Stat(s.BlobPath(entry))
	return err == nil
}

// Put copies srcPath into the computed target path for entry. It is
// idempotent for identical (entry, srcPath) pairs: if the destination
// already exists, Put returns nil without re-copying, preserving the
// invariant that a blob, once written, is never overwritten (§3 invariant 5).
func (s *Store) Put(entry model.CommitEntry, srcPath string) error {
	dst := s.BlobPath(entry)
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "objstore.Put", "creating blob directory", err)
	}

	in, err := os.Open(srcPath) //nolint:gosec // G304: srcPath is a working-tree path supplied by the staging area
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "objstore.Put", "opening source file", err)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // G304: tmp is derived from a computed, non-user-controlled blob path
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "objstore.Put", "creating blob file", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return oxenerr.Wrap(oxenerr.IoError, "objstore.Put", "copying blob content", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return oxenerr.Wrap(oxenerr.IoError, "objstore.Put", "closing blob file", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return oxenerr.Wrap(oxenerr.IoError, "objstore.Put", "finalizing blob file", err)
	}
	return nil
}

// Open returns a reader over entry's blob content.
func (s *Store) Open(entry model.CommitEntry) (io.ReadCloser, error) {
	f, err := os.Open(s.BlobPath(entry)) //nolint:gosec // G304: path derives from entry.ID/entry.Filename, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oxenerr.Wrap(oxenerr.NotFound, "objstore.Open", "blob missing", err)
		}
		return nil, oxenerr.Wrap(oxenerr.IoError, "objstore.Open", "opening blob", err)
	}
	return f, nil
}

// Restore copies entry's blob to dstPath on the working tree, creating
// parent directories as needed. Used by checkout.
func (s *Store) Restore(entry model.CommitEntry, dstPath string) error {
	in, err := s.Open(entry)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "objstore.Restore", "creating working directory", err)
	}

	out, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // G304: dstPath is a validated working-tree path
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "objstore.Restore", "creating working-tree file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "objstore.Restore", "writing working-tree file", err)
	}
	return nil
}
