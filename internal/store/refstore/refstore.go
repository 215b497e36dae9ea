// Package refstore implements the reference store (§4.3): a HEAD pointer
// file plus a refs.db key-value store mapping branch name to commit id. It
// also tracks the merge/MERGE_HEAD and merge/ORIG_HEAD marker files named in
// §6 and the original implementation's constants, left for an external
// merge-resolution collaborator to interpret.
package refstore

import (
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/store/kvstore"
	"github.com/oxfs/oxen/internal/store/model"
)

const bucketRefs = "refs"

// headFileName and mergeDirName/markers mirror the on-disk layout of §6.
const (
	headFileName    = "HEAD"
	mergeDirName    = "merge"
	mergeHeadMarker = "MERGE_HEAD"
	origHeadMarker  = "ORIG_HEAD"
)

// Store wraps the refs/ KV store and the HEAD/merge marker files that live
// alongside it under the repository's .oxen directory.
type Store struct {
	db       *kvstore.Store
	oxenDir  string
	headPath string
}

// OpenWriter opens the refs store for exclusive read-write access. oxenDir
// is the repository's .oxen directory, where HEAD and merge/ live.
func OpenWriter(oxenDir string) (*Store, error) {
	db, err := kvstore.OpenWriter(filepath.Join(oxenDir, "refs.db"), bucketRefs)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, oxenDir: oxenDir, headPath: filepath.Join(oxenDir, headFileName)}, nil
}

// OpenReader opens the refs store for concurrent read-only access.
func OpenReader(oxenDir string) (*Store, error) {
	db, err := kvstore.OpenReader(filepath.Join(oxenDir, "refs.db"))
	if err != nil {
		return nil, err
	}
	return &Store{db: db, oxenDir: oxenDir, headPath: filepath.Join(oxenDir, headFileName)}, nil
}

// Close releases the underlying store handle.
func (s *Store) Close() error { return s.db.Close() }

// InitHEAD creates the HEAD file with content defaultBranch if it does not
// already exist, matching the on-init behavior of §4.3: HEAD is created
// before any branch entry exists.
func (s *Store) InitHEAD(defaultBranch string) error {
	if _, err := os.Stat(s.headPath); err == nil {
		return nil
	}
	if err := os.WriteFile(s.headPath, []byte(defaultBranch), 0o644); err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "refstore.InitHEAD", "writing HEAD", err)
	}
	return nil
}

func (s *Store) readHEAD() (string, error) {
	data, err := os.ReadFile(s.headPath) //nolint:gosec // G304: headPath is derived from the repository's own .oxen directory
	if err != nil {
		return "", oxenerr.Wrap(oxenerr.IoError, "refstore.readHEAD", "reading HEAD", err)
	}
	return string(data), nil
}

// ReadHeadRef returns the raw content of HEAD: a branch name, or a bare
// commit id when detached.
func (s *Store) ReadHeadRef() (string, error) { return s.readHEAD() }

// SetHead overwrites HEAD with refOrID. No existence check is performed:
// HEAD may reference a branch that does not yet exist, matching the
// bootstrap sequence at repository init.
func (s *Store) SetHead(refOrID string) error {
	if refOrID == "" {
		return oxenerr.New(oxenerr.InvalidInput, "refstore.SetHead", "ref or commit id must not be empty")
	}
	if err := os.WriteFile(s.headPath, []byte(refOrID), 0o644); err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "refstore.SetHead", "writing HEAD", err)
	}
	return nil
}

// HasBranch reports whether name exists in the refs store.
func (s *Store) HasBranch(name string) (bool, error) {
	_, err := s.GetBranchByName(name)
	if err == nil {
		return true, nil
	}
	if oxenerr.Is(err, oxenerr.NotFound) {
		return false, nil
	}
	return false, err
}

// GetBranchByName returns the branch record for name, or NotFound.
func (s *Store) GetBranchByName(name string) (model.Branch, error) {
	var commitID string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketRefs))
		v := b.Get([]byte(name))
		if v != nil {
			commitID = string(v)
		}
		return nil
	})
	if err != nil {
		return model.Branch{}, oxenerr.Wrap(oxenerr.IoError, "refstore.GetBranchByName", "reading branch "+name, err)
	}
	if commitID == "" {
		return model.Branch{}, oxenerr.New(oxenerr.NotFound, "refstore.GetBranchByName", "branch "+name+" not found")
	}

	head, err := s.readHEAD()
	if err != nil {
		return model.Branch{}, err
	}
	return model.Branch{Name: name, CommitID: commitID, IsHead: head == name}, nil
}

// CreateBranch creates a new branch pointing at commitID. It fails with
// AlreadyExists if name is already present.
func (s *Store) CreateBranch(name, commitID string) (model.Branch, error) {
	exists, err := s.HasBranch(name)
	if err != nil {
		return model.Branch{}, err
	}
	if exists {
		return model.Branch{}, oxenerr.New(oxenerr.AlreadyExists, "refstore.CreateBranch", "branch "+name+" already exists")
	}
	if err := s.SetBranchTip(name, commitID); err != nil {
		return model.Branch{}, err
	}
	return model.Branch{Name: name, CommitID: commitID}, nil
}

// DeleteBranch removes name. It fails with NotFound if it does not exist.
func (s *Store) DeleteBranch(name string) error {
	exists, err := s.HasBranch(name)
	if err != nil {
		return err
	}
	if !exists {
		return oxenerr.New(oxenerr.NotFound, "refstore.DeleteBranch", "branch "+name+" not found")
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketRefs)).Delete([]byte(name))
	})
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "refstore.DeleteBranch", "deleting branch "+name, err)
	}
	return nil
}

// SetBranchTip overwrites name's commit id unconditionally, creating the
// branch entry if it does not exist.
func (s *Store) SetBranchTip(name, commitID string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketRefs)).Put([]byte(name), []byte(commitID))
	})
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "refstore.SetBranchTip", "writing branch "+name, err)
	}
	return nil
}

// ListBranches returns every branch in the store, each with IsHead set
// relative to HEAD's current content.
func (s *Store) ListBranches() ([]model.Branch, error) {
	head, err := s.readHEAD()
	if err != nil {
		return nil, err
	}

	var branches []model.Branch
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketRefs))
		return b.ForEach(func(k, v []byte) error {
			name := string(k)
			branches = append(branches, model.Branch{
				Name:     name,
				CommitID: string(v),
				IsHead:   name == head,
			})
			return nil
		})
	})
	if err != nil {
		return nil, oxenerr.Wrap(oxenerr.IoError, "refstore.ListBranches", "iterating refs", err)
	}
	return branches, nil
}

// CurrentBranch returns the branch HEAD names, or NotFound when HEAD is
// detached (its content is a bare commit id rather than a branch name).
func (s *Store) CurrentBranch() (model.Branch, error) {
	head, err := s.readHEAD()
	if err != nil {
		return model.Branch{}, err
	}
	return s.GetBranchByName(head)
}

// HeadCommitID resolves HEAD to a commit id: if HEAD names a branch, its
// tip; otherwise HEAD's own content.
func (s *Store) HeadCommitID() (string, error) {
	head, err := s.readHEAD()
	if err != nil {
		return "", err
	}
	branch, err := s.GetBranchByName(head)
	if err == nil {
		return branch.CommitID, nil
	}
	if oxenerr.Is(err, oxenerr.NotFound) {
		// Detached HEAD: the file content is itself the commit id, or HEAD
		// names a branch that has no commits yet (fresh init).
		return head, nil
	}
	return "", err
}

// SetMergeHead writes the merge/MERGE_HEAD marker with the incoming
// branch's commit id.
func (s *Store) SetMergeHead(commitID string) error { return s.writeMergeMarker(mergeHeadMarker, commitID) }

// SetOrigHead writes the merge/ORIG_HEAD marker with the destination's
// pre-merge commit id.
func (s *Store) SetOrigHead(commitID string) error { return s.writeMergeMarker(origHeadMarker, commitID) }

// MergeHead returns the current MERGE_HEAD marker content, or NotFound if
// no merge is in progress.
func (s *Store) MergeHead() (string, error) { return s.readMergeMarker(mergeHeadMarker) }

// OrigHead returns the current ORIG_HEAD marker content, or NotFound if no
// merge is in progress.
func (s *Store) OrigHead() (string, error) { return s.readMergeMarker(origHeadMarker) }

// ClearMerge removes both merge markers, ending a merge (successfully or
// via abort); the merge algorithm itself is an external collaborator's
// responsibility.
func (s *Store) ClearMerge() error {
	dir := filepath.Join(s.oxenDir, mergeDirName)
	if err := os.RemoveAll(dir); err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "refstore.ClearMerge", "removing merge markers", err)
	}
	return nil
}

func (s *Store) writeMergeMarker(name, commitID string) error {
	dir := filepath.Join(s.oxenDir, mergeDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "refstore.writeMergeMarker", "creating merge directory", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(commitID), 0o644); err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "refstore.writeMergeMarker", "writing "+name, err)
	}
	return nil
}

func (s *Store) readMergeMarker(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.oxenDir, mergeDirName, name)) //nolint:gosec // G304: path built from repo-owned .oxen directory
	if err != nil {
		if os.IsNotExist(err) {
			return "", oxenerr.New(oxenerr.NotFound, "refstore.readMergeMarker", name+" not set")
		}
		return "", oxenerr.Wrap(oxenerr.IoError, "refstore.readMergeMarker", "reading "+name, err)
	}
	return string(data), nil
}
