// Package staging implements the staging area in .oxen/staged.db (§4.7): a
// transient key-value store of paths pending the next commit, plus the
// three-way Status computation (staged vs HEAD vs working tree) grounded on
// the teacher's gitcore.ComputeWorkingTreeStatus.
package staging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/multierr"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/store/entryindex"
	"github.com/oxfs/oxen/internal/store/hash"
	"github.com/oxfs/oxen/internal/store/kvstore"
	"github.com/oxfs/oxen/internal/store/model"
)

const bucketStaged = "staged"

// checkWithinRoot rejects a relative path that escapes the repository root
// once cleaned (e.g. "../secrets"), matching §7's InvalidInput case for a
// path escaping the repository.
func checkWithinRoot(relPath string) error {
	clean := filepath.ToSlash(filepath.Clean(relPath))
	if clean == ".." || strings.HasPrefix(clean, "../") || filepath.IsAbs(clean) {
		return oxenerr.New(oxenerr.InvalidInput, "staging.checkWithinRoot", "path "+relPath+" escapes repository root")
	}
	return nil
}

// HeadReader is the read-only view of HEAD's entry index that Status
// compares against; entryindex.Index satisfies this directly.
type HeadReader interface {
	ListFiles() ([]string, error)
	GetEntry(path string) (model.CommitEntry, error)
}

// Area wraps the staged/ store for one repository working tree.
type Area struct {
	store   *kvstore.Store
	workDir string
}

// OpenWriter opens the staging store for exclusive read-write access.
func OpenWriter(oxenDir, workDir string) (*Area, error) {
	s, err := kvstore.OpenWriter(filepath.Join(oxenDir, "staged.db"), bucketStaged)
	if err != nil {
		return nil, err
	}
	return &Area{store: s, workDir: workDir}, nil
}

// OpenReader opens the staging store for concurrent read-only access.
func OpenReader(oxenDir, workDir string) (*Area, error) {
	s, err := kvstore.OpenReader(filepath.Join(oxenDir, "staged.db"))
	if err != nil {
		return nil, err
	}
	return &Area{store: s, workDir: workDir}, nil
}

// Close releases the underlying store handle.
func (a *Area) Close() error { return a.store.Close() }

// AddFile stages relPath. Whether it lands in added_files or
// modified_files is a Status-time classification, not stored here; hashing
// is deferred to commit time per §4.7.
func (a *Area) AddFile(relPath string) error {
	if err := checkWithinRoot(relPath); err != nil {
		return err
	}
	entry := model.StagedEntry{Path: relPath, SrcPath: filepath.Join(a.workDir, relPath)}
	data, err := json.Marshal(entry)
	if err != nil {
		return oxenerr.Wrap(oxenerr.InvalidInput, "staging.AddFile", "marshaling staged entry", err)
	}
	err = a.store.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketStaged)).Put([]byte(relPath), data)
	})
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "staging.AddFile", "staging "+relPath, err)
	}
	return nil
}

// AddDir recursively stages every regular file under relDir. A failure on
// one file (e.g. a permission error) does not stop the walk: every
// independent failure is collected with multierr and returned together, so
// one bad file never silently blocks staging the rest of the directory.
func (a *Area) AddDir(relDir string) error {
	root := filepath.Join(a.workDir, relDir)
	var errs error
	walkErr := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			errs = multierr.Append(errs, err)
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(a.workDir, p)
		if err != nil {
			errs = multierr.Append(errs, err)
			return nil
		}
		if err := a.AddFile(filepath.ToSlash(rel)); err != nil {
			errs = multierr.Append(errs, err)
		}
		return nil
	})
	return multierr.Append(errs, walkErr)
}

// RemoveFile marks relPath removed if it is tracked (present in HEAD), or
// simply unstages it if it was only ever staged (untracking).
func (a *Area) RemoveFile(relPath string, head HeadReader) error {
	if err := checkWithinRoot(relPath); err != nil {
		return err
	}
	tracked := false
	if head != nil {
		if _, err := head.GetEntry(relPath); err == nil {
			tracked = true
		} else if !oxenerr.Is(err, oxenerr.NotFound) {
			return err
		}
	}

	if !tracked {
		return a.unstagePath(relPath)
	}

	entry := model.StagedEntry{Path: relPath}
	data, err := json.Marshal(markedRemoved(entry))
	if err != nil {
		return oxenerr.Wrap(oxenerr.InvalidInput, "staging.RemoveFile", "marshaling removal", err)
	}
	err = a.store.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketStaged)).Put([]byte(removalKey(relPath)), data)
	})
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "staging.RemoveFile", "marking "+relPath+" removed", err)
	}
	return a.unstagePath(relPath)
}

func (a *Area) unstagePath(relPath string) error {
	err := a.store.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketStaged)).Delete([]byte(relPath))
	})
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "staging.unstagePath", "unstaging "+relPath, err)
	}
	return nil
}

// removalKey and markedRemoved distinguish a "mark removed" record from a
// "staged for add" record within the same flat bucket.
func removalKey(relPath string) string { return "removed:" + relPath }

func markedRemoved(e model.StagedEntry) model.StagedEntry {
	e.Modified = false
	return e
}

// Unstage wipes the entire staged store, discarding all pending adds and
// removals without touching the working tree.
func (a *Area) Unstage() error {
	err := a.store.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketStaged)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketStaged))
		return err
	})
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "staging.Unstage", "clearing staged store", err)
	}
	return nil
}

// rawStaged returns every key/value pair currently in the staged bucket.
func (a *Area) rawStaged() (map[string]model.StagedEntry, error) {
	result := make(map[string]model.StagedEntry)
	err := a.store.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketStaged)).ForEach(func(k, v []byte) error {
			var e model.StagedEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			result[string(k)] = e
			return nil
		})
	})
	if err != nil {
		return nil, oxenerr.Wrap(oxenerr.IoError, "staging.rawStaged", "iterating staged store", err)
	}
	return result, nil
}

// StagedDiff returns only the explicitly staged adds/removes recorded by
// AddFile/RemoveFile — the set a commit is built from. Unlike Status, it
// never folds in unstaged working-tree modifications or untracked files:
// commit mirrors the original's add-then-commit semantics, recording
// exactly what the user staged and nothing the working tree happens to
// also differ on.
func (a *Area) StagedDiff(head HeadReader) (model.StagedData, error) {
	data := model.NewStagedData()

	raw, err := a.rawStaged()
	if err != nil {
		return data, err
	}

	headPaths := make(map[string]struct{})
	if head != nil {
		files, err := head.ListFiles()
		if err != nil {
			return data, err
		}
		for _, p := range files {
			headPaths[p] = struct{}{}
		}
	}

	for key, e := range raw {
		if len(key) > len("removed:") && key[:len("removed:")] == "removed:" {
			data.RemovedFiles[e.Path] = struct{}{}
			continue
		}
		if _, tracked := headPaths[e.Path]; tracked {
			data.ModifiedFiles[e.Path] = struct{}{}
		} else {
			data.AddedFiles[e.Path] = e
		}
	}

	return data, nil
}

// Status composes the full working-set diff: staged adds/removes, plus
// working-tree files that differ from HEAD without having been explicitly
// staged, plus never-tracked files (§4.7). It is a display-only view used
// by `oxen status`; commit uses StagedDiff instead.
func (a *Area) Status(head HeadReader) (model.StagedData, error) {
	data, err := a.StagedDiff(head)
	if err != nil {
		return data, err
	}

	headPaths := make(map[string]struct{})
	if head != nil {
		files, err := head.ListFiles()
		if err != nil {
			return data, err
		}
		for _, p := range files {
			headPaths[p] = struct{}{}
		}
	}

	staged := make(map[string]struct{})
	for p := range data.AddedFiles {
		staged[p] = struct{}{}
	}
	for p := range data.ModifiedFiles {
		staged[p] = struct{}{}
	}
	for p := range data.RemovedFiles {
		staged[p] = struct{}{}
	}

	err = filepath.Walk(a.workDir, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			if info.Name() == ".oxen" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(a.workDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if _, alreadyStaged := staged[rel]; alreadyStaged {
			return nil
		}

		_, isTracked := headPaths[rel]
		if !isTracked {
			data.UntrackedFiles[rel] = struct{}{}
			return nil
		}

		entry, err := head.GetEntry(rel)
		if err != nil {
			return err
		}
		h, err := hash.File(p)
		if err != nil {
			return err
		}
		if string(h) != entry.Hash {
			data.ModifiedFiles[rel] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return data, oxenerr.Wrap(oxenerr.IoError, "staging.Status", "walking working tree", err)
	}

	// Tracked paths missing from the working tree are removed, unless
	// already explicitly staged as such above.
	for p := range headPaths {
		if _, staged := data.RemovedFiles[p]; staged {
			continue
		}
		if _, err := os.Stat(filepath.Join(a.workDir, p)); os.IsNotExist(err) {
			data.RemovedFiles[p] = struct{}{}
		}
	}

	return data, nil
}
