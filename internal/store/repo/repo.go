// Package repo wires together the commit DB, ref store, object store,
// staging area, commit orchestrator and checkout reconciler into a single
// Repository handle rooted at one working directory (§3's Repository),
// mirroring the way the teacher's gitcore.NewRepository opens and owns every
// sub-store for one repo root.
package repo

import (
	"os"
	"path/filepath"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/progress"
	"github.com/oxfs/oxen/internal/store/checkout"
	"github.com/oxfs/oxen/internal/store/commitdb"
	"github.com/oxfs/oxen/internal/store/commitwriter"
	"github.com/oxfs/oxen/internal/store/config"
	"github.com/oxfs/oxen/internal/store/entryindex"
	"github.com/oxfs/oxen/internal/store/model"
	"github.com/oxfs/oxen/internal/store/objstore"
	"github.com/oxfs/oxen/internal/store/refstore"
	"github.com/oxfs/oxen/internal/store/staging"
)

// Layout constants for the .oxen directory tree (§6).
const (
	oxenDirName     = ".oxen"
	configFileName  = "config.toml"
	commitsFileName = "commits.db"
	historyDirName  = "history"
	versionsDirName = "versions"
)

// Repository is the exclusive-writer handle on one repository: every store
// it owns is opened read-write, so at most one Repository may be open on a
// given root at a time (enforced by the underlying bbolt locks).
type Repository struct {
	root    string
	oxenDir string

	Config  *config.Config
	Commits *commitdb.DB
	Refs    *refstore.Store
	Objects *objstore.Store
	Staging *staging.Area

	writer   *commitwriter.Writer
	checkout *checkout.Checkout
}

// Root returns the repository's working-tree root.
func (r *Repository) Root() string { return r.root }

// OxenDir returns the repository's .oxen metadata directory.
func (r *Repository) OxenDir() string { return r.oxenDir }

// HistoryDir returns .oxen/history, where every commit's entry index lives.
func (r *Repository) HistoryDir() string { return filepath.Join(r.oxenDir, historyDirName) }

// Init creates a new repository rooted at root: the .oxen directory tree,
// an empty config, HEAD pointing at the default branch, and opens every
// store for read-write use. It fails with AlreadyExists if .oxen is already
// present.
func Init(root, repoID, repoName string) (*Repository, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, oxenerr.Wrap(oxenerr.InvalidInput, "repo.Init", "resolving repository root", err)
	}

	oxenDir := filepath.Join(root, oxenDirName)
	if _, err := os.Stat(oxenDir); err == nil {
		return nil, oxenerr.New(oxenerr.AlreadyExists, "repo.Init", ".oxen already exists at "+root)
	}

	if err := os.MkdirAll(filepath.Join(oxenDir, historyDirName), 0o755); err != nil {
		return nil, oxenerr.Wrap(oxenerr.IoError, "repo.Init", "creating .oxen directory tree", err)
	}

	cfg := config.New(repoID, repoName)
	if err := config.Save(filepath.Join(oxenDir, configFileName), cfg); err != nil {
		return nil, err
	}

	r, err := open(root, oxenDir, cfg)
	if err != nil {
		return nil, err
	}
	if err := r.Refs.InitHEAD(config.DefaultBranchName); err != nil {
		return nil, err
	}
	return r, nil
}

// Open opens an existing repository rooted at root for read-write use.
func Open(root string) (*Repository, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, oxenerr.Wrap(oxenerr.InvalidInput, "repo.Open", "resolving repository root", err)
	}

	oxenDir := filepath.Join(root, oxenDirName)
	cfg, err := config.Load(filepath.Join(oxenDir, configFileName))
	if err != nil {
		return nil, err
	}
	return open(root, oxenDir, cfg)
}

func open(root, oxenDir string, cfg *config.Config) (*Repository, error) {
	commits, err := commitdb.OpenWriter(filepath.Join(oxenDir, commitsFileName))
	if err != nil {
		return nil, err
	}
	refs, err := refstore.OpenWriter(oxenDir)
	if err != nil {
		_ = commits.Close()
		return nil, err
	}
	objects := objstore.New(filepath.Join(oxenDir, versionsDirName))

	area, err := staging.OpenWriter(oxenDir, root)
	if err != nil {
		_ = commits.Close()
		_ = refs.Close()
		return nil, err
	}

	historyDir := filepath.Join(oxenDir, historyDirName)
	r := &Repository{
		root:     root,
		oxenDir:  oxenDir,
		Config:   cfg,
		Commits:  commits,
		Refs:     refs,
		Objects:  objects,
		Staging:  area,
		writer:   commitwriter.New(commits, refs, objects, historyDir, root, cfg.User.Name),
		checkout: checkout.New(commits, refs, objects, historyDir, root),
	}
	return r, nil
}

// Close releases every exclusive-writer handle the Repository holds.
func (r *Repository) Close() error {
	errs := []error{r.Staging.Close(), r.Refs.Close(), r.Commits.Close()}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// HeadIndex opens a read-only entry index over the commit HEAD currently
// names, or nil if the repository has no commits yet.
func (r *Repository) HeadIndex() (*entryindex.Index, error) {
	headID, err := r.Refs.HeadCommitID()
	if err != nil {
		if oxenerr.Is(err, oxenerr.NotFound) {
			return nil, nil
		}
		return nil, err
	}
	exists, err := r.Commits.Exists(headID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return entryindex.OpenReader(r.HistoryDir(), headID)
}

// Status computes the working-set diff against HEAD (§4.7).
func (r *Repository) Status() (model.StagedData, error) {
	head, err := r.HeadIndex()
	if err != nil {
		return model.StagedData{}, err
	}
	if head != nil {
		defer head.Close()
		return r.Staging.Status(head)
	}
	return r.Staging.Status(nil)
}

// Commit constructs a new commit from exactly the explicitly staged diff
// (files added/removed via Staging.AddFile/AddDir/RemoveFile) and clears
// the staging area, mirroring the original's add-then-commit semantics;
// unstaged working-tree edits are never swept in. Author must already be
// configured; callers should check Config.User.IsSet before calling to
// surface a friendlier error than AuthMissing.
func (r *Repository) Commit(message string, reporter progress.Reporter) (model.Commit, error) {
	if !r.Config.User.IsSet() {
		return model.Commit{}, oxenerr.New(oxenerr.AuthMissing, "repo.Commit", "no user.name/user.email configured; run 'oxen config'")
	}

	head, err := r.HeadIndex()
	if err != nil {
		return model.Commit{}, err
	}
	// head is a concrete *entryindex.Index here; passing a nil one straight
	// into the HeadReader interface parameter below would produce a non-nil
	// interface wrapping a nil pointer, so nil is passed explicitly instead.
	var staged model.StagedData
	if head != nil {
		defer head.Close()
		staged, err = r.Staging.StagedDiff(head)
	} else {
		staged, err = r.Staging.StagedDiff(nil)
	}
	if err != nil {
		return model.Commit{}, err
	}

	// Config.User may have been set after open; record the author as it is now.
	r.writer = commitwriter.New(r.Commits, r.Refs, r.Objects, r.HistoryDir(), r.root, r.Config.User.Name)
	commit, err := r.writer.Commit(staged, message, reporter)
	if err != nil {
		return model.Commit{}, err
	}
	if err := r.Staging.Unstage(); err != nil {
		return model.Commit{}, err
	}
	return commit, nil
}

// Checkout reconciles the working tree with refOrID and updates HEAD (§4.6).
func (r *Repository) Checkout(refOrID string, reporter progress.Reporter) error {
	return r.checkout.Run(refOrID, reporter)
}

// InitialCommit commits whatever is staged with the default initial-commit
// message (mirrors the original implementation's bootstrap commit). `oxen
// init` does not call it.
func (r *Repository) InitialCommit(reporter progress.Reporter) (model.Commit, error) {
	return r.Commit(commitwriter.InitialCommitMessage, reporter)
}

// SaveConfig persists the repository's in-memory Config back to disk, used
// after `oxen config --user.name/--user.email` mutate r.Config.User.
func (r *Repository) SaveConfig() error {
	return config.Save(filepath.Join(r.oxenDir, configFileName), r.Config)
}
