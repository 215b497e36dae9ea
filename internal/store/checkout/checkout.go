// Package checkout implements working-tree reconciliation (§4.6): given a
// target commit, it deletes files no longer tracked, restores or overwrites
// files that differ from the target, prunes directories left empty, and
// updates HEAD. Grounded on the original implementation's
// set_working_repo_to_commit (checkout.rs), adapted to the entry-index/
// object-store split used here.
package checkout

import (
	"os"
	"path"
	"path/filepath"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/progress"
	"github.com/oxfs/oxen/internal/store/commitdb"
	"github.com/oxfs/oxen/internal/store/entryindex"
	"github.com/oxfs/oxen/internal/store/hash"
	"github.com/oxfs/oxen/internal/store/objstore"
	"github.com/oxfs/oxen/internal/store/refstore"
)

// Checkout ties together the stores needed to reconcile the working tree
// with a target commit and update HEAD afterward.
type Checkout struct {
	commits    *commitdb.DB
	refs       *refstore.Store
	objects    *objstore.Store
	historyDir string
	workDir    string
}

// New returns a Checkout. historyDir is .oxen/history; workDir is the
// repository's working tree root.
func New(commits *commitdb.DB, refs *refstore.Store, objects *objstore.Store, historyDir, workDir string) *Checkout {
	return &Checkout{commits: commits, refs: refs, objects: objects, historyDir: historyDir, workDir: workDir}
}

// Run executes the 7-step reconciliation algorithm of §4.6, resolving
// refOrID to a commit id first. refOrID may be a branch name or a bare
// commit id; which one determines how HEAD is updated in the final step.
// reporter receives one Increment per target entry reconciled, whether or
// not its file had to be restored or overwritten.
func (c *Checkout) Run(refOrID string, reporter progress.Reporter) error {
	targetID, isBranch, err := c.resolveTarget(refOrID)
	if err != nil {
		return err
	}

	// Step 1: verify the target exists.
	exists, err := c.commits.Exists(targetID)
	if err != nil {
		return err
	}
	if !exists {
		return oxenerr.New(oxenerr.NotFound, "checkout.Run", "commit "+targetID+" not found")
	}

	// Step 2: no-op if already at target.
	headID, err := c.refs.HeadCommitID()
	if err != nil && !oxenerr.Is(err, oxenerr.NotFound) {
		return err
	}
	if headID == targetID {
		return c.updateHead(refOrID, isBranch)
	}

	targetIndex, err := entryindex.OpenReader(c.historyDir, targetID)
	if err != nil {
		return err
	}
	defer targetIndex.Close()

	targetEntries, err := targetIndex.ListEntries()
	if err != nil {
		return err
	}
	targetPaths := make(map[string]bool, len(targetEntries))
	for _, e := range targetEntries {
		targetPaths[e.Path] = true
	}

	// Step 3: build the current set of tracked files from HEAD's index, and
	// the removal-candidate set of parent directories.
	removalCandidates := make(map[string]struct{})
	if headID != "" {
		headIndex, err := entryindex.OpenReader(c.historyDir, headID)
		if err != nil && !oxenerr.Is(err, oxenerr.NotFound) {
			return err
		}
		if headIndex != nil {
			defer headIndex.Close()

			headEntries, err := headIndex.ListEntries()
			if err != nil {
				return err
			}

			// Step 4: delete files untracked in target, collecting removal
			// candidates. This pass completes before any restore happens
			// (§5 ordering guarantee): a path simultaneously removed and
			// re-added in target must survive.
			for _, e := range headEntries {
				dir := parentDir(e.Path)
				if dir != "" {
					removalCandidates[dir] = struct{}{}
				}

				full := filepath.Join(c.workDir, filepath.FromSlash(e.Path))
				if _, statErr := os.Stat(full); os.IsNotExist(statErr) {
					continue
				}

				if !targetPaths[e.Path] {
					if err := os.Remove(full); err != nil {
						return oxenerr.Wrap(oxenerr.IoError, "checkout.Run", "removing "+e.Path, err)
					}
				}
			}
		}
	}

	// Step 5: restore/overwrite every entry in target, clearing its parent
	// from the removal-candidate set (still tracked).
	for _, e := range targetEntries {
		dir := parentDir(e.Path)
		if dir != "" {
			delete(removalCandidates, dir)
			for d := dir; d != ""; d = parentDir(d) {
				delete(removalCandidates, d)
			}
		}

		full := filepath.Join(c.workDir, filepath.FromSlash(e.Path))
		info, statErr := os.Stat(full)
		switch {
		case os.IsNotExist(statErr):
			if err := c.objects.Restore(e, full); err != nil {
				return err
			}
		case statErr != nil:
			return oxenerr.Wrap(oxenerr.IoError, "checkout.Run", "statting "+e.Path, statErr)
		default:
			if info.IsDir() {
				return oxenerr.New(oxenerr.CheckoutConflict, "checkout.Run", e.Path+" is a directory in the working tree but a file in the target commit")
			}
			h, err := hash.File(full)
			if err != nil {
				return err
			}
			if string(h) != e.Hash {
				if err := c.objects.Restore(e, full); err != nil {
					return err
				}
			}
		}
		reporter.Increment()
	}

	// Step 6: prune directories still marked for removal.
	for dir := range removalCandidates {
		full := filepath.Join(c.workDir, filepath.FromSlash(dir))
		if err := os.RemoveAll(full); err != nil {
			return oxenerr.Wrap(oxenerr.IoError, "checkout.Run", "pruning "+dir, err)
		}
	}

	// Step 7: update HEAD.
	return c.updateHead(refOrID, isBranch)
}

// resolveTarget determines the commit id refOrID names and whether it was
// given as a branch name (vs. a bare commit id).
func (c *Checkout) resolveTarget(refOrID string) (id string, isBranch bool, err error) {
	branch, err := c.refs.GetBranchByName(refOrID)
	if err == nil {
		return branch.CommitID, true, nil
	}
	if !oxenerr.Is(err, oxenerr.NotFound) {
		return "", false, err
	}
	return refOrID, false, nil
}

// updateHead writes HEAD to refOrID verbatim: a branch name leaves HEAD
// naming that branch (its tip is untouched by checkout), a bare commit id
// leaves HEAD detached, matching §4.6 step 7 either way.
func (c *Checkout) updateHead(refOrID string, _ bool) error {
	return c.refs.SetHead(refOrID)
}

// parentDir returns the slash-separated parent of p, or "" if p is already
// at the repo root (the root itself is never a removal candidate, per §4.6).
func parentDir(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
