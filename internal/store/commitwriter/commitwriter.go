// Package commitwriter implements the commit orchestrator (§4.5), the
// component that turns a StagedData diff into a new immutable Commit: write
// blobs, write the new entry index, append to the commit DB, advance the
// current branch tip. Grounded on the original implementation's
// CommitWriter (commit_writer.rs), adapted to Go's bbolt-backed stores.
package commitwriter

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/progress"
	"github.com/oxfs/oxen/internal/store/commitdb"
	"github.com/oxfs/oxen/internal/store/entryindex"
	"github.com/oxfs/oxen/internal/store/hash"
	"github.com/oxfs/oxen/internal/store/model"
	"github.com/oxfs/oxen/internal/store/objstore"
	"github.com/oxfs/oxen/internal/store/refstore"
)

// InitialCommitMessage is the default message used for a repository's
// synthetic first commit at init, mirroring the original implementation's
// INITIAL_COMMIT_MSG constant.
const InitialCommitMessage = "Initialized Repo"

// Writer ties together the commit DB, ref store, object store and
// history directory needed to construct commits.
type Writer struct {
	commits    *commitdb.DB
	refs       *refstore.Store
	objects    *objstore.Store
	historyDir string
	workDir    string
	author     string
}

// New returns a Writer. historyDir is .oxen/history; workDir is the
// repository's working tree root; author is the configured commit author
// (already validated non-empty by the caller).
func New(commits *commitdb.DB, refs *refstore.Store, objects *objstore.Store, historyDir, workDir, author string) *Writer {
	return &Writer{commits: commits, refs: refs, objects: objects, historyDir: historyDir, workDir: workDir, author: author}
}

// NewID mints a fresh 128-bit random identifier, hex-encoded without
// dashes, suitable for both commit ids and entry ids (§6).
func NewID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

// Commit executes the 10-step commit algorithm of §4.5 and returns the new
// Commit record. reporter receives one Increment per entry written to the
// new index (carried-forward parent entries and staged files alike); pass
// progress.Noop() to disable reporting.
func (w *Writer) Commit(staged model.StagedData, message string, reporter progress.Reporter) (model.Commit, error) {
	if w.author == "" {
		return model.Commit{}, oxenerr.New(oxenerr.AuthMissing, "commitwriter.Commit", "no author configured")
	}

	// Step 1-2: fresh commit id, current HEAD commit id (absent => initial).
	// HeadCommitID cannot tell a not-yet-created default branch (HEAD =
	// "main" before any commit exists) apart from a genuinely resolved
	// parent by string content alone, so confirm against the commit DB:
	// if nothing by that id actually exists, this is the initial commit.
	commitID := NewID()
	parentID, err := w.refs.HeadCommitID()
	if err != nil {
		if !oxenerr.Is(err, oxenerr.NotFound) {
			return model.Commit{}, err
		}
		parentID = ""
	}
	if parentID != "" {
		exists, err := w.commits.Exists(parentID)
		if err != nil {
			return model.Commit{}, err
		}
		if !exists {
			parentID = ""
		}
	}

	// Step 3: construct the commit record (written to the DB in step 9).
	commit := model.Commit{
		ID:       commitID,
		ParentID: parentID,
		Message:  message,
		Author:   w.author,
		Date:     time.Now().UTC(),
	}

	// Step 4: open the new entry-index writer.
	newIndex, err := entryindex.OpenWriter(w.historyDir, commitID)
	if err != nil {
		return model.Commit{}, err
	}
	defer newIndex.Close()

	var parentIndex *entryindex.Index
	if parentID != "" {
		parentIndex, err = entryindex.OpenReader(w.historyDir, parentID)
		if err != nil && !oxenerr.Is(err, oxenerr.NotFound) {
			return model.Commit{}, err
		}
		if parentIndex != nil {
			defer parentIndex.Close()
		}
	}

	touchedDirs := make(map[string]struct{})

	// Step 5: carry forward parent entries not removed in staged.
	if parentIndex != nil {
		parentEntries, err := parentIndex.ListEntries()
		if err != nil {
			return model.Commit{}, err
		}
		for _, e := range parentEntries {
			if _, removed := staged.RemovedFiles[e.Path]; removed {
				continue
			}
			if _, beingReplaced := staged.AddedFiles[e.Path]; beingReplaced {
				continue
			}
			if _, modified := staged.ModifiedFiles[e.Path]; modified {
				continue
			}
			if err := newIndex.PutEntry(e); err != nil {
				return model.Commit{}, err
			}
			touchedDirs[dirOf(e.Path)] = struct{}{}
			reporter.Increment()
		}
	}

	// Step 6: staged added/modified files.
	for relPath := range allTouchedPaths(staged) {
		srcPath := filepath.Join(w.workDir, relPath)
		if se, ok := staged.AddedFiles[relPath]; ok && se.SrcPath != "" {
			srcPath = se.SrcPath
		}

		if err := w.commitOneFile(commit.ID, relPath, srcPath, parentIndex, newIndex); err != nil {
			return model.Commit{}, err
		}
		touchedDirs[dirOf(relPath)] = struct{}{}
		reporter.Increment()
	}

	// Step 8: recompute DirStat for every touched directory, concurrently.
	if err := w.recomputeDirStats(newIndex, touchedDirs); err != nil {
		return model.Commit{}, err
	}

	// Step 9: append to the commit DB.
	if err := w.commits.Put(commit); err != nil {
		return model.Commit{}, err
	}

	// Step 10: advance the current branch tip, or move detached HEAD.
	if branch, err := w.refs.CurrentBranch(); err == nil {
		if err := w.refs.SetBranchTip(branch.Name, commit.ID); err != nil {
			return model.Commit{}, err
		}
	} else if oxenerr.Is(err, oxenerr.NotFound) {
		head, herr := w.refs.ReadHeadRef()
		if herr != nil {
			return model.Commit{}, herr
		}
		// HEAD names no existing branch. Either it is a detached bare
		// commit id (head itself already names a real commit, the one we
		// just used as parentID) or it names the repository's
		// as-yet-uncreated default branch (fresh init, first commit).
		detached, dErr := w.commits.Exists(head)
		if dErr != nil {
			return model.Commit{}, dErr
		}
		if detached {
			if err := w.refs.SetHead(commit.ID); err != nil {
				return model.Commit{}, err
			}
		} else if _, cerr := w.refs.CreateBranch(head, commit.ID); cerr != nil {
			return model.Commit{}, cerr
		}
	} else {
		return model.Commit{}, err
	}

	return commit, nil
}

// commitOneFile implements step 6 for a single path: reuse the parent's
// entry id, hash the source, skip the blob copy when unchanged.
func (w *Writer) commitOneFile(commitID, relPath, srcPath string, parentIndex, newIndex *entryindex.Index) error {
	entryID := NewID()
	var parentEntry model.CommitEntry
	hasParent := false
	if parentIndex != nil {
		if e, err := parentIndex.GetEntry(relPath); err == nil {
			entryID = e.ID
			parentEntry = e
			hasParent = true
		} else if !oxenerr.Is(err, oxenerr.NotFound) {
			return err
		}
	}

	contentHash, err := hash.File(srcPath)
	if err != nil {
		return err
	}

	info, err := os.Stat(srcPath)
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "commitwriter.commitOneFile", "statting "+srcPath, err)
	}

	if hasParent && parentEntry.Hash == string(contentHash) {
		return newIndex.PutEntry(parentEntry)
	}

	entry := model.CommitEntry{
		ID:                  entryID,
		Path:                relPath,
		Hash:                string(contentHash),
		CommitID:            commitID,
		Extension:           model.ExtensionOf(relPath),
		NumBytes:            info.Size(),
		LastModifiedSeconds: info.ModTime().Unix(),
	}

	if err := w.objects.Put(entry, srcPath); err != nil {
		return err
	}
	return newIndex.PutEntry(entry)
}

// recomputeDirStats rebuilds the DirStat aggregate for every directory in
// dirs, one goroutine per directory joined with errgroup, mirroring step 8.
func (w *Writer) recomputeDirStats(idx *entryindex.Index, dirs map[string]struct{}) error {
	if len(dirs) == 0 {
		return nil
	}
	allEntries, err := idx.ListEntries()
	if err != nil {
		return err
	}

	byDir := make(map[string][]model.CommitEntry)
	for _, e := range allEntries {
		d := dirOf(e.Path)
		for {
			byDir[d] = append(byDir[d], e)
			if d == "" || d == "." {
				break
			}
			parent := filepath.Dir(d)
			if parent == "." || parent == d {
				parent = ""
			}
			d = parent
		}
	}

	// A change under a directory also changes every ancestor's aggregate,
	// up to and including the root ("").
	withAncestors := make(map[string]struct{}, len(dirs))
	for d := range dirs {
		for {
			withAncestors[d] = struct{}{}
			if d == "" {
				break
			}
			d = dirOf(d)
		}
	}

	var g errgroup.Group
	for dir := range withAncestors {
		dir := dir
		g.Go(func() error {
			stat := model.NewDirStat(dir)
			for _, e := range byDir[dir] {
				stat.Add(e)
			}
			return idx.PutDirStat(stat)
		})
	}
	return g.Wait()
}

func dirOf(relPath string) string {
	d := filepath.Dir(filepath.ToSlash(relPath))
	if d == "." {
		return ""
	}
	return d
}

func allTouchedPaths(staged model.StagedData) map[string]struct{} {
	paths := make(map[string]struct{}, len(staged.AddedFiles)+len(staged.ModifiedFiles))
	for p := range staged.AddedFiles {
		paths[p] = struct{}{}
	}
	for p := range staged.ModifiedFiles {
		paths[p] = struct{}{}
	}
	return paths
}
