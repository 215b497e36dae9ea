// Package query defines the read-only boundary the core exposes to external
// collaborators named but not implemented here (§1): an HTTP server, a
// remote-sync adapter, and the CLI's own read commands. None of those
// collaborators are built by this module; query only gives them a narrow,
// named interface to call through rather than reaching into the store
// packages directly. Grounded on the teacher's internal/gitcore read-path
// (ListCommits/GetCommit-style accessors backing cmd/gitcli's log/status).
package query

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/store/commitdb"
	"github.com/oxfs/oxen/internal/store/entryindex"
	"github.com/oxfs/oxen/internal/store/hash"
	"github.com/oxfs/oxen/internal/store/model"
	"github.com/oxfs/oxen/internal/store/refstore"
)

// schemasDirName is the reserved path under one commit's history directory
// for the external tabular-schema-inference collaborator (§6,
// api/local/schemas.rs in the original). The core never writes here.
const schemasDirName = "schemas"

// CommitInfo is the read-only view of a commit handed to external
// collaborators, carrying the informational content hash alongside the
// identity fields already in model.Commit.
type CommitInfo struct {
	model.Commit
	ContentHash string `json:"content_hash,omitempty"`
}

// Reader is the read-only boundary over one repository, built from the same
// stores repo.Repository owns but never mutating them. A remote-sync
// adapter or HTTP server is expected to hold one of these, not a
// repo.Repository.
type Reader struct {
	commits    *commitdb.DB
	refs       *refstore.Store
	historyDir string
}

// NewReader returns a Reader over already-open stores. Callers retain
// ownership of commits/refs and must close them themselves.
func NewReader(commits *commitdb.DB, refs *refstore.Store, historyDir string) *Reader {
	return &Reader{commits: commits, refs: refs, historyDir: historyDir}
}

// GetCommit returns one commit by id, with its informational content hash
// computed from its entry index.
func (r *Reader) GetCommit(id string) (CommitInfo, error) {
	commit, err := r.commits.Get(id)
	if err != nil {
		return CommitInfo{}, err
	}
	return r.withContentHash(commit)
}

// ListCommits returns the ancestry of the commit HEAD (or refOrID, if
// non-empty) names, most-recent-first, each with its content hash.
func (r *Reader) ListCommits(refOrID string) ([]CommitInfo, error) {
	id, err := r.resolve(refOrID)
	if err != nil {
		return nil, err
	}
	ancestors, err := r.commits.Ancestors(id)
	if err != nil {
		return nil, err
	}
	infos := make([]CommitInfo, 0, len(ancestors))
	for _, c := range ancestors {
		info, err := r.withContentHash(c)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ListBranches returns every branch, IsHead set relative to the current HEAD.
func (r *Reader) ListBranches() ([]model.Branch, error) {
	branches, err := r.refs.ListBranches()
	if err != nil {
		return nil, err
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// ListDirectory returns one page of entries under dir within the commit
// refOrID names (or HEAD if empty), plus the total matching count.
func (r *Reader) ListDirectory(refOrID, dir string, page, pageSize int) ([]model.CommitEntry, int, error) {
	id, err := r.resolve(refOrID)
	if err != nil {
		return nil, 0, err
	}
	idx, err := entryindex.OpenReader(r.historyDir, id)
	if err != nil {
		return nil, 0, err
	}
	defer idx.Close()
	return idx.ListDirectory(dir, page, pageSize)
}

// RepoStats rolls up the root DirStat of the commit refOrID names (or HEAD)
// into a repository-wide summary. It returns a zero-value RepoStats if the
// commit has no entries.
func (r *Reader) RepoStats(refOrID string) (model.RepoStats, error) {
	id, err := r.resolve(refOrID)
	if err != nil {
		return model.RepoStats{}, err
	}
	idx, err := entryindex.OpenReader(r.historyDir, id)
	if err != nil {
		return model.RepoStats{}, err
	}
	defer idx.Close()

	root, err := idx.GetDirStat("")
	if err != nil {
		if oxenerr.Is(err, oxenerr.NotFound) {
			return model.RepoStats{DataTypes: make(map[model.DataType]model.DataTypeStat)}, nil
		}
		return model.RepoStats{}, err
	}
	return model.RepoStats{DataSize: root.DataSize, DataTypes: root.DataTypes}, nil
}

// ListSchemas returns every schema recorded under the commit's reserved
// schemas/ directory, or an empty list if the directory is absent — the
// core performs no schema inference itself (Non-goal).
func (r *Reader) ListSchemas(refOrID string) (map[string]model.Schema, error) {
	id, err := r.resolve(refOrID)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(r.historyDir, id, schemasDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.Schema{}, nil
		}
		return nil, oxenerr.Wrap(oxenerr.IoError, "query.ListSchemas", "reading schemas directory", err)
	}

	schemas := make(map[string]model.Schema, len(entries))
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, de.Name())) //nolint:gosec // G304: path built from repo-owned history directory
		if err != nil {
			return nil, oxenerr.Wrap(oxenerr.IoError, "query.ListSchemas", "reading schema "+de.Name(), err)
		}
		var schema model.Schema
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, oxenerr.Wrap(oxenerr.Corruption, "query.ListSchemas", "decoding schema "+de.Name(), err)
		}
		schemas[de.Name()] = schema
	}
	return schemas, nil
}

func (r *Reader) resolve(refOrID string) (string, error) {
	if refOrID == "" {
		return r.refs.HeadCommitID()
	}
	if branch, err := r.refs.GetBranchByName(refOrID); err == nil {
		return branch.CommitID, nil
	} else if !oxenerr.Is(err, oxenerr.NotFound) {
		return "", err
	}
	return refOrID, nil
}

func (r *Reader) withContentHash(commit model.Commit) (CommitInfo, error) {
	idx, err := entryindex.OpenReader(r.historyDir, commit.ID)
	if err != nil {
		if oxenerr.Is(err, oxenerr.NotFound) {
			return CommitInfo{Commit: commit}, nil
		}
		return CommitInfo{}, err
	}
	defer idx.Close()

	entries, err := idx.ListEntries()
	if err != nil {
		return CommitInfo{}, err
	}
	hashes := make([]string, 0, len(entries))
	for _, e := range entries {
		hashes = append(hashes, e.Hash)
	}
	return CommitInfo{Commit: commit, ContentHash: string(hash.CommitContentHash(commit, hashes))}, nil
}
