// Package entryindex implements the per-commit entry index at
// .oxen/history/<commit_id>/ (§4.4): parallel key-value stores mapping path
// to CommitEntry and directory to DirStat.
package entryindex

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/oxfs/oxen/internal/oxenerr"
	"github.com/oxfs/oxen/internal/store/kvstore"
	"github.com/oxfs/oxen/internal/store/model"
)

const (
	bucketFiles = "files"
	bucketDirs  = "dirs"
)

// Index wraps one commit's entry index store.
type Index struct {
	store    *kvstore.Store
	commitID string
}

func dbPath(historyDir, commitID string) string {
	return filepath.Join(historyDir, commitID, "index.db")
}

// OpenWriter opens (creating if absent) the exclusive writer handle for
// commitID's entry index, rooted under historyDir.
func OpenWriter(historyDir, commitID string) (*Index, error) {
	if err := os.MkdirAll(filepath.Join(historyDir, commitID), 0o755); err != nil {
		return nil, oxenerr.Wrap(oxenerr.IoError, "entryindex.OpenWriter", "creating history directory", err)
	}
	s, err := kvstore.OpenWriter(dbPath(historyDir, commitID), bucketFiles, bucketDirs)
	if err != nil {
		return nil, err
	}
	return &Index{store: s, commitID: commitID}, nil
}

// OpenReader opens commitID's entry index for concurrent read-only access.
func OpenReader(historyDir, commitID string) (*Index, error) {
	s, err := kvstore.OpenReader(dbPath(historyDir, commitID))
	if err != nil {
		return nil, err
	}
	return &Index{store: s, commitID: commitID}, nil
}

// Close releases the underlying store handle.
func (idx *Index) Close() error { return idx.store.Close() }

// PutEntry writes (or overwrites) the record for entry.Path.
func (idx *Index) PutEntry(entry model.CommitEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return oxenerr.Wrap(oxenerr.InvalidInput, "entryindex.PutEntry", "marshaling entry", err)
	}
	err = idx.store.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketFiles)).Put([]byte(entry.Path), data)
	})
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "entryindex.PutEntry", "writing entry "+entry.Path, err)
	}
	return nil
}

// PutDirStat writes (or overwrites) the aggregate record for dir.
func (idx *Index) PutDirStat(stat model.DirStat) error {
	data, err := json.Marshal(stat)
	if err != nil {
		return oxenerr.Wrap(oxenerr.InvalidInput, "entryindex.PutDirStat", "marshaling dir stat", err)
	}
	err = idx.store.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketDirs)).Put([]byte(stat.Path), data)
	})
	if err != nil {
		return oxenerr.Wrap(oxenerr.IoError, "entryindex.PutDirStat", "writing dir "+stat.Path, err)
	}
	return nil
}

// GetEntry returns the record at path, or NotFound.
func (idx *Index) GetEntry(p string) (model.CommitEntry, error) {
	var entry model.CommitEntry
	var raw []byte
	err := idx.store.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketFiles)).Get([]byte(p))
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return entry, oxenerr.Wrap(oxenerr.IoError, "entryindex.GetEntry", "reading "+p, err)
	}
	if raw == nil {
		return entry, oxenerr.New(oxenerr.NotFound, "entryindex.GetEntry", p+" not found")
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return entry, oxenerr.Wrap(oxenerr.Corruption, "entryindex.GetEntry", "decoding "+p, err)
	}
	return entry, nil
}

// HasFile reports whether path is present in the index.
func (idx *Index) HasFile(p string) (bool, error) {
	_, err := idx.GetEntry(p)
	if err == nil {
		return true, nil
	}
	if oxenerr.Is(err, oxenerr.NotFound) {
		return false, nil
	}
	return false, err
}

// GetDirStat returns the aggregate for dir, or NotFound.
func (idx *Index) GetDirStat(dir string) (model.DirStat, error) {
	var stat model.DirStat
	var raw []byte
	err := idx.store.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketDirs)).Get([]byte(dir))
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return stat, oxenerr.Wrap(oxenerr.IoError, "entryindex.GetDirStat", "reading "+dir, err)
	}
	if raw == nil {
		return stat, oxenerr.New(oxenerr.NotFound, "entryindex.GetDirStat", dir+" not found")
	}
	if err := json.Unmarshal(raw, &stat); err != nil {
		return stat, oxenerr.Wrap(oxenerr.Corruption, "entryindex.GetDirStat", "decoding "+dir, err)
	}
	return stat, nil
}

// ListEntries returns every CommitEntry in the index, in lexicographic path
// order (bbolt's natural byte-key iteration order).
func (idx *Index) ListEntries() ([]model.CommitEntry, error) {
	var entries []model.CommitEntry
	err := idx.store.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketFiles)).ForEach(func(_, v []byte) error {
			var e model.CommitEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, oxenerr.Wrap(oxenerr.Corruption, "entryindex.ListEntries", "iterating entries", err)
	}
	return entries, nil
}

// ListFiles returns every path present in the index, in lexicographic order.
func (idx *Index) ListFiles() ([]string, error) {
	var paths []string
	err := idx.store.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketFiles)).ForEach(func(k, _ []byte) error {
			paths = append(paths, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, oxenerr.Wrap(oxenerr.IoError, "entryindex.ListFiles", "iterating paths", err)
	}
	return paths, nil
}

// ListDirectory returns the entries directly or transitively under dir,
// paginated, plus the total matching count. Pagination uses stable
// lexicographic iteration order. page is 1-indexed.
func (idx *Index) ListDirectory(dir string, page, pageSize int) ([]model.CommitEntry, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	all, err := idx.ListEntries()
	if err != nil {
		return nil, 0, err
	}

	prefix := strings.TrimSuffix(dir, "/")
	var matched []model.CommitEntry
	for _, e := range all {
		if dirContains(prefix, e.Path) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Path < matched[j].Path })

	total := len(matched)
	start := (page - 1) * pageSize
	if start >= total {
		return []model.CommitEntry{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// dirContains reports whether entryPath is under prefix ("" means repo root).
func dirContains(prefix, entryPath string) bool {
	if prefix == "" || prefix == "." {
		return true
	}
	dir := path.Dir(entryPath)
	return dir == prefix || strings.HasPrefix(dir, prefix+"/")
}

// ListUnsyncedEntries returns every entry not yet marked Synced — the
// observable side of "transferred to a remote", left for the (out-of-scope)
// remote-sync collaborator to set.
func (idx *Index) ListUnsyncedEntries() ([]model.CommitEntry, error) {
	all, err := idx.ListEntries()
	if err != nil {
		return nil, err
	}
	var unsynced []model.CommitEntry
	for _, e := range all {
		if !e.Synced {
			unsynced = append(unsynced, e)
		}
	}
	return unsynced, nil
}
