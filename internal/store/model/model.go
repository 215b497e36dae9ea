// Package model defines the on-disk record types shared by every store
// package: Commit, Branch, CommitEntry, DirStat and the staging-area diff
// types. All records are JSON-serialized with UTF-8 encoding per the
// on-disk layout.
package model

import (
	"path"
	"time"
)

// Commit is an immutable snapshot record. ParentID is empty only for the
// repository's initial commit.
type Commit struct {
	ID       string    `json:"id"`
	ParentID string    `json:"parent_id,omitempty"`
	Message  string    `json:"message"`
	Author   string    `json:"author"`
	Date     time.Time `json:"date"`
}

// IsInitial reports whether c has no parent.
func (c Commit) IsInitial() bool { return c.ParentID == "" }

// Branch is a named, mutable pointer to a commit tip.
type Branch struct {
	Name     string `json:"name"`
	CommitID string `json:"commit_id"`
	// IsHead is computed at list time, never persisted.
	IsHead bool `json:"is_head"`
}

// CommitEntry records one path's content within one commit. ID is stable
// across edits to the same logical path; Path uses '/' separators relative
// to the repository root.
type CommitEntry struct {
	ID                      string `json:"id"`
	Path                    string `json:"path"`
	Hash                    string `json:"hash"`
	CommitID                string `json:"commit_id"`
	Extension               string `json:"extension"`
	NumBytes                int64  `json:"num_bytes"`
	LastModifiedSeconds     int64  `json:"last_modified_seconds"`
	LastModifiedNanoseconds int64  `json:"last_modified_nanoseconds"`
	// Synced marks whether the blob has been transferred to a remote. The
	// core never sets this to true itself; it exists so list_unsynced_entries
	// is observable for the (out-of-scope) remote-sync collaborator.
	Synced bool `json:"synced"`
}

// Filename returns the blob's file name within its versions/<id>/ directory:
// "<commit_id>.<ext>", or bare "<commit_id>" when there is no extension.
func (e CommitEntry) Filename() string {
	return FilenameForCommit(e.CommitID, e.Extension)
}

// FilenameFromCommitID returns the blob file name this entry would have had
// if it originated from commitID, holding the extension fixed. Used when
// walking historical versions of one logical file.
func (e CommitEntry) FilenameFromCommitID(commitID string) string {
	return FilenameForCommit(commitID, e.Extension)
}

// FilenameForCommit builds a blob file name from a commit id and extension.
func FilenameForCommit(commitID, extension string) string {
	if extension == "" {
		return commitID
	}
	return commitID + "." + extension
}

// ExtensionOf returns the extension (without the leading dot) used to name
// a blob file for p, mirroring filepath.Ext semantics.
func ExtensionOf(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return ""
	}
	return ext[1:]
}

// DataType is a coarse classification of a file's content, used by DirStat
// and RepoStats to bucket storage by kind of data.
type DataType string

const (
	DataTypeImage   DataType = "image"
	DataTypeText    DataType = "text"
	DataTypeTabular DataType = "tabular"
	DataTypeVideo   DataType = "video"
	DataTypeAudio   DataType = "audio"
	DataTypeBinary  DataType = "binary"
)

// DataTypeOf classifies a path by its extension. Unknown extensions are
// classified as DataTypeBinary.
func DataTypeOf(p string) DataType {
	switch ExtensionOf(p) {
	case "png", "jpg", "jpeg", "gif", "bmp", "webp", "tiff":
		return DataTypeImage
	case "txt", "md", "json", "yaml", "yml", "toml", "xml", "log":
		return DataTypeText
	case "csv", "tsv", "parquet", "arrow":
		return DataTypeTabular
	case "mp4", "mov", "avi", "mkv", "webm":
		return DataTypeVideo
	case "mp3", "wav", "flac", "ogg":
		return DataTypeAudio
	default:
		return DataTypeBinary
	}
}

// DataTypeStat aggregates storage for one DataType within a directory.
type DataTypeStat struct {
	DataType  DataType `json:"data_type"`
	DataSize  int64    `json:"data_size"`
	FileCount int      `json:"file_count"`
}

// DirStat is the per-directory aggregate stored in the entry index.
type DirStat struct {
	Path      string                     `json:"path"`
	FileCount int                        `json:"file_count"`
	DataSize  int64                      `json:"data_size"`
	DataTypes map[DataType]DataTypeStat  `json:"data_types"`
}

// NewDirStat returns an empty DirStat rooted at dir.
func NewDirStat(dir string) DirStat {
	return DirStat{Path: dir, DataTypes: make(map[DataType]DataTypeStat)}
}

// Add folds one entry's size and data type into the aggregate.
func (d *DirStat) Add(e CommitEntry) {
	d.FileCount++
	d.DataSize += e.NumBytes
	dt := DataTypeOf(e.Path)
	stat := d.DataTypes[dt]
	stat.DataType = dt
	stat.DataSize += e.NumBytes
	stat.FileCount++
	d.DataTypes[dt] = stat
}

// RepoStats is the repository-wide rollup of every DirStat, exposed through
// the read-only query boundary.
type RepoStats struct {
	DataSize  int64                     `json:"data_size"`
	DataTypes map[DataType]DataTypeStat `json:"data_types"`
}

// StagedEntry is the transient staging-area record for one added/modified
// path, persisted until the next commit or an explicit unstage.
type StagedEntry struct {
	Path     string `json:"path"`
	SrcPath  string `json:"src_path"`
	Modified bool   `json:"modified"`
}

// StagedData is the working-set diff computed by the staging area's Status
// operation.
type StagedData struct {
	AddedFiles     map[string]StagedEntry `json:"added_files"`
	AddedDirs      map[string]int         `json:"added_dirs"`
	ModifiedFiles  map[string]struct{}    `json:"modified_files"`
	RemovedFiles   map[string]struct{}    `json:"removed_files"`
	UntrackedFiles map[string]struct{}    `json:"untracked_files"`
	UntrackedDirs  map[string]int         `json:"untracked_dirs"`
}

// NewStagedData returns a StagedData with all maps initialized and empty.
func NewStagedData() StagedData {
	return StagedData{
		AddedFiles:     make(map[string]StagedEntry),
		AddedDirs:      make(map[string]int),
		ModifiedFiles:  make(map[string]struct{}),
		RemovedFiles:   make(map[string]struct{}),
		UntrackedFiles: make(map[string]struct{}),
		UntrackedDirs:  make(map[string]int),
	}
}

// IsEmpty reports whether there is nothing staged or detected as changed.
func (s StagedData) IsEmpty() bool {
	return len(s.AddedFiles) == 0 && len(s.ModifiedFiles) == 0 &&
		len(s.RemovedFiles) == 0 && len(s.UntrackedFiles) == 0
}

// Schema is a placeholder record for the external tabular-schema-inference
// collaborator; the core only reserves and reads this bucket, it never
// writes to it.
type Schema struct {
	Hash   string            `json:"hash"`
	Fields map[string]string `json:"fields"`
}
