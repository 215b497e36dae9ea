// Package hash computes the 128-bit content hashes used throughout the
// engine to identify object store blobs and detect modified working-tree
// files. It mirrors the original Rust implementation's hasher module, which
// hashes with xxh3_128 and renders the digest as lower-case hex.
package hash

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"

	"github.com/oxfs/oxen/internal/store/model"
)

// Hash is a 128-bit content digest, hex-encoded.
type Hash string

// formatU128 renders a 128-bit value as lower-case hex without leading
// zeros, matching Rust's `format!("{val:x}")` on a u128 (the original
// hasher.rs's digest format): the high word is omitted entirely when zero,
// and otherwise printed unpadded with the low word zero-padded to 16 digits.
func formatU128(sum xxh3.Uint128) string {
	if sum.Hi == 0 {
		return fmt.Sprintf("%x", sum.Lo)
	}
	return fmt.Sprintf("%x%016x", sum.Hi, sum.Lo)
}

// Buffer hashes an in-memory byte slice.
func Buffer(data []byte) Hash {
	sum := xxh3.Hash128(data)
	return Hash(formatU128(sum))
}

// String hashes a UTF-8 string, used for path-derived and metadata hashes.
func String(s string) Hash {
	return Buffer([]byte(s))
}

// File streams the content of the file at path through xxh3 without loading
// it entirely into memory, so large dataset files hash in bounded memory.
func File(path string) (Hash, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is caller-controlled, see repo boundary checks
	if err != nil {
		return "", errors.Wrapf(err, "hash.File: opening %s", path)
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, bufio.NewReader(f)); err != nil {
		return "", errors.Wrapf(err, "hash.File: reading %s", path)
	}
	sum := h.Sum128()
	return Hash(formatU128(sum)), nil
}

// Reader streams r through xxh3; useful for hashing content that is not
// backed by a plain file (e.g. a version-store copy-in-progress reader).
func Reader(r io.Reader) (Hash, error) {
	h := xxh3.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", errors.Wrap(err, "hash.Reader: reading")
	}
	sum := h.Sum128()
	return Hash(formatU128(sum)), nil
}

// CommitContentHash computes the informational, non-identity hash named in
// §6: a streaming xxh3 over every entry hash (sorted for determinism,
// concatenated) followed by a debug rendering of the commit's own metadata.
// It is never used to identify a commit, only as a sync/cache key.
func CommitContentHash(commit model.Commit, entryHashes []string) Hash {
	sorted := append([]string(nil), entryHashes...)
	sort.Strings(sorted)

	h := xxh3.New()
	for _, eh := range sorted {
		_, _ = io.WriteString(h, eh)
	}
	_, _ = fmt.Fprintf(h, "%+v", commit)

	sum := h.Sum128()
	return Hash(formatU128(sum))
}
