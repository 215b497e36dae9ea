package main

import (
	"path/filepath"

	"github.com/oxfs/oxen/internal/store/repo"
)

// relToRoot converts a CLI-supplied path (relative to the current working
// directory) into the slash-separated, repository-root-relative form the
// store layer expects.
func relToRoot(r *repo.Repository, p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.Root(), abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
