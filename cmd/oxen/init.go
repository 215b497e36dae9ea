package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oxfs/oxen/internal/store/commitwriter"
	"github.com/oxfs/oxen/internal/store/repo"
)

func runInit(args []string) int {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	repoID := commitwriter.NewID()
	repoName := filepath.Base(abs)

	r, err := repo.Init(abs, repoID, repoName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	defer r.Close()

	fmt.Printf("Initialized empty oxen repository in %s\n", filepath.Join(abs, ".oxen"))
	return 0
}
