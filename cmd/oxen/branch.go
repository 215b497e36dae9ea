package main

import (
	"fmt"
	"os"

	"github.com/oxfs/oxen/internal/progress"
	"github.com/oxfs/oxen/internal/query"
	"github.com/oxfs/oxen/internal/store/repo"
)

func runBranch(r *repo.Repository, args []string) int {
	if len(args) > 0 {
		return createBranch(r, args[0])
	}

	reader := query.NewReader(r.Commits, r.Refs, r.HistoryDir())
	branches, err := reader.ListBranches()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	for _, b := range branches {
		marker := "  "
		if b.IsHead {
			marker = "* "
		}
		fmt.Printf("%s%s\n", marker, b.Name)
	}
	return 0
}

func createBranch(r *repo.Repository, name string) int {
	progress.Section("Creating branch " + name)

	headID, err := r.Refs.HeadCommitID()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	if _, err := r.Refs.CreateBranch(name, headID); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	return 0
}
