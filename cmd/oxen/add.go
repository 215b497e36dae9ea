package main

import (
	"fmt"
	"os"

	"github.com/oxfs/oxen/internal/store/repo"
)

func runAdd(r *repo.Repository, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "fatal: nothing specified, nothing added")
		return 1
	}

	for _, p := range args {
		info, err := os.Stat(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return 128
		}
		rel, err := relToRoot(r, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return 128
		}
		if info.IsDir() {
			err = r.Staging.AddDir(rel)
		} else {
			err = r.Staging.AddFile(rel)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return 128
		}
	}
	return 0
}

func runRm(r *repo.Repository, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "fatal: nothing specified, nothing removed")
		return 1
	}

	head, err := r.HeadIndex()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	if head != nil {
		defer head.Close()
	}

	for _, p := range args {
		rel, err := relToRoot(r, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return 128
		}
		if err := r.Staging.RemoveFile(rel, head); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return 128
		}
	}
	return 0
}
