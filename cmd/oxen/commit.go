package main

import (
	"fmt"
	"os"

	"github.com/oxfs/oxen/internal/progress"
	"github.com/oxfs/oxen/internal/store/repo"
)

func runCommit(r *repo.Repository, args []string) int {
	var message string
	for i := 0; i < len(args); i++ {
		if args[i] == "-m" || args[i] == "--message" {
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "fatal: -m requires a message")
				return 1
			}
			message = args[i+1]
			i++
		}
	}
	if message == "" {
		fmt.Fprintln(os.Stderr, "fatal: no commit message given, use -m \"<message>\"")
		return 1
	}

	spinner := progress.NewSpinner("committing")
	spinner.Start()
	commit, err := r.Commit(message, spinner)
	spinner.Finish()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	fmt.Printf("[%s] %s\n", shortID(commit.ID), commit.Message)
	return 0
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}
