package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/oxfs/oxen/internal/store/repo"
	"github.com/oxfs/oxen/internal/termcolor"
)

func runStatus(r *repo.Repository, cw *termcolor.Writer, args []string) int {
	status, err := r.Status()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	branch, err := r.Refs.CurrentBranch()
	if err == nil {
		fmt.Printf("On branch %s\n", branch.Name)
	} else {
		head, herr := r.Refs.ReadHeadRef()
		if herr == nil {
			fmt.Printf("HEAD detached at %s\n", head)
		}
	}

	if status.IsEmpty() {
		fmt.Println("nothing to commit, working tree clean")
		return 0
	}

	if len(status.AddedFiles) > 0 {
		fmt.Println("Changes to be committed:")
		keys := make([]string, 0, len(status.AddedFiles))
		for p := range status.AddedFiles {
			keys = append(keys, p)
		}
		sort.Strings(keys)
		for _, p := range keys {
			fmt.Printf("\tnew file:   %s\n", p)
		}
		fmt.Println()
	}
	if len(status.RemovedFiles) > 0 {
		fmt.Println("Changes to be committed:")
		for _, p := range sortedKeys(status.RemovedFiles) {
			fmt.Printf("\tdeleted:    %s\n", p)
		}
		fmt.Println()
	}
	if len(status.ModifiedFiles) > 0 {
		fmt.Println("Changes not staged for commit:")
		for _, p := range sortedKeys(status.ModifiedFiles) {
			fmt.Printf("\tmodified:   %s\n", p)
		}
		fmt.Println()
	}
	if len(status.UntrackedFiles) > 0 {
		fmt.Println("Untracked files:")
		for _, p := range sortedKeys(status.UntrackedFiles) {
			fmt.Printf("\t%s\n", p)
		}
		fmt.Println()
	}

	return 0
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
