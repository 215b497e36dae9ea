package main

import (
	"fmt"
	"os"

	"github.com/oxfs/oxen/internal/query"
	"github.com/oxfs/oxen/internal/store/repo"
)

func runLog(r *repo.Repository, args []string) int {
	refOrID := ""
	if len(args) > 0 {
		refOrID = args[0]
	}

	reader := query.NewReader(r.Commits, r.Refs, r.HistoryDir())
	commits, err := reader.ListCommits(refOrID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	for _, c := range commits {
		fmt.Printf("commit %s\n", c.ID)
		fmt.Printf("Author: %s\n", c.Author)
		fmt.Printf("Date:   %s\n", c.Date.Format("Mon Jan 2 15:04:05 2006 -0700"))
		fmt.Printf("\n\t%s\n\n", c.Message)
	}
	return 0
}
