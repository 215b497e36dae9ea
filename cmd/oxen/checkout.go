package main

import (
	"fmt"
	"os"

	"github.com/oxfs/oxen/internal/progress"
	"github.com/oxfs/oxen/internal/store/repo"
)

func runCheckout(r *repo.Repository, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "fatal: missing branch or commit argument")
		return 1
	}

	spinner := progress.NewSpinner("checking out " + args[0])
	spinner.Start()
	err := r.Checkout(args[0], spinner)
	spinner.Finish()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	fmt.Printf("Switched to %s\n", args[0])
	return 0
}
