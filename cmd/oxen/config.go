package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/oxfs/oxen/internal/store/repo"
)

func runConfig(r *repo.Repository, args []string) int {
	changed := false
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "--user.name="):
			r.Config.User.Name = strings.TrimPrefix(a, "--user.name=")
			changed = true
		case strings.HasPrefix(a, "--user.email="):
			r.Config.User.Email = strings.TrimPrefix(a, "--user.email=")
			changed = true
		}
	}

	if changed {
		if err := r.SaveConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return 128
		}
		return 0
	}

	fmt.Printf("user.name=%s\n", r.Config.User.Name)
	fmt.Printf("user.email=%s\n", r.Config.User.Email)
	return 0
}
