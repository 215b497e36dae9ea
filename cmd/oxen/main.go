package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/oxfs/oxen/internal/cli"
	"github.com/oxfs/oxen/internal/store/repo"
	"github.com/oxfs/oxen/internal/termcolor"
)

// Build-time variables set via -ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	initLogger()

	gf, args := parseGlobalFlags(os.Args[1:])

	// --version is handled before app.Run because "--" prefixed args
	// would be treated as unknown commands by the dispatcher.
	for _, a := range args {
		if a == "--version" {
			printVersion()
			os.Exit(0)
		}
	}

	cw := termcolor.NewWriter(os.Stdout, gf.colorMode)

	app := cli.NewApp("oxen", version)
	app.Stderr = os.Stderr

	// repo is declared here and assigned after dispatch determines that the
	// matched command needs it (NeedsRepo). Closures capture the pointer
	// variable, which is populated before they execute.
	var r *repo.Repository

	app.Register(&cli.Command{
		Name:     "init",
		Summary:  "Initialize a new repository",
		Usage:    "oxen init [<path>]",
		Examples: []string{"oxen init", "oxen init ./my-dataset"},
		Run:      func(args []string) int { return runInit(args) },
	})

	app.Register(&cli.Command{
		Name:      "add",
		Summary:   "Stage files for the next commit",
		Usage:     "oxen add <path>...",
		Examples:  []string{"oxen add data/train.csv", "oxen add ."},
		NeedsRepo: true,
		Run:       func(args []string) int { return runAdd(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "rm",
		Summary:   "Unstage or remove files from tracking",
		Usage:     "oxen rm <path>...",
		NeedsRepo: true,
		Run:       func(args []string) int { return runRm(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "status",
		Summary:   "Show the working tree status",
		Usage:     "oxen status",
		NeedsRepo: true,
		Run:       func(args []string) int { return runStatus(r, cw, args) },
	})

	app.Register(&cli.Command{
		Name:      "commit",
		Summary:   "Record staged changes as a new commit",
		Usage:     "oxen commit -m <message>",
		Examples:  []string{"oxen commit -m \"add training split\""},
		NeedsRepo: true,
		Run:       func(args []string) int { return runCommit(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "checkout",
		Summary:   "Switch the working tree to a branch or commit",
		Usage:     "oxen checkout <branch-or-commit>",
		Examples:  []string{"oxen checkout main", "oxen checkout a1b2c3d4"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runCheckout(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "branch",
		Summary:   "List or create branches",
		Usage:     "oxen branch [<name>]",
		Examples:  []string{"oxen branch", "oxen branch experiment-2"},
		NeedsRepo: true,
		Run:       func(args []string) int { return runBranch(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "log",
		Summary:   "Show commit history",
		Usage:     "oxen log [<branch-or-commit>]",
		NeedsRepo: true,
		Run:       func(args []string) int { return runLog(r, args) },
	})

	app.Register(&cli.Command{
		Name:      "config",
		Summary:   "Get or set repository configuration",
		Usage:     "oxen config --user.name <name> --user.email <email>",
		NeedsRepo: true,
		Run:       func(args []string) int { return runConfig(r, args) },
	})

	app.Register(&cli.Command{
		Name:    "version",
		Summary: "Show version information",
		Usage:   "oxen version",
		Run:     func([]string) int { printVersion(); return 0 },
	})

	// Determine which command will run so we can load the repo only when
	// needed, mirroring the teacher's dispatch-then-load sequence.
	if len(args) > 0 {
		cmd := app.Lookup(args[0])
		if cmd != nil && cmd.NeedsRepo {
			var err error
			r, err = repo.Open(".")
			if err != nil {
				fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
				os.Exit(128)
			}
		}
	}

	// os.Exit below would skip a deferred Close, and bbolt's exclusive-writer
	// lock must be released before the process ends.
	code := app.Run(args, cw)
	if r != nil {
		if err := r.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing repository: %v\n", err)
		}
	}
	os.Exit(code)
}

func printVersion() {
	fmt.Printf("oxen %s\n", version)
	fmt.Printf("  commit:     %s\n", commit)
	fmt.Printf("  built:      %s\n", buildDate)
	fmt.Printf("  go version: %s\n", runtime.Version())
	fmt.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func initLogger() {
	level := slog.LevelInfo
	switch getEnv("OXEN_LOG_LEVEL", "info") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if getEnv("OXEN_LOG_FORMAT", "text") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
