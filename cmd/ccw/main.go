package main

import (
	"fmt"
	"os"

	app "github.com/valter-silva-au/cc-workspace/internal"
	"github.com/valter-silva-au/cc-workspace/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: locating home directory: %v\n", err)
		os.Exit(1)
	}
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: resolving working directory: %v\n", err)
		os.Exit(1)
	}

	a, err := app.NewApp(app.Options{Home: home, Cwd: cwd, Verbose: app.VerboseRequested(os.Args[1:])})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing ccw: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	_ = a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
