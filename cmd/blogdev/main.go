// Package main is the entry point for the blogdev CLI.
//
// This binary wraps the development workflow of a Jekyll markdown blog:
// starting the dev server (evicting stale instances first), diagnosing the
// environment, and linting posts. It delegates all functionality to the
// internal/cli package, which defines cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during the release build and default to development placeholders.
package main

import (
	"github.com/hnakamura/blogdev/internal/cli"
)

// version, commit, and date are set at release build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject build-time version info into the CLI package, keeping the
	// build system decoupled from the CLI framework.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
