// Package cli implements the cobra-based commands for blogdev.
//
// Each subcommand (serve, doctor, posts) is defined in its own file within
// this package. This file defines the root command, the global flags, and
// the error-to-exit-code translation.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hnakamura/blogdev/internal/model"
)

// Global flag variables bound to cobra persistent flags on the root
// command, making them available to every subcommand.
var (
	// jsonOutput switches command output to structured JSON for machine
	// consumption. Errors also switch format, but stay on stderr.
	jsonOutput bool

	// verbose enables trace output on stderr describing each step the
	// launcher takes (probe, kill, settle, exec).
	verbose bool

	// siteDir is the blog checkout to operate on. Defaults to the current
	// directory, which is where the tool is normally invoked from.
	siteDir string
)

// Version, Commit, and Date are injected from the main package, which gets
// them from ldflags at release build time.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command. The root
// itself performs no action — functionality lives in the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blogdev",
		Short: "Development workflow tool for a Jekyll markdown blog",
		Long: `blogdev wraps the day-to-day workflow of a Jekyll blog checkout.

The serve command replaces the usual restart dance: it evicts whatever
stale dev server still holds the port, waits for the OS to release it,
and hands off to the generator with live-reload enabled. The posts
commands lint the markdown sources before the generator ever sees them.`,

		// We format errors ourselves (text or JSON), so cobra's automatic
		// usage/error printing is disabled.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&siteDir, "dir", "C", ".", "Site directory to operate on")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewDoctorCommand())
	rootCmd.AddCommand(NewPostsCommand())

	return rootCmd
}

// Execute runs the root command and translates errors into OS exit codes.
// CLIError values carry their own codes; anything else exits 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error in the format selected by --json. Errors go
// to stderr in both modes; stdout is reserved for successful output.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
