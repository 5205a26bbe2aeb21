// Package cli — doctor.go implements the "blogdev doctor" command.
//
// doctor reports whether a `blogdev serve` would succeed right now: is the
// generator executable resolvable on the augmented PATH, is the configured
// port free (and if not, who holds it), and is the Docker daemon reachable
// for anyone planning to use --docker. All checks run even when an early
// one fails, so a single invocation shows the full picture.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hnakamura/blogdev/internal/config"
	"github.com/hnakamura/blogdev/internal/docker"
	"github.com/hnakamura/blogdev/internal/launcher"
	"github.com/hnakamura/blogdev/internal/model"
	"github.com/hnakamura/blogdev/internal/port"
	"github.com/hnakamura/blogdev/internal/proc"
)

// checkResult is one line of the doctor report.
type checkResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`

	// Fatal marks checks that make `serve` impossible, as opposed to
	// informational ones (Docker being down only matters for --docker).
	Fatal bool `json:"-"`
}

// NewDoctorCommand creates the "doctor" cobra command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose whether the dev server can start",
		Long: `Check the environment a serve command would run in: generator
executable on the search path, port availability (naming the PIDs of any
stale listener), and Docker daemon reachability for --docker users.

Examples:
  blogdev doctor
  blogdev doctor --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

// runDoctor resolves the configuration and runs every check.
func runDoctor(ctx context.Context) error {
	opts, err := config.Load(siteDir)
	if err != nil {
		return err
	}

	results := []checkResult{
		checkGenerator(opts),
		checkPort(ctx, opts),
		checkDocker(ctx),
	}

	printDoctorResults(opts, results)

	for _, r := range results {
		if r.Fatal && !r.OK {
			return model.NewCLIError(model.ExitToolNotFound, "environment is not ready — see report above")
		}
	}
	return nil
}

// checkGenerator verifies the server command resolves against the same
// augmented PATH the launcher would hand to it.
func checkGenerator(opts model.ServeOptions) checkResult {
	env := launcher.AugmentPath(os.Environ(), opts.ExtraPath)
	invocation := opts.Command + " " + strings.Join(launcher.ServeArgs(opts), " ")

	resolved, err := proc.LookTool(opts.Command, env)
	if err != nil {
		return checkResult{
			Name:   "generator",
			OK:     false,
			Detail: fmt.Sprintf("%s not found on the search path (would run: %s)", opts.Command, invocation),
			Fatal:  true,
		}
	}
	return checkResult{
		Name:   "generator",
		OK:     true,
		Detail: fmt.Sprintf("%s (would run: %s)", resolved, invocation),
		Fatal:  true,
	}
}

// checkPort reports whether the configured port is free, naming the stale
// listeners when it is not. A held port is not fatal — serve evicts the
// holder — but the operator should know who is about to be killed.
func checkPort(ctx context.Context, opts model.ServeOptions) checkResult {
	if port.NewScanner().IsPortAvailable(opts.Port) {
		return checkResult{
			Name:   "port",
			OK:     true,
			Detail: fmt.Sprintf("port %d is free", opts.Port),
		}
	}

	pids, err := port.NewInspector().ListListeners(ctx, opts.Port)
	if err != nil {
		return checkResult{
			Name:   "port",
			OK:     false,
			Detail: fmt.Sprintf("port %d is in use and the listener probe failed: %v", opts.Port, err),
		}
	}
	return checkResult{
		Name:   "port",
		OK:     false,
		Detail: fmt.Sprintf("port %d is held by pids %v (serve would kill them)", opts.Port, pids),
	}
}

// checkDocker reports daemon reachability. Informational only: a machine
// without Docker serves natively just fine.
func checkDocker(ctx context.Context) checkResult {
	cli, err := docker.NewClient()
	if err != nil {
		return checkResult{Name: "docker", OK: false, Detail: "Docker not available (only needed for --docker)"}
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return checkResult{Name: "docker", OK: false, Detail: "Docker daemon not responding (only needed for --docker)"}
	}
	return checkResult{Name: "docker", OK: true, Detail: "Docker daemon reachable"}
}

// printDoctorResults outputs the report in text or JSON format.
func printDoctorResults(opts model.ServeOptions, results []checkResult) {
	if IsJSONOutput() {
		report := struct {
			SiteDir string        `json:"siteDir"`
			Port    int           `json:"port"`
			Checks  []checkResult `json:"checks"`
		}{opts.SiteDir, opts.Port, results}

		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Site: %s (port %d)\n\n", opts.SiteDir, opts.Port)
	for _, r := range results {
		mark := "ok"
		if !r.OK {
			mark = "!!"
		}
		fmt.Printf("  [%s] %-9s %s\n", mark, r.Name, r.Detail)
	}
}
