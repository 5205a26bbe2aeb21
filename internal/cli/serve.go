// Package cli — serve.go implements the "blogdev serve" command.
//
// serve is the dev-server launcher: it evicts any stale process still
// holding the configured port, waits briefly for the OS to release it,
// extends PATH so the generator toolchain is found, and then blocks inside
// the generator until it exits or is interrupted. With --docker the same
// semantics run against a container instead of a local process.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hnakamura/blogdev/internal/config"
	"github.com/hnakamura/blogdev/internal/docker"
	"github.com/hnakamura/blogdev/internal/launcher"
	"github.com/hnakamura/blogdev/internal/model"
	"github.com/hnakamura/blogdev/internal/port"
	"github.com/hnakamura/blogdev/internal/proc"
)

// NewServeCommand creates the "serve" cobra command.
func NewServeCommand() *cobra.Command {
	var (
		useDocker    bool
		portOverride int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dev server, evicting any stale instance first",
		Long: `Start the site generator's development server with live reload.

Before starting, any process still listening on the configured port is
force-killed (it is always a leftover dev server with nothing worth
saving) and the launcher waits a short settle delay so the OS releases
the port. The command then blocks until the server exits or is
interrupted.

Examples:
  blogdev serve
  blogdev serve --port 4100
  blogdev serve --docker`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), useDocker, portOverride)
		},
	}

	cmd.Flags().BoolVar(&useDocker, "docker", false, "Run the generator in a Docker container")
	cmd.Flags().IntVar(&portOverride, "port", 0, "Override the configured port")

	return cmd
}

// runServe resolves configuration and dispatches to the native or Docker
// serve path.
func runServe(ctx context.Context, useDocker bool, portOverride int) error {
	opts, err := config.Load(siteDir)
	if err != nil {
		return err
	}
	if portOverride != 0 {
		opts.Port = portOverride
	}

	VerboseLog("serving %s on %s:%d (livereload=%v)", opts.SiteDir, opts.Host, opts.Port, opts.LiveReload)

	if useDocker {
		return runServeDocker(ctx, opts)
	}
	return runServeNative(ctx, opts)
}

// runServeNative performs the launcher sequence against the local process
// table and blocks inside the generator.
func runServeNative(ctx context.Context, opts model.ServeOptions) error {
	l := launcher.New(
		port.NewInspector(),
		proc.NewKiller(),
		launcher.SystemSleeper{},
		proc.NewRunner(),
		VerboseLog,
	)

	code, err := l.Launch(ctx, opts, os.Environ())
	if err != nil {
		return err
	}
	return exitLikeServer(code)
}

// runServeDocker is the containerized path: the stale-owner eviction is
// expressed as removing the previously managed container, and the handoff
// is a blocking container run with logs streamed to the terminal.
func runServeDocker(ctx context.Context, opts model.ServeOptions) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("connected to Docker daemon")

	removed, err := docker.RemoveStale(ctx, cli, opts.SiteDir)
	if err != nil {
		return err
	}
	if removed != "" {
		VerboseLog("removed stale serve container %.12s", removed)
	}

	code, err := docker.RunSite(ctx, cli, opts, os.Stdout)
	if err != nil {
		return err
	}
	return exitLikeServer(code)
}

// exitLikeServer propagates the external server's exit status unchanged.
// The generator's own exit codes are its contract; this tool does not
// interpret them, it just forwards them to the invoking shell.
func exitLikeServer(code int) error {
	if code == 0 {
		return nil
	}
	return model.NewCLIError(model.ExitCode(code),
		fmt.Sprintf("site generator exited with status %d", code))
}
