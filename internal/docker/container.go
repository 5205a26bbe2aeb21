// container.go implements the lifecycle of the one serve container blogdev
// manages per site directory: find a stale one, remove it, start a fresh
// one with the port published and the site bind-mounted, and stream its
// logs until it exits.
package docker

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"github.com/hnakamura/blogdev/internal/model"
)

// siteMountPath is where the jekyll image expects the site source.
const siteMountPath = "/srv/jekyll"

// FindManagedContainer returns the ID of the container blogdev previously
// started for this site directory, or "" when none exists. Stopped
// containers are included — a stale stopped container still owns its name
// and must be removed before a new one can be created.
func FindManagedContainer(ctx context.Context, cli *Client, siteDir string) (string, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
		filters.Arg("label", LabelSite+"="+siteDir),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return "", model.WrapCLIError(model.ExitDockerNotRunning, "failed to list Docker containers", err)
	}

	if len(containers) == 0 {
		return "", nil
	}
	// At most one container per site directory is ever created; if several
	// exist (killed mid-create on an old version), any of them is stale and
	// the caller removes by ID one at a time.
	return containers[0].ID, nil
}

// RemoveStale force-removes the previously managed container for this site
// directory, if any. This is the --docker counterpart of killing a stale
// listener process: the container holds no durable state (the site lives in
// the bind mount), so a non-graceful remove loses nothing.
//
// Returns the removed container ID, or "" when there was nothing to remove.
func RemoveStale(ctx context.Context, cli *Client, siteDir string) (string, error) {
	id, err := FindManagedContainer(ctx, cli, siteDir)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", nil
	}

	err = cli.Inner().ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to remove stale container %.12s", id), err)
	}
	return id, nil
}

// RunSite pulls the configured image, creates and starts the serve
// container, and blocks streaming its logs to out until the container
// exits. The container publishes opts.Port on opts.Host and bind-mounts
// the site directory read-write (the generator writes _site inside it).
//
// The returned int is the container's exit status, propagated unchanged
// like the native launcher does for a local generator process.
func RunSite(ctx context.Context, cli *Client, opts model.ServeOptions, out io.Writer) (int, error) {
	if err := pullImage(ctx, cli, opts.DockerImage); err != nil {
		return 0, err
	}

	containerPort, err := nat.NewPort("tcp", strconv.Itoa(opts.Port))
	if err != nil {
		return 0, fmt.Errorf("invalid port %d: %w", opts.Port, err)
	}

	// The command inside the container skips bundler: the jekyll image has
	// the generator on PATH already.
	cmd := []string{"jekyll", "serve", "--host", opts.Host, "--port", strconv.Itoa(opts.Port)}
	if opts.LiveReload {
		cmd = append(cmd, "--livereload")
	}

	cfg := &container.Config{
		Image:        opts.DockerImage,
		Cmd:          cmd,
		WorkingDir:   siteMountPath,
		Labels:       BuildLabels(opts.SiteDir, opts.Port),
		ExposedPorts: nat.PortSet{containerPort: struct{}{}},
	}

	hostCfg := &container.HostConfig{
		Binds: []string{opts.SiteDir + ":" + siteMountPath},
		PortBindings: nat.PortMap{
			containerPort: []nat.PortBinding{{
				HostIP:   opts.Host,
				HostPort: strconv.Itoa(opts.Port),
			}},
		},
	}

	name := "blogdev-" + filepath.Base(opts.SiteDir)
	created, err := cli.Inner().ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if err != nil {
		return 0, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to create serve container %q", name), err)
	}

	if err := cli.Inner().ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return 0, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to start serve container %q", name), err)
	}

	// Stream logs for the container's lifetime so the generator's build
	// output reaches the terminal just like a local run. TTY is off, so
	// the stream is multiplexed and needs stdcopy to demux.
	logs, err := cli.Inner().ContainerLogs(ctx, created.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return 0, model.WrapCLIError(model.ExitGeneralError, "failed to attach to container logs", err)
	}
	defer func() { _ = logs.Close() }()

	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, _ = stdcopy.StdCopy(out, out, logs)
	}()

	statusCh, errCh := cli.Inner().ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return 0, model.WrapCLIError(model.ExitGeneralError, "waiting for serve container failed", err)
	case status := <-statusCh:
		<-copyDone
		return int(status.StatusCode), nil
	}
}

// pullImage pulls the serve image, discarding the progress stream. The pull
// must be drained completely or the daemon may abort it.
func pullImage(ctx context.Context, cli *Client, ref string) error {
	reader, err := cli.Inner().ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to pull image %q", ref), err)
	}
	defer func() { _ = reader.Close() }()

	if _, err := io.Copy(io.Discard, reader); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to pull image %q", ref), err)
	}
	return nil
}
