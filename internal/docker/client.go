package docker

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/hnakamura/blogdev/internal/model"
)

// defaultPingTimeout bounds the daemon liveness check. Docker Desktop on
// macOS can take a couple of seconds to answer its first request; 5s covers
// that without letting `serve --docker` hang when the daemon is down.
const defaultPingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client. Wrapping (rather than
// embedding) keeps the exposed surface down to what blogdev actually uses
// and gives socket auto-detection one home.
type Client struct {
	inner *client.Client
}

// NewClient creates a Docker client, honoring DOCKER_HOST when set and
// otherwise probing the platform's default socket locations. Returns a
// CLIError with ExitDockerNotRunning when no socket can be found or the
// client cannot be constructed.
func NewClient() (*Client, error) {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		detected, err := detectDockerHost()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitDockerNotRunning, "Docker socket not found", err)
		}
		host = detected
	}

	// API version negotiation keeps this working across daemon versions
	// without pinning a specific API number.
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host), err)
	}
	return &Client{inner: c}, nil
}

// detectDockerHost returns the Docker connection string for the current
// platform: the standard Unix socket on Linux, the standard socket or the
// per-user Docker Desktop socket on macOS, and the named pipe on Windows.
func detectDockerHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return detectUnixSocket([]string{"/var/run/docker.sock"})

	case "darwin":
		paths := []string{"/var/run/docker.sock"}
		if home, err := os.UserHomeDir(); err == nil {
			// Newer Docker Desktop versions only create the per-user socket.
			paths = append(paths, home+"/.docker/run/docker.sock")
		}
		return detectUnixSocket(paths)

	case "windows":
		// os.Stat does not work on named pipes, so probe with a short dial.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, time.Second)
		if err != nil {
			return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)
		}
		conn.Close()
		return "npipe://" + pipePath, nil

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// detectUnixSocket returns the host URI for the first socket path that
// exists, checked in preference order.
func detectUnixSocket(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("Docker socket not found at any of: %v — is Docker running?", paths)
}

// Ping verifies the daemon is reachable, bounded by defaultPingTimeout so
// a paused daemon fails fast instead of hanging the serve command.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			"Docker daemon is not responding — is Docker running?", err)
	}
	return nil
}

// Close releases the client's resources. Safe to call multiple times.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner exposes the underlying SDK client for operations not wrapped here.
func (c *Client) Inner() *client.Client {
	return c.inner
}
