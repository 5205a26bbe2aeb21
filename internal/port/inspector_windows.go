//go:build windows

package port

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// listListeners probes the port with netstat, which ships with Windows and
// includes owning PIDs when given -o. Unlike lsof, netstat exits 0 even
// when nothing matches, so any non-zero status is a real probe failure.
func listListeners(ctx context.Context, port int) ([]int, error) {
	cmd := exec.CommandContext(ctx, "netstat", "-ano", "-p", "tcp")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("netstat failed: %s", bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, fmt.Errorf("netstat failed: %w", err)
	}

	return parseNetstatListeners(stdout.String(), port), nil
}
