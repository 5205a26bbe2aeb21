//go:build !windows

package port

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// listListeners probes the port with lsof, the same tool the historical
// shell bootstrap used (`lsof -ti:4000 | xargs kill -9`), but with the
// exit-status handling that one-liner skipped.
//
// lsof exit statuses:
//   - 0 with PID lines: listeners found
//   - 1 with empty output: no listener — the common case, not an error
//   - 1 with stderr output, or any other status: the probe itself failed
//     (permission denied, bad arguments) and must be surfaced
func listListeners(ctx context.Context, port int) ([]int, error) {
	if _, err := exec.LookPath("lsof"); err != nil {
		return nil, fmt.Errorf("lsof not found on PATH (required to probe port %d): %w", port, err)
	}

	// -t: terse PID-only output. -sTCP:LISTEN restricts to listeners so an
	// established client connection to the port is never mistaken for a
	// stale server.
	cmd := exec.CommandContext(ctx, "lsof", "-t", "-i", fmt.Sprintf("tcp:%d", port), "-sTCP:LISTEN")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && stderr.Len() == 0 {
			// Exit 1 with nothing on stderr is lsof's way of saying
			// "no matching socket".
			return nil, nil
		}
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("lsof failed: %s", bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, fmt.Errorf("lsof failed: %w", err)
	}

	return parsePIDLines(stdout.String())
}
