package port

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Inspector discovers the PIDs of processes listening on a TCP port.
// It implements the launcher's PortInspector capability.
//
// The platform-specific probe command lives in inspector_unix.go /
// inspector_windows.go (build-tagged); the output parsing is kept here so
// it is testable on every platform.
type Inspector struct{}

// NewInspector creates a new Inspector instance.
func NewInspector() *Inspector {
	return &Inspector{}
}

// ListListeners returns the PIDs currently listening on the given TCP port.
// An empty slice with a nil error means the port is free — the common case,
// never treated as a failure. A non-nil error means the probe itself could
// not run (probe tool missing, permission denied) and the caller must not
// assume anything about the port's state.
func (i *Inspector) ListListeners(ctx context.Context, port int) ([]int, error) {
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("port %d out of range (1-65535)", port)
	}
	return listListeners(ctx, port)
}

// parsePIDLines parses newline-separated PID output (the `lsof -t` format)
// into a sorted, deduplicated slice. Blank lines are skipped; anything
// non-numeric is an error because it indicates the probe tool printed a
// diagnostic we would otherwise silently misread.
func parsePIDLines(output string) ([]int, error) {
	seen := make(map[int]bool)
	var pids []int
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("unexpected probe output line %q", line)
		}
		if !seen[pid] {
			seen[pid] = true
			pids = append(pids, pid)
		}
	}
	sort.Ints(pids)
	return pids, nil
}

// parseNetstatListeners extracts listener PIDs for a port from
// `netstat -ano -p tcp` output. Lines look like:
//
//	TCP    0.0.0.0:4000           0.0.0.0:0              LISTENING       1234
//
// Only LISTENING rows whose local address ends in ":port" are considered.
// Malformed rows are skipped rather than failing the probe — netstat mixes
// headers and banner text into its output.
func parseNetstatListeners(output string, port int) []int {
	suffix := ":" + strconv.Itoa(port)
	seen := make(map[int]bool)
	var pids []int

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		// Proto, Local, Foreign, State, PID.
		if len(fields) < 5 || !strings.EqualFold(fields[0], "tcp") {
			continue
		}
		if !strings.HasSuffix(fields[1], suffix) {
			continue
		}
		if !strings.EqualFold(fields[3], "LISTENING") {
			continue
		}
		pid, err := strconv.Atoi(fields[4])
		if err != nil || pid <= 0 {
			continue
		}
		if !seen[pid] {
			seen[pid] = true
			pids = append(pids, pid)
		}
	}
	sort.Ints(pids)
	return pids
}
