//go:build windows

package proc

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Killer evicts stale dev-server processes. It implements the launcher's
// ProcessKiller capability.
type Killer struct{}

// NewKiller creates a new Killer instance.
func NewKiller() *Killer {
	return &Killer{}
}

// Kill terminates the process with taskkill. /F forces termination (the
// Windows counterpart of SIGKILL); /T takes child processes with it, which
// matters because the generator spawns a live-reload watcher.
//
// taskkill reporting "not found" is treated as success: the process exited
// between the port probe and the kill.
func (k *Killer) Kill(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to kill pid %d", pid)
	}
	out, err := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).CombinedOutput()
	if err != nil {
		if strings.Contains(strings.ToLower(string(out)), "not found") {
			return nil
		}
		return fmt.Errorf("taskkill pid %d: %w: %s", pid, err, strings.TrimSpace(string(out)))
	}
	return nil
}
