//go:build !windows

package proc

import (
	"errors"
	"fmt"
	"syscall"
)

// Killer evicts stale dev-server processes. It implements the launcher's
// ProcessKiller capability.
type Killer struct{}

// NewKiller creates a new Killer instance.
func NewKiller() *Killer {
	return &Killer{}
}

// Kill sends SIGKILL to the process. SIGKILL cannot be caught or ignored —
// the target is always a prior instance of the same dev server, which holds
// no durable state worth a graceful shutdown.
//
// ESRCH (no such process) is treated as success: the process exited between
// the port probe and the kill, and the desired end state — port free — is
// already reached. Permission failures are returned to the caller.
func (k *Killer) Kill(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to kill pid %d", pid)
	}
	err := syscall.Kill(pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return fmt.Errorf("kill pid %d: %w", pid, err)
}
