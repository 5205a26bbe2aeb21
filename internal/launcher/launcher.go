// Package launcher implements the dev-server bootstrap sequence:
// probe the configured port for stale listeners, force-kill them, wait a
// settle delay for the OS to release the port, augment PATH, and hand off
// to the external site generator, blocking until it exits.
//
// The sequence is deliberately linear — one conditional (skip kill+delay
// when the port has no listener), no retries, no state machine. All contact
// with the OS goes through small injected capabilities so the ordering
// logic is unit-testable without a real network stack or process table.
package launcher

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hnakamura/blogdev/internal/model"
)

// PortInspector reports which processes currently hold a TCP port in the
// LISTEN state. An empty result is the common case and is not an error;
// inspectors return errors only when the probe itself fails (probe tool
// missing, permission denied).
type PortInspector interface {
	ListListeners(ctx context.Context, port int) ([]int, error)
}

// ProcessKiller delivers a non-catchable kill to a process. The target is
// always assumed to be a prior dev-server instance with no durable state
// worth a graceful shutdown.
type ProcessKiller interface {
	Kill(pid int) error
}

// Sleeper abstracts time.Sleep so tests can assert the settle delay was
// requested without actually waiting.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Runner resolves and executes the external server command, blocking until
// it exits. It returns the command's exit status; an error is reserved for
// failures to start at all (most importantly: executable not found).
type Runner interface {
	Run(ctx context.Context, name string, args []string, env []string) (int, error)
}

// SystemSleeper is the production Sleeper backed by time.Sleep.
type SystemSleeper struct{}

// Sleep blocks the calling goroutine for the given duration.
func (SystemSleeper) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Launcher wires the four capabilities together and executes the bootstrap
// sequence. Construct with New; the zero value is not usable.
type Launcher struct {
	inspector PortInspector
	killer    ProcessKiller
	sleeper   Sleeper
	runner    Runner

	// logf receives verbose trace lines (e.g. "killing stale listener").
	// Never nil — New substitutes a no-op when the caller passes nil.
	logf func(format string, args ...any)

	// selfPID guards against the degenerate case where the probe reports
	// the launcher's own process (some probe tools include the caller when
	// it briefly opens sockets). Defaults to os.Getpid().
	selfPID int
}

// New creates a Launcher from its capabilities. logf may be nil to discard
// trace output.
func New(inspector PortInspector, killer ProcessKiller, sleeper Sleeper, runner Runner, logf func(format string, args ...any)) *Launcher {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Launcher{
		inspector: inspector,
		killer:    killer,
		sleeper:   sleeper,
		runner:    runner,
		logf:      logf,
		selfPID:   os.Getpid(),
	}
}

// Launch runs the full bootstrap sequence and blocks until the external
// server exits. environ is the starting environment (normally os.Environ());
// PATH inside it is augmented with opts.ExtraPath before the handoff.
//
// The returned int is the external server's exit status, propagated
// unchanged. A non-nil error means the sequence failed before or during
// the handoff:
//   - probe failures are fatal and abort before any kill is attempted
//     (a stale process left alive would make the later bind fail anyway,
//     so continuing silently would only defer the error)
//   - kill failures are tolerated with a trace log: the usual causes are
//     an already-exited race, where the desired end state (port free) is
//     reached regardless
//   - an unresolvable server executable surfaces as a tool-not-found error
//     naming the command
func (l *Launcher) Launch(ctx context.Context, opts model.ServeOptions, environ []string) (int, error) {
	if err := opts.Validate(); err != nil {
		return 0, model.WrapCLIError(model.ExitConfigError, "invalid serve configuration", err)
	}

	// Step 1: Port probe. No listener is the common case, not an error.
	pids, err := l.inspector.ListListeners(ctx, opts.Port)
	if err != nil {
		return 0, model.WrapCLIError(model.ExitPortProbeFailed,
			fmt.Sprintf("failed to probe port %d for stale listeners", opts.Port), err)
	}

	// Step 2+3: Evict every stale listener, then give the OS a moment
	// to release the port before rebinding. Both steps are skipped
	// entirely when the port is already free.
	if len(pids) > 0 {
		for _, pid := range pids {
			if pid == l.selfPID {
				// Never kill ourselves, whatever the probe claims.
				continue
			}
			l.logf("killing stale listener pid %d on port %d", pid, opts.Port)
			if killErr := l.killer.Kill(pid); killErr != nil {
				// Tolerated: the process may have exited between probe and
				// kill, and the port is then free anyway. If the kill failed
				// for a permission reason the subsequent bind will fail with
				// a clear address-in-use error from the generator.
				l.logf("could not kill pid %d: %v (continuing)", pid, killErr)
			}
		}

		l.logf("waiting %s for port %d to settle", opts.SettleDelay, opts.Port)
		l.sleeper.Sleep(opts.SettleDelay)
	}

	// Step 4: Environment augmentation. Existing entries are preserved in
	// order; extras are appended.
	env := AugmentPath(environ, opts.ExtraPath)

	// Step 5: Hand off to the external server. This blocks for the rest of
	// the launcher's lifetime; interrupts go to the whole process group and
	// are the generator's problem, not ours.
	args := ServeArgs(opts)
	l.logf("exec: %s %s", opts.Command, strings.Join(args, " "))
	return l.runner.Run(ctx, opts.Command, args, env)
}

// ServeArgs builds the fixed argument list for the server handoff: the
// configured leading args plus --host, --port, and (when enabled)
// --livereload. Exposed for the doctor command, which prints the exact
// invocation it would run.
func ServeArgs(opts model.ServeOptions) []string {
	args := append([]string(nil), opts.Args...)
	args = append(args, "--host", opts.Host, "--port", strconv.Itoa(opts.Port))
	if opts.LiveReload {
		args = append(args, "--livereload")
	}
	return args
}

// AugmentPath returns a copy of environ with the PATH variable extended by
// the given extra directories. The augmentation is strictly additive:
// all pre-existing PATH entries keep their order, nothing is deduplicated
// away, and an extra entry already present verbatim is not appended twice.
// All other variables pass through untouched. When environ has no PATH at
// all, one is created from the extras.
func AugmentPath(environ []string, extra []string) []string {
	if len(extra) == 0 {
		return append([]string(nil), environ...)
	}

	out := make([]string, 0, len(environ)+1)
	found := false
	for _, kv := range environ {
		if !found && strings.HasPrefix(kv, "PATH=") {
			found = true
			out = append(out, "PATH="+extendPathList(strings.TrimPrefix(kv, "PATH="), extra))
			continue
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "PATH="+strings.Join(extra, string(os.PathListSeparator)))
	}
	return out
}

// extendPathList appends each extra directory to a PATH-style list unless
// it is already present as an exact entry.
func extendPathList(current string, extra []string) string {
	sep := string(os.PathListSeparator)
	existing := strings.Split(current, sep)

	entries := append([]string(nil), existing...)
	for _, dir := range extra {
		if dir == "" {
			continue
		}
		present := false
		for _, e := range existing {
			if e == dir {
				present = true
				break
			}
		}
		if !present {
			entries = append(entries, dir)
		}
	}
	return strings.Join(entries, sep)
}
