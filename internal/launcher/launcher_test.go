package launcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnakamura/blogdev/internal/model"
)

// recorder collects an ordered event log shared by all fake capabilities,
// so tests can assert the exact bootstrap sequence (probe → kill → sleep →
// run) and not just that each step happened.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

// fakeInspector returns a canned PID list (or error) and records the probe.
type fakeInspector struct {
	rec  *recorder
	pids []int
	err  error
}

func (f *fakeInspector) ListListeners(_ context.Context, port int) ([]int, error) {
	f.rec.add("probe:%d", port)
	return f.pids, f.err
}

// fakeKiller records every kill and can fail for selected PIDs.
type fakeKiller struct {
	rec    *recorder
	failOn map[int]error
	killed []int
}

func (f *fakeKiller) Kill(pid int) error {
	f.rec.add("kill:%d", pid)
	f.killed = append(f.killed, pid)
	if err, ok := f.failOn[pid]; ok {
		return err
	}
	return nil
}

// fakeSleeper records requested delays without waiting.
type fakeSleeper struct {
	rec   *recorder
	slept []time.Duration
}

func (f *fakeSleeper) Sleep(d time.Duration) {
	f.rec.add("sleep:%s", d)
	f.slept = append(f.slept, d)
}

// fakeRunner records the handoff and returns a canned exit status.
type fakeRunner struct {
	rec  *recorder
	code int
	err  error

	name string
	args []string
	env  []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, env []string) (int, error) {
	f.rec.add("run:%s", name)
	f.name = name
	f.args = args
	f.env = env
	return f.code, f.err
}

// harness bundles the fakes and a wired Launcher for one test case.
type harness struct {
	rec       *recorder
	inspector *fakeInspector
	killer    *fakeKiller
	sleeper   *fakeSleeper
	runner    *fakeRunner
	launcher  *Launcher
}

func newHarness(pids []int) *harness {
	rec := &recorder{}
	h := &harness{
		rec:       rec,
		inspector: &fakeInspector{rec: rec, pids: pids},
		killer:    &fakeKiller{rec: rec},
		sleeper:   &fakeSleeper{rec: rec},
		runner:    &fakeRunner{rec: rec},
	}
	h.launcher = New(h.inspector, h.killer, h.sleeper, h.runner, nil)
	return h
}

func testOpts() model.ServeOptions {
	opts := model.DefaultServeOptions()
	opts.SettleDelay = 2 * time.Second
	return opts
}

// TestLaunch_FreePort verifies idempotent acquisition: with no existing
// listener, no kill is attempted, no delay is taken, and the sequence goes
// straight to the handoff.
func TestLaunch_FreePort(t *testing.T) {
	h := newHarness(nil)

	code, err := h.launcher.Launch(context.Background(), testOpts(), []string{"PATH=/usr/bin"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	assert.Empty(t, h.killer.killed, "no kill should be attempted on a free port")
	assert.Empty(t, h.sleeper.slept, "no settle delay should be taken on a free port")
	assert.Equal(t, []string{"probe:4000", "run:bundle"}, h.rec.events)
}

// TestLaunch_StaleListeners verifies eviction: every discovered PID receives
// a kill before the delay, and the delay happens before the handoff.
func TestLaunch_StaleListeners(t *testing.T) {
	h := newHarness([]int{1234, 5678})

	code, err := h.launcher.Launch(context.Background(), testOpts(), []string{"PATH=/usr/bin"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	// The set of killed PIDs equals the set of discovered PIDs.
	assert.ElementsMatch(t, []int{1234, 5678}, h.killer.killed)

	// Exact ordering: probe, kills, settle, handoff.
	assert.Equal(t, []string{
		"probe:4000",
		"kill:1234",
		"kill:5678",
		"sleep:2s",
		"run:bundle",
	}, h.rec.events)

	require.Len(t, h.sleeper.slept, 1)
	assert.Equal(t, 2*time.Second, h.sleeper.slept[0])
}

// TestLaunch_HandoffArguments verifies the fixed invocation contract:
// bind-all address, the same port that was probed, and the live-reload flag.
func TestLaunch_HandoffArguments(t *testing.T) {
	h := newHarness(nil)
	opts := testOpts()
	opts.Port = 4000

	_, err := h.launcher.Launch(context.Background(), opts, []string{"PATH=/usr/bin"})
	require.NoError(t, err)

	assert.Equal(t, "bundle", h.runner.name)
	assert.Equal(t, []string{
		"exec", "jekyll", "serve",
		"--host", "0.0.0.0",
		"--port", "4000",
		"--livereload",
	}, h.runner.args)
}

// TestLaunch_EndToEnd is the full scenario from the serve contract:
// port 4000 has PID 1234 listening → kill 1234 → settle ≥2s → hand off to
// jekyll serve on 0.0.0.0:4000 with live-reload.
func TestLaunch_EndToEnd(t *testing.T) {
	h := newHarness([]int{1234})

	code, err := h.launcher.Launch(context.Background(), testOpts(), []string{"PATH=/usr/bin"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	assert.Equal(t, []string{
		"probe:4000",
		"kill:1234",
		"sleep:2s",
		"run:bundle",
	}, h.rec.events)
	assert.GreaterOrEqual(t, h.sleeper.slept[0], 2*time.Second)
	assert.Contains(t, h.runner.args, "--livereload")
	assert.Contains(t, h.runner.args, "0.0.0.0")
	assert.Contains(t, h.runner.args, "4000")
}

// TestLaunch_ProbeFailureIsFatal verifies that a failing probe aborts the
// sequence before any kill or handoff is attempted.
func TestLaunch_ProbeFailureIsFatal(t *testing.T) {
	h := newHarness(nil)
	h.inspector.err = errors.New("lsof: permission denied")

	_, err := h.launcher.Launch(context.Background(), testOpts(), nil)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitPortProbeFailed, cliErr.Code)

	assert.Empty(t, h.killer.killed, "nothing may be killed after a failed probe")
	assert.Empty(t, h.runner.name, "the server must not be started after a failed probe")
}

// TestLaunch_KillFailureIsTolerated verifies the documented policy for kill
// errors: log and continue, since the usual cause is an already-exited race
// and the port is then free regardless.
func TestLaunch_KillFailureIsTolerated(t *testing.T) {
	h := newHarness([]int{1234, 5678})
	h.killer.failOn = map[int]error{1234: errors.New("no such process")}

	code, err := h.launcher.Launch(context.Background(), testOpts(), []string{"PATH=/usr/bin"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	// Both kills were still attempted and the handoff still happened.
	assert.ElementsMatch(t, []int{1234, 5678}, h.killer.killed)
	assert.Equal(t, "bundle", h.runner.name)
}

// TestLaunch_SkipsOwnPID verifies the launcher never kills its own process
// even when the probe reports it.
func TestLaunch_SkipsOwnPID(t *testing.T) {
	h := newHarness([]int{4242, 99})
	h.launcher.selfPID = 4242

	_, err := h.launcher.Launch(context.Background(), testOpts(), []string{"PATH=/usr/bin"})
	require.NoError(t, err)

	assert.Equal(t, []int{99}, h.killer.killed)
}

// TestLaunch_PropagatesExitStatus verifies the external server's exit code
// comes back unchanged.
func TestLaunch_PropagatesExitStatus(t *testing.T) {
	h := newHarness(nil)
	h.runner.code = 137

	code, err := h.launcher.Launch(context.Background(), testOpts(), nil)
	require.NoError(t, err)
	assert.Equal(t, 137, code)
}

// TestLaunch_InvalidOptions verifies validation runs before any destructive
// step.
func TestLaunch_InvalidOptions(t *testing.T) {
	h := newHarness([]int{1234})
	opts := testOpts()
	opts.Port = 0

	_, err := h.launcher.Launch(context.Background(), opts, nil)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
	assert.Empty(t, h.rec.events, "no capability may be touched with invalid options")
}

// TestLaunch_NoLiveReload verifies the flag is omitted when disabled.
func TestLaunch_NoLiveReload(t *testing.T) {
	h := newHarness(nil)
	opts := testOpts()
	opts.LiveReload = false

	_, err := h.launcher.Launch(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.NotContains(t, h.runner.args, "--livereload")
}

// TestAugmentPath verifies the additive PATH contract: pre-existing entries
// keep their order, nothing is deduplicated away, new entries land at the
// end, and entries already present are not appended twice.
func TestAugmentPath(t *testing.T) {
	environ := []string{
		"HOME=/home/anna",
		"PATH=/usr/local/bin:/usr/bin:/usr/bin",
		"LANG=en_US.UTF-8",
	}

	out := AugmentPath(environ, []string{"/opt/gems/bin", "/usr/bin"})

	require.Len(t, out, 3)
	assert.Equal(t, "HOME=/home/anna", out[0])
	// /usr/bin appears twice in the input and must stay twice; /opt/gems/bin
	// is appended; the second /usr/bin extra is already present and skipped.
	assert.Equal(t, "PATH=/usr/local/bin:/usr/bin:/usr/bin:/opt/gems/bin", out[1])
	assert.Equal(t, "LANG=en_US.UTF-8", out[2])
}

// TestAugmentPath_NoPathVariable verifies a PATH is created when the input
// environment has none.
func TestAugmentPath_NoPathVariable(t *testing.T) {
	out := AugmentPath([]string{"HOME=/home/anna"}, []string{"/opt/gems/bin"})
	assert.Contains(t, out, "PATH=/opt/gems/bin")
}

// TestAugmentPath_NoExtras verifies the environment passes through untouched
// (as a copy) when there is nothing to add.
func TestAugmentPath_NoExtras(t *testing.T) {
	environ := []string{"PATH=/usr/bin"}
	out := AugmentPath(environ, nil)
	assert.Equal(t, environ, out)

	// Must be a copy, not an alias of the caller's slice.
	if len(out) > 0 {
		out[0] = "PATH=/changed"
		assert.Equal(t, "PATH=/usr/bin", environ[0])
	}
}
