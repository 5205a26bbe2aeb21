package proc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hnakamura/blogdev/internal/model"
)

// Runner starts the external site-serving command and blocks until it
// exits, with stdio inherited from the CLI so the generator's build log
// and live-reload messages reach the terminal directly. It implements the
// launcher's Runner capability.
type Runner struct{}

// NewRunner creates a new Runner instance.
func NewRunner() *Runner {
	return &Runner{}
}

// Run resolves name against the PATH inside env and executes it with the
// given arguments, blocking until the process exits.
//
// The command normally runs until interrupted; the interrupt is delivered
// by the OS to the whole process group, so the child sees it without any
// signal forwarding here.
//
// Return values:
//   - (0, nil) on clean exit
//   - (N, nil) when the command exits with status N — the caller propagates
//     it unchanged rather than interpreting the generator's own errors
//   - (0, err) when the command could not be started at all; an
//     unresolvable executable yields a CLIError naming the missing tool
func (r *Runner) Run(ctx context.Context, name string, args []string, env []string) (int, error) {
	resolved, err := LookTool(name, env)
	if err != nil {
		return 0, model.WrapCLIError(model.ExitToolNotFound,
			fmt.Sprintf("%s not found on the search path — is the site generator installed?", name), err)
	}

	cmd := exec.CommandContext(ctx, resolved, args...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err = cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The generator ran and failed (or was interrupted). Its exit code
		// is its own contract; pass it through without interpretation.
		return exitErr.ExitCode(), nil
	}

	return 0, fmt.Errorf("failed to start %s: %w", name, err)
}

// LookTool resolves an executable name against the PATH entries found in
// the given environment slice, rather than the process's own environment.
// This matters because the launcher augments PATH in the child environment
// only — the resolution must see the same search path the child will.
//
// A name containing a path separator is used as-is (after an executability
// check), mirroring exec.LookPath semantics.
func LookTool(name string, env []string) (string, error) {
	if strings.ContainsAny(name, `/\`) {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
	}

	for _, dir := range filepath.SplitList(pathFromEnv(env)) {
		if dir == "" {
			// Empty PATH entries historically mean the current directory.
			dir = "."
		}
		for _, candidate := range candidateNames(filepath.Join(dir, name)) {
			if isExecutable(candidate) {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}

// pathFromEnv extracts the PATH value from an environment slice, falling
// back to the process environment when the slice has none.
func pathFromEnv(env []string) string {
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			return strings.TrimPrefix(kv, "PATH=")
		}
	}
	return os.Getenv("PATH")
}

// candidateNames expands a candidate path with the Windows executable
// extensions. On Unix the path is returned unchanged.
func candidateNames(path string) []string {
	if runtime.GOOS != "windows" {
		return []string{path}
	}
	if ext := filepath.Ext(path); ext != "" {
		return []string{path}
	}
	return []string{path + ".exe", path + ".cmd", path + ".bat", path}
}

// isExecutable reports whether path is a regular file the current user can
// execute. On Windows the mode-bit check is meaningless, so existence of a
// regular file is enough there.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}
