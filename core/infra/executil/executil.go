// Package executil runs external helper tools for the pipeline: the
// decompression tool that extracts and rebuilds the runtime archive, and
// the application relaunch after install.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result captures the outcome of a finished tool invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// LookTool checks that an external tool is invocable: paths are stat'd via
// the process loader, bare names resolved against PATH. Returns the resolved
// path.
func LookTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("look up tool %s: %w", name, err)
	}
	return path, nil
}

// Run executes name with args in dir (empty dir means inherit), capturing
// stdout and stderr. A non-zero exit returns the Result alongside the error
// so callers can surface tool output.
func Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	// #nosec G204 -- tool path and arguments come from operator config.
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(err),
	}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", name, err)
	}
	return res, nil
}

// Start launches name with args detached from the current process. Output is
// discarded and the process is released immediately; callers get an error
// only when the process cannot be started at all.
func Start(name string, args ...string) error {
	// #nosec G204 -- launch command comes from operator config.
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	return cmd.Process.Release()
}

// Tail returns the last n lines of tool output for error messages.
func Tail(out string, n int) string {
	out = strings.TrimSpace(out)
	if out == "" {
		return out
	}
	lines := strings.Split(out, "\n")
	if len(lines) <= n {
		return out
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
