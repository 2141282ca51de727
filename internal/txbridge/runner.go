package txbridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Runner executes the external transaction toolchain and returns its raw
// stdout and stderr. Implementations must not retain internal state between
// calls.
type Runner interface {
	Run(ctx context.Context, args ...string) (stdout, stderr string, err error)
}

// CLIRunner shells out to the Stellar CLI binary.
type CLIRunner struct {
	Binary string
}

// Run spawns the toolchain process and waits for completion. A non-zero exit
// is surfaced as a *RunError carrying the collaborator's diagnostics verbatim,
// since the core cannot tell a transient network failure from a permanent
// misconfiguration.
func (r CLIRunner) Run(ctx context.Context, args ...string) (string, string, error) {
	binary := r.Binary
	if binary == "" {
		binary = "stellar"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), stderr.String(), &RunError{
				Stdout: stdout.String(),
				Stderr: stderr.String(),
				Err:    err,
			}
		}
		return "", "", fmt.Errorf("spawn %s (ensure the Stellar CLI is installed and SOROBAN_CLI points to it): %w", binary, err)
	}

	return stdout.String(), stderr.String(), nil
}

// RunError reports a toolchain invocation that exited non-zero.
type RunError struct {
	Stdout string
	Stderr string
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("toolchain returned non-zero exit code\nstdout:\n%s\nstderr:\n%s", e.Stdout, e.Stderr)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
