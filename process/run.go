package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// ErrEmptyBinary is returned when a Command has no Binary.
var ErrEmptyBinary = errors.New("process: binary is required")

// ExitError reports a process that ran and exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	// Stderr holds the last lines of standard error.
	Stderr string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("process: %s: exit code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("process: %s: exit code %d: %s", e.Command, e.ExitCode, e.Stderr)
}

const stderrTailLines = 5

// Run executes a subprocess in its own process group and waits for it.
// When ctx is canceled the group receives SIGTERM, then SIGKILL after the
// grace period. A non-zero exit yields an *ExitError together with the Result.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, ErrEmptyBinary
	}

	grace := cmd.GracePeriod
	if grace == 0 {
		grace = DefaultGracePeriod
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running configured tools is the purpose of this package
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = grace

	start := time.Now()
	err := c.Run()
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		result.ExitCode = c.ProcessState.ExitCode()
	}

	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("process: %s: killed: %w", cmd.Binary, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, &ExitError{
			Command:  cmd.Binary,
			ExitCode: result.ExitCode,
			Stderr:   result.StderrTail(stderrTailLines),
		}
	}
	return result, fmt.Errorf("process: %s: %w", cmd.Binary, err)
}

// LookPath reports whether binary resolves to an executable.
func LookPath(binary string) bool {
	if binary == "" {
		return false
	}
	_, err := exec.LookPath(binary)
	return err == nil
}
