package process_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/vidscribe/process"
)

func TestRunEcho(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"hello", "world"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
	if out := strings.TrimSpace(string(result.Stdout)); out != "hello world" {
		t.Fatalf("expected 'hello world', got %q", out)
	}
}

func TestRunStdin(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "cat",
		Stdin:  strings.NewReader("from stdin"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Stdout) != "from stdin" {
		t.Fatalf("expected 'from stdin', got %q", result.Stdout)
	}
}

func TestRunExitError(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo line1 >&2; echo 'Invalid data found' >&2; exit 42"},
	})
	var exitErr *process.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.ExitCode != 42 || result.ExitCode != 42 {
		t.Fatalf("expected exit code 42, got %d/%d", exitErr.ExitCode, result.ExitCode)
	}
	if !strings.HasSuffix(exitErr.Stderr, "Invalid data found") {
		t.Fatalf("expected stderr tail, got %q", exitErr.Stderr)
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if result.Duration > 5*time.Second {
		t.Fatalf("process took too long to kill: %v", result.Duration)
	}
}

func TestRunEmptyBinary(t *testing.T) {
	if _, err := process.Run(context.Background(), process.Command{}); !errors.Is(err, process.ErrEmptyBinary) {
		t.Fatalf("expected ErrEmptyBinary, got %v", err)
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{Binary: "definitely-not-a-real-binary-xyz"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	var exitErr *process.ExitError
	if errors.As(err, &exitErr) {
		t.Fatal("a missing binary is not an exit error")
	}
}

func TestRunEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo $VIDSCRIBE_TEST_VAR; pwd"},
		Env:    []string{"VIDSCRIBE_TEST_VAR=hello123"},
		Dir:    dir,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(result.Stdout)), "\n")
	if len(lines) != 2 || lines[0] != "hello123" || !strings.HasSuffix(lines[1], strings.TrimPrefix(dir, "/private")) {
		t.Fatalf("unexpected output %q", result.Stdout)
	}
}

func TestStderrTail(t *testing.T) {
	r := &process.Result{Stderr: []byte("a\nb\nc\nd\n")}
	if got := r.StderrTail(2); got != "c\nd" {
		t.Fatalf("expected last two lines, got %q", got)
	}
	if got := r.StderrTail(10); got != "a\nb\nc\nd" {
		t.Fatalf("expected all lines, got %q", got)
	}
	var nilResult *process.Result
	if nilResult.StderrTail(3) != "" {
		t.Fatal("nil result must have empty tail")
	}
}

func TestCommandString(t *testing.T) {
	c := process.Command{Binary: "ffmpeg", Args: []string{"-y", "-i", "in.mp4"}}
	if c.String() != "ffmpeg -y -i in.mp4" {
		t.Fatalf("unexpected command string %q", c.String())
	}
}

func TestLookPath(t *testing.T) {
	if !process.LookPath("sh") {
		t.Fatal("sh must be on PATH")
	}
	if process.LookPath("") || process.LookPath("definitely-not-a-real-binary-xyz") {
		t.Fatal("expected missing binaries to be unavailable")
	}
}
