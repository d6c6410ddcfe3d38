package process_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/process"
)

func shellProvider() *process.SubprocessProvider[string, string] {
	return process.NewSubprocessProvider("shell",
		func(script string) (process.Command, error) {
			if script == "" {
				return process.Command{}, errors.New("empty script")
			}
			return process.Command{Binary: "sh", Args: []string{"-c", script}}, nil
		},
		func(_ string, r *process.Result) (string, error) {
			return strings.TrimSpace(string(r.Stdout)), nil
		},
	)
}

func TestSubprocessProvider_Execute(t *testing.T) {
	p := shellProvider()
	out, err := p.Execute(context.Background(), "echo transcribed")
	if err != nil || out != "transcribed" {
		t.Fatalf("expected 'transcribed', got %q, %v", out, err)
	}
	if p.Name() != "shell" || !p.IsAvailable(context.Background()) {
		t.Fatal("unexpected provider metadata")
	}
}

func TestSubprocessProvider_BuildError(t *testing.T) {
	if _, err := shellProvider().Execute(context.Background(), ""); err == nil || apperrors.IsAppError(err) {
		t.Fatalf("build errors pass through unchanged, got %v", err)
	}
}

func TestSubprocessProvider_ExitFailure(t *testing.T) {
	_, err := shellProvider().Execute(context.Background(), "echo 'No such file' >&2; exit 1")
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeExternalService {
		t.Fatalf("expected EXTERNAL_SERVICE_ERROR, got %v", err)
	}
	if appErr.Details["exit_code"] != 1 || appErr.Details["stderr"] != "No such file" {
		t.Fatalf("unexpected details %v", appErr.Details)
	}
}

func TestSubprocessProvider_Canceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := shellProvider().Execute(ctx, "sleep 5")
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeTimeout {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("expected deadline in cause chain")
	}
}

func TestSubprocessProvider_AvailabilityCheck(t *testing.T) {
	p := shellProvider().WithAvailabilityCheck(func(context.Context) bool { return false })
	if p.IsAvailable(context.Background()) {
		t.Fatal("expected custom availability check to be used")
	}
}
