package process

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/provider"
)

// SubprocessProvider exposes a command-line tool as a
// provider.RequestResponse. buildCmd turns the input into a Command and
// parseOut turns a successful Result into the output.
type SubprocessProvider[I, O any] struct {
	name      string
	buildCmd  func(I) (Command, error)
	parseOut  func(I, *Result) (O, error)
	available func(context.Context) bool
}

var _ provider.RequestResponse[string, string] = (*SubprocessProvider[string, string])(nil)

// NewSubprocessProvider creates a RequestResponse provider backed by a subprocess.
func NewSubprocessProvider[I, O any](
	name string,
	buildCmd func(I) (Command, error),
	parseOut func(I, *Result) (O, error),
) *SubprocessProvider[I, O] {
	return &SubprocessProvider[I, O]{name: name, buildCmd: buildCmd, parseOut: parseOut}
}

// WithAvailabilityCheck sets the check behind IsAvailable.
func (p *SubprocessProvider[I, O]) WithAvailabilityCheck(fn func(context.Context) bool) *SubprocessProvider[I, O] {
	p.available = fn
	return p
}

// Name returns the provider name.
func (p *SubprocessProvider[I, O]) Name() string { return p.name }

// IsAvailable runs the availability check, true when none is set.
func (p *SubprocessProvider[I, O]) IsAvailable(ctx context.Context) bool {
	if p.available != nil {
		return p.available(ctx)
	}
	return true
}

// Execute builds the command, runs it and parses its output. Tool failures
// surface as EXTERNAL_SERVICE_ERROR; cancellation surfaces as TIMEOUT.
func (p *SubprocessProvider[I, O]) Execute(ctx context.Context, input I) (O, error) {
	var zero O
	cmd, err := p.buildCmd(input)
	if err != nil {
		return zero, err
	}

	result, err := Run(ctx, cmd)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, apperrors.Timeout(p.name).WithCause(err)
		}
		appErr := apperrors.ExternalServiceError(p.name, err)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			appErr.WithDetail("exit_code", exitErr.ExitCode).WithDetail("stderr", exitErr.Stderr)
		}
		return zero, appErr
	}
	return p.parseOut(input, result)
}
