package provider

import "context"

// RequestResponse is a provider that takes one input and returns one output.
// Subprocess runs (ffmpeg, whisper.cpp), HTTP calls and object uploads all
// take this shape.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Func adapts a plain function into a RequestResponse provider that is
// always available.
func Func[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) RequestResponse[I, O] {
	return &funcRR[I, O]{name: name, fn: fn}
}

type funcRR[I, O any] struct {
	name string
	fn   func(ctx context.Context, input I) (O, error)
}

func (f *funcRR[I, O]) Name() string                                  { return f.name }
func (f *funcRR[I, O]) IsAvailable(context.Context) bool              { return true }
func (f *funcRR[I, O]) Execute(ctx context.Context, in I) (O, error) { return f.fn(ctx, in) }
