package transcription

import (
	"context"

	"github.com/kbukum/vidscribe/provider"
)

// Provider is the interface that transcription backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe runs the backend on an audio file and returns parsed utterances.
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
}

// AsRequestResponse exposes a Provider as a provider.RequestResponse so it
// can be wrapped with the generic middleware (logging, tracing, resilience).
func AsRequestResponse(p Provider) provider.RequestResponse[TranscriptionRequest, *TranscriptionResponse] {
	return &rrAdapter{inner: p}
}

type rrAdapter struct {
	inner Provider
}

func (a *rrAdapter) Name() string                         { return a.inner.Name() }
func (a *rrAdapter) IsAvailable(ctx context.Context) bool { return a.inner.IsAvailable(ctx) }

func (a *rrAdapter) Execute(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	return a.inner.Transcribe(ctx, req)
}
