// Package provider is the small generic framework every external tool in
// vidscribe is plugged into.
//
// A RequestResponse[I, O] takes one input and returns one output; the
// ffmpeg transcoder, the whisper backends and the transcript uploader are
// all RequestResponse providers. Cross-cutting behavior is added with
// Middleware and composed with Chain:
//
//	stage := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics, "transcode"),
//	    provider.WithTracing[In, Out]("transcode"),
//	)(provider.WithResilience(raw, cfg))
//
// Registry and Manager choose a backend by name at startup. Func turns a
// plain function into a RequestResponse.
package provider
