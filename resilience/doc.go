// Package resilience provides the fault-tolerance primitives used by the
// transcript pipeline and the HTTP layer.
//
//   - Retry: per-stage retries with exponential backoff and jitter
//   - CircuitBreaker: fails fast while a backend (whisper sidecar, S3) is down
//   - Bulkhead: bounds concurrent transcode/transcribe jobs
//   - RateLimiter: token bucket guarding the upload endpoint
//
// RetryPolicy, BreakerPolicy and the other policy types are the
// configuration-file forms; each converts to its runtime config.
package resilience
