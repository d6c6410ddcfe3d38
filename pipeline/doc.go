// Package pipeline turns an uploaded video into a published transcript.
//
// Every job moves through an explicit state machine:
//
//	received → transcoding → transcribing → uploading → done
//	    └───────────┴─────────────┴────────────┴──────→ failed
//
// Each stage runs behind a provider.RequestResponse wrapped with logging,
// tracing, metrics and its own retry and circuit breaker policy. A failed job
// records the stage it failed in and a typed Reason; the same failure is
// returned to the caller as a *StageError.
//
// Jobs are persisted after every transition through a Store. MemoryStore is
// suitable for a single process; RedisStore shares jobs between replicas.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(cfg, pipeline.Stages{
//	    Transcoder:  transcoder,
//	    Transcriber: transcription.AsRequestResponse(backend),
//	    Uploader:    storage.NewUploadProvider("s3", uploader),
//	}, pipeline.NewMemoryStore(), log)
//	job, err := runner.Run(ctx, pipeline.Request{Name: "lecture-01", Video: f})
package pipeline
