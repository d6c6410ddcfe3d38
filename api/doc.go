// Package api holds the HTTP handlers for the transcript endpoints:
//
//	POST /api/v1/transcripts               upload a video and transcribe it
//	GET  /api/v1/transcripts/:id           fetch a job
//	GET  /api/v1/transcripts/:id/artifact  download the transcript JSON
//	POST /api/v1/transcripts/parse         parse raw whisper output
//
// Uploads run the pipeline synchronously; the response is the finished job.
package api
