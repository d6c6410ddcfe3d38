// Package transcription turns speech-to-text output into timed utterances
// and defines the provider interface for transcription backends.
//
// The parser reads the plain-text stdout of whisper.cpp style tools, where
// each line after a single header line looks like
//
//	[00:00:00.000 --> 00:00:02.000]  Hello world
//
// Malformed lines are dropped in lenient mode and reported by line number in
// strict mode.
//
// # Backends
//
//   - transcription/whispercpp: local whisper.cpp CLI
//   - transcription/whisper: faster-whisper HTTP sidecar
//
// # Usage
//
//	utterances, err := transcription.Parse(stdout, transcription.WithMode(transcription.ModeStrict))
//	data, err := transcription.EncodeTranscript(utterances)
package transcription
