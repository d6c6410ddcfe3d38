// Package process runs external tools such as ffmpeg and whisper.cpp.
//
// Run starts the command in its own process group so cancellation reaches
// every child, sending SIGTERM first and SIGKILL after the grace period.
// SubprocessProvider wraps a command builder and an output parser into a
// provider.RequestResponse.
package process
