// Package intake watches an inbox directory and submits every new video file
// to the transcription pipeline once its writes have settled.
//
// The transcript is named after the file (see NameFor). Failures are logged
// and never stop the watcher.
package intake
