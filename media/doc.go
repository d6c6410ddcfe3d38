// Package media converts uploaded videos into the audio format the
// transcription backends expect: 16 kHz mono PCM WAV.
package media
