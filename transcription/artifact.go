package transcription

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ArtifactExt is the file extension of a stored transcript.
const ArtifactExt = ".json"

// ArtifactName returns the object name for a transcript called name.
func ArtifactName(name string) string {
	return strings.TrimSuffix(name, ArtifactExt) + ArtifactExt
}

// EncodeTranscript renders utterances as a pretty-printed JSON array with
// two-space indentation. A nil slice encodes as "[]".
func EncodeTranscript(utterances []Utterance) ([]byte, error) {
	if utterances == nil {
		utterances = []Utterance{}
	}
	data, err := json.MarshalIndent(utterances, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("transcription: encode transcript: %w", err)
	}
	return data, nil
}

// DecodeTranscript parses a transcript artifact produced by EncodeTranscript.
func DecodeTranscript(data []byte) ([]Utterance, error) {
	var utterances []Utterance
	if err := json.Unmarshal(data, &utterances); err != nil {
		return nil, fmt.Errorf("transcription: decode transcript: %w", err)
	}
	if utterances == nil {
		utterances = []Utterance{}
	}
	return utterances, nil
}

// FormatTimestamp renders seconds in whisper.cpp's "HH:MM:SS.mmm" form.
// Negative values clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
