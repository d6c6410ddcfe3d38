package transcription

// Utterance is one timed speech segment.
type Utterance struct {
	// Start is the segment start timestamp in the tool's native format.
	Start string `json:"start"`
	// End is the segment end timestamp in the tool's native format.
	End string `json:"end"`
	// Speech is the transcribed text with line breaks removed.
	Speech string `json:"speech"`
}

// TranscriptionRequest holds parameters for a transcription call.
type TranscriptionRequest struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path" validate:"required"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// Model overrides the backend's configured model.
	Model string `json:"model,omitempty"`
}

// TranscriptionResponse holds the result of a transcription call.
type TranscriptionResponse struct {
	// Raw is the unparsed backend output, when the backend produces text.
	Raw string `json:"-"`
	// Utterances are the parsed, time-aligned segments in output order.
	Utterances []Utterance `json:"utterances"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}
