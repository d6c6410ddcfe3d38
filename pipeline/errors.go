package pipeline

import (
	"errors"
	"fmt"
	"maps"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/transcription"
)

// Reason classifies why a job failed.
type Reason string

const (
	ReasonTranscodeFailed  Reason = "transcode_failed"
	ReasonTranscribeFailed Reason = "transcribe_failed"
	ReasonParseFailed      Reason = "parse_failed"
	ReasonEncodeFailed     Reason = "encode_failed"
	ReasonUploadFailed     Reason = "upload_failed"
	ReasonStoreFailed      Reason = "store_failed"
	ReasonCanceled         Reason = "canceled"
)

// StageError is returned by Runner.Run when a stage fails.
type StageError struct {
	// Stage is the state the job was in when it failed.
	Stage State
	// Reason is the failure classification.
	Reason Reason
	// Err is the stage's underlying error.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: %s: %s: %v", e.Stage, e.Reason, e.Err)
}

// Unwrap returns the underlying stage error.
func (e *StageError) Unwrap() error { return e.Err }

// AppError converts the failure into an application error annotated with
// the stage and reason. The wrapped error's AppError, if any, is copied so
// the original is left untouched.
func (e *StageError) AppError() *apperrors.AppError {
	var out *apperrors.AppError
	if ae, ok := apperrors.AsAppError(e.Err); ok {
		cp := *ae
		cp.Details = maps.Clone(ae.Details)
		out = &cp
	} else {
		out = apperrors.Internal(e.Err)
	}
	return out.WithDetail("stage", string(e.Stage)).WithDetail("reason", string(e.Reason))
}

// IsReason reports whether err is a *StageError with the given reason.
func IsReason(err error, reason Reason) bool {
	var se *StageError
	return errors.As(err, &se) && se.Reason == reason
}

func reasonFor(stage State, err error) Reason {
	switch stage {
	case StateTranscoding:
		return ReasonTranscodeFailed
	case StateTranscribing:
		var perr *transcription.ParseError
		if errors.As(err, &perr) {
			return ReasonParseFailed
		}
		return ReasonTranscribeFailed
	default:
		return ReasonUploadFailed
	}
}
