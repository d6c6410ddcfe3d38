package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/vidscribe/transcription"
)

// Job is the persisted record of one video's trip through the pipeline.
type Job struct {
	ID            string                    `json:"id"`
	Name          string                    `json:"name"`
	ContentHash   string                    `json:"content_hash"`
	State         State                     `json:"state"`
	FailedStage   State                     `json:"failed_stage,omitempty"`
	FailureReason Reason                    `json:"failure_reason,omitempty"`
	Error         string                    `json:"error,omitempty"`
	TranscriptURL string                    `json:"transcript_url,omitempty"`
	Utterances    []transcription.Utterance `json:"utterances,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

func newJob(now time.Time) *Job {
	return &Job{
		ID:        uuid.NewString(),
		State:     StateReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// advance moves the job to next, rejecting illegal transitions.
func (j *Job) advance(next State, now time.Time) error {
	if err := checkTransition(j.State, next); err != nil {
		return err
	}
	j.State = next
	j.UpdatedAt = now
	return nil
}

// fail moves the job to StateFailed and records the stage error.
func (j *Job) fail(se *StageError, now time.Time) error {
	if err := checkTransition(j.State, StateFailed); err != nil {
		return err
	}
	j.FailedStage = se.Stage
	j.FailureReason = se.Reason
	j.Error = se.Err.Error()
	j.State = StateFailed
	j.UpdatedAt = now
	return nil
}

func (j *Job) clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.Utterances != nil {
		cp.Utterances = append([]transcription.Utterance(nil), j.Utterances...)
	}
	return &cp
}
