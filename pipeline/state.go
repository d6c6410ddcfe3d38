package pipeline

import (
	"fmt"

	apperrors "github.com/kbukum/vidscribe/errors"
)

// State is the lifecycle position of a job.
type State string

const (
	StateReceived     State = "received"
	StateTranscoding  State = "transcoding"
	StateTranscribing State = "transcribing"
	StateUploading    State = "uploading"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

var transitions = map[State][]State{
	StateReceived:     {StateTranscoding, StateFailed},
	StateTranscoding:  {StateTranscribing, StateFailed},
	StateTranscribing: {StateUploading, StateFailed},
	StateUploading:    {StateDone, StateFailed},
}

// String returns the state name.
func (s State) String() string { return string(s) }

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// checkTransition returns a CONFLICT error for an illegal transition.
func checkTransition(from, to State) error {
	if from.CanTransition(to) {
		return nil
	}
	return apperrors.Conflict(fmt.Sprintf("illegal job transition %s -> %s", from, to)).
		WithDetail("from", string(from)).
		WithDetail("to", string(to))
}
