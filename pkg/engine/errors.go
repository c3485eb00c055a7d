package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInFlight is reported when an action of the same kind is already
	// awaiting its collaborator.
	ErrInFlight = errors.New("engine: action already in flight")
	// ErrCooldownActive is reported when a verification code is requested
	// before the cooldown expired.
	ErrCooldownActive = errors.New("engine: verification code cooldown active")
	// ErrClosed is reported by every operation after Close.
	ErrClosed = errors.New("engine: closed")
	// ErrStepMismatch is reported when SubmitStep targets a step other than
	// the current one.
	ErrStepMismatch = errors.New("engine: step is not the current step")
	// ErrCompleted is reported when the flow already reached completion.
	ErrCompleted = errors.New("engine: flow already completed")
	// ErrMissingCollaborator is reported when a step action has no
	// collaborator configured.
	ErrMissingCollaborator = errors.New("engine: missing collaborator")
	// ErrUnknownAction is reported for step actions the engine cannot perform.
	ErrUnknownAction = errors.New("engine: unknown step action")
	// ErrCodeRejected wraps a negative answer from the code verifier.
	ErrCodeRejected = errors.New("engine: verification code rejected")
)

func stepOutOfRange(step, count int) string {
	return fmt.Sprintf("engine: step %d out of range [0,%d)", step, count)
}
