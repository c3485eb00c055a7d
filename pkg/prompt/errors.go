package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrTooManyAttempts is returned when a step keeps failing past the
	// configured attempt limit.
	ErrTooManyAttempts = errors.New("prompt: too many attempts")
)
