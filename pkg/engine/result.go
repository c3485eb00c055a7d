package engine

import "github.com/goliatone/go-authflow/pkg/model"

// Outcome classifies the result of an engine operation.
type Outcome string

const (
	// OutcomeSent means a verification code was sent and the cooldown started.
	OutcomeSent Outcome = "sent"
	// OutcomeAdvanced means the step succeeded and the engine moved on.
	OutcomeAdvanced Outcome = "advanced"
	// OutcomeCompleted means the final step succeeded.
	OutcomeCompleted Outcome = "completed"
	// OutcomeInvalid means local validation failed; no collaborator was called.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeFailed means the collaborator reported a failure.
	OutcomeFailed Outcome = "failed"
	// OutcomeRejected means the call was refused by a guard (in flight,
	// cooldown, wrong step, closed) without reaching a collaborator.
	OutcomeRejected Outcome = "rejected"
)

// Result reports what an operation did. Errors carries the field errors
// produced by the operation (validation or attributed collaborator failures).
// Err is set for rejections and collaborator failures.
type Result struct {
	Outcome Outcome
	// Step is the current step index after the operation.
	Step   int
	Errors model.ErrorMap
	Err    error
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	switch r.Outcome {
	case OutcomeSent, OutcomeAdvanced, OutcomeCompleted:
		return true
	default:
		return false
	}
}
