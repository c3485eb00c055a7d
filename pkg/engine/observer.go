package engine

// Observer receives engine events. Implementations must be safe for
// concurrent use and must not call back into the engine.
type Observer interface {
	CodeRequested(flow string, outcome Outcome)
	StepSubmitted(flow, step string, outcome Outcome)
	FlowCompleted(flow string)
}

type nopObserver struct{}

func (nopObserver) CodeRequested(string, Outcome)         {}
func (nopObserver) StepSubmitted(string, string, Outcome) {}
func (nopObserver) FlowCompleted(string)                  {}
