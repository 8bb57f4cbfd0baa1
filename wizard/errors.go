package wizard

import "errors"

var (
	// ErrUnknownStep is returned when a key is not part of the registry.
	ErrUnknownStep = errors.New("unknown wizard step")
	// ErrSkipAhead is returned by JumpTo when the target lies past an incomplete step.
	ErrSkipAhead = errors.New("cannot skip ahead past an incomplete step")
	// ErrGateNotSatisfied is returned when the current step's precondition does not hold.
	ErrGateNotSatisfied = errors.New("step precondition not satisfied")
	// ErrFlowClosed is returned for transitions while submitting or after completion.
	ErrFlowClosed = errors.New("wizard is not accepting transitions")
	// ErrBack is returned by a StepHandler to ask for the previous step.
	ErrBack = errors.New("step asked to go back")
	// ErrAbandon is returned by a StepHandler to abandon the wizard.
	ErrAbandon = errors.New("wizard abandoned")
)
