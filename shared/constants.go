package shared

import "time"

// Task queue names.
const (
	WizardWorkflowTaskQueue = "wizard-workflow-tq"
	ActivityTaskQueue       = "activity-tq"
)

// Signal and query names.
const (
	SignalStepCompleted = "signal-step-completed"
	SignalStepBack      = "signal-step-back"
	SignalStepJump      = "signal-step-jump"
	SignalAbandon       = "signal-wizard-abandon"
	QueryWizardStatus   = "query-wizard-status"
)

// Idle timeline defaults, measured from the user's last step event.
const (
	FirstReminderAfter  = 24 * time.Hour
	SecondReminderAfter = 72 * time.Hour
	AbandonAfter        = 7 * 24 * time.Hour
)

// Error types for non-retryable failures.
const (
	ErrTypeSubmissionInvalid     = "SubmissionInvalid"
	ErrTypeSubmissionRejected    = "SubmissionRejected"
	ErrTypeSubmissionUnreachable = "SubmissionUnreachable"
)
