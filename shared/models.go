package shared

import "time"

// WizardPhase mirrors the engine phase of a hosted wizard session.
type WizardPhase string

const (
	PhaseEditing    WizardPhase = "EDITING"
	PhaseSubmitting WizardPhase = "SUBMITTING"
	PhaseComplete   WizardPhase = "COMPLETE"
	PhaseFailed     WizardPhase = "FAILED"
	PhaseAbandoned  WizardPhase = "ABANDONED"
)

// Timeline controls idle reminders and abandonment. Zero fields use the defaults.
type Timeline struct {
	FirstReminder  time.Duration `json:"firstReminder"`
	SecondReminder time.Duration `json:"secondReminder"`
	Abandon        time.Duration `json:"abandon"`
}

// WithDefaults fills unset durations.
func (t Timeline) WithDefaults() Timeline {
	if t.FirstReminder <= 0 {
		t.FirstReminder = FirstReminderAfter
	}
	if t.SecondReminder <= 0 {
		t.SecondReminder = SecondReminderAfter
	}
	if t.Abandon <= 0 {
		t.Abandon = AbandonAfter
	}
	return t
}

// UserInfo identifies the person filling in the wizard.
type UserInfo struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// WizardRequest is the input to the VerificationWizardWorkflow.
type WizardRequest struct {
	SessionID string   `json:"sessionId"`
	Flow      string   `json:"flow"` // "kyc", "verification", "professional"
	User      UserInfo `json:"user"`
	// AuthToken is the bearer credential used until a step update carries a newer one.
	AuthToken string   `json:"authToken"`
	Timeline  Timeline `json:"timeline"`
	// Resume optionally carries a saved progress blob to rehydrate from.
	Resume []byte `json:"resume,omitempty"`
}

// StepUpdate is the payload of SignalStepCompleted.
type StepUpdate struct {
	Step string            `json:"step"`
	Data map[string]string `json:"data"`
	// AuthToken, when set, replaces the session's bearer credential.
	AuthToken string `json:"authToken,omitempty"`
}

// WizardStatusResponse is returned by the query handler.
type WizardStatusResponse struct {
	SessionID         string            `json:"sessionId"`
	Flow              string            `json:"flow"`
	CurrentStep       string            `json:"currentStep"`
	CompletedSteps    []string          `json:"completedSteps"`
	Phase             WizardPhase       `json:"phase"`
	Data              map[string]string `json:"data"`
	LastError         string            `json:"lastError,omitempty"`
	HoursUntilAbandon int               `json:"hoursUntilAbandon"`
}

// ReminderRequest is the input to the SendReminder activity.
type ReminderRequest struct {
	SessionID    string `json:"sessionId"`
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	Flow         string `json:"flow"`
	Step         string `json:"step"`
	ReminderType string `json:"reminderType"` // "first", "second"
}

// ProgressRequest is the input to the SaveProgress activity.
type ProgressRequest struct {
	Key      string `json:"key"`
	Snapshot []byte `json:"snapshot"`
}

// SubmitRequest is the input to SubmitVerificationWorkflow and the SubmitVerification activity.
type SubmitRequest struct {
	SessionID string              `json:"sessionId"`
	AuthToken string              `json:"authToken"`
	Payload   VerificationPayload `json:"payload"`
}

// VerificationPayload is the body of POST /api/verification/document.
type VerificationPayload struct {
	VerificationType string `json:"verification_type"`
	DocumentID       string `json:"document_id"`
	Nationality      string `json:"nationality"`
	DocumentURL      string `json:"document_url"`
	SelfieURL        string `json:"selfie_url"`
	DOB              string `json:"dob,omitempty"`
	State            string `json:"state,omitempty"`
	LGA              string `json:"lga,omitempty"`
	NearestLandmark  string `json:"nearest_landmark,omitempty"`
}

// VerificationResult is the output of the submission child workflow.
type VerificationResult struct {
	Passed         bool   `json:"passed"`
	VerificationID string `json:"verificationId"`
	Details        string `json:"details"`
	ErrorType      string `json:"errorType,omitempty"`
}
