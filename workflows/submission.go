package workflows

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"verinest-onboarding/shared"
)

// SubmitVerificationWorkflow is a child workflow that performs the one network
// submission of a verified wizard. A backend rejection is a business outcome and
// is returned as a failed result rather than a workflow error.
func SubmitVerificationWorkflow(ctx workflow.Context, req shared.SubmitRequest) (shared.VerificationResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Submission workflow started",
		"sessionId", req.SessionID,
		"verificationType", req.Payload.VerificationType,
	)

	// Exactly one attempt; the user decides whether to resubmit.
	opts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	actCtx := workflow.WithActivityOptions(ctx, opts)

	var result shared.VerificationResult
	err := workflow.ExecuteActivity(actCtx, a.SubmitVerification, req).Get(ctx, &result)
	if err != nil {
		failed := shared.VerificationResult{
			Passed:         false,
			VerificationID: fmt.Sprintf("VERIFY-FAIL-%s", req.SessionID),
			Details:        "Verification failed. Please try again.",
			ErrorType:      shared.ErrTypeSubmissionUnreachable,
		}
		var appErr *temporal.ApplicationError
		if errors.As(err, &appErr) {
			failed.Details = appErr.Message()
			failed.ErrorType = appErr.Type()
		}
		logger.Info("Verification submission failed",
			"sessionId", req.SessionID,
			"errorType", failed.ErrorType,
			"details", failed.Details,
		)
		return failed, nil
	}

	logger.Info("Verification submitted", "sessionId", req.SessionID, "verificationId", result.VerificationID)
	return result, nil
}
