package activities

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"verinest-onboarding/gateway"
	"verinest-onboarding/shared"
)

// SubmitVerification performs the single POST of a verification payload.
// Every failure is non-retryable: a submission is attempted exactly once and the
// user decides whether to try again.
func (a *Activities) SubmitVerification(ctx context.Context, req shared.SubmitRequest) (shared.VerificationResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Submitting verification",
		"sessionId", req.SessionID,
		"verificationType", req.Payload.VerificationType,
	)

	resp, err := a.Gateway.Submit(ctx, req.AuthToken, req.Payload)
	if err != nil {
		errType := submissionErrorType(err)
		logger.Info("Verification submission failed",
			"sessionId", req.SessionID,
			"errorType", errType,
			"error", err,
		)
		return shared.VerificationResult{}, temporal.NewNonRetryableApplicationError(
			gateway.UserMessage(err),
			errType,
			nil,
		)
	}

	verificationID := fmt.Sprintf("VER-%s", req.SessionID)
	if id, ok := resp.Body["id"].(string); ok && id != "" {
		verificationID = id
	}
	logger.Info("Verification submitted", "sessionId", req.SessionID, "verificationId", verificationID)

	return shared.VerificationResult{
		Passed:         true,
		VerificationID: verificationID,
		Details:        fmt.Sprintf("Accepted by verification service with status %d", resp.Status),
	}, nil
}

func submissionErrorType(err error) string {
	var (
		verr *gateway.ValidationError
		nerr *gateway.NetworkError
	)
	switch {
	case errors.As(err, &verr):
		return shared.ErrTypeSubmissionInvalid
	case errors.As(err, &nerr):
		return shared.ErrTypeSubmissionUnreachable
	default:
		return shared.ErrTypeSubmissionRejected
	}
}
