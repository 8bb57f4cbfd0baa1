package workflows_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"verinest-onboarding/activities"
	"verinest-onboarding/shared"
	"verinest-onboarding/workflows"
)

func submitRequest() shared.SubmitRequest {
	return shared.SubmitRequest{
		SessionID: "sess-1",
		AuthToken: "tok",
		Payload: shared.VerificationPayload{
			VerificationType: "Passport",
			DocumentID:       "A1234567",
			Nationality:      "Ghanaian",
			DocumentURL:      "https://cdn/doc.jpg",
			SelfieURL:        "https://cdn/selfie.jpg",
		},
	}
}

func TestSubmitVerificationWorkflow_Accepted(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	a := &activities.Activities{}
	env.RegisterActivity(a.SubmitVerification)

	env.OnActivity(a.SubmitVerification, mock.Anything, mock.Anything).Return(
		shared.VerificationResult{Passed: true, VerificationID: "ver-7"}, nil,
	)

	env.ExecuteWorkflow(workflows.SubmitVerificationWorkflow, submitRequest())

	assert.True(t, env.IsWorkflowCompleted())
	assert.NoError(t, env.GetWorkflowError())

	var result shared.VerificationResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.True(t, result.Passed)
	assert.Equal(t, "ver-7", result.VerificationID)
}

func TestSubmitVerificationWorkflow_RejectionIsAResult(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	a := &activities.Activities{}
	env.RegisterActivity(a.SubmitVerification)

	attempts := 0
	env.OnActivity(a.SubmitVerification, mock.Anything, mock.Anything).Return(
		func(_ context.Context, _ shared.SubmitRequest) (shared.VerificationResult, error) {
			attempts++
			return shared.VerificationResult{}, temporal.NewNonRetryableApplicationError(
				"Your session has expired. Please log in again.",
				shared.ErrTypeSubmissionRejected,
				nil,
			)
		},
	)

	env.ExecuteWorkflow(workflows.SubmitVerificationWorkflow, submitRequest())

	assert.True(t, env.IsWorkflowCompleted())
	assert.NoError(t, env.GetWorkflowError())

	var result shared.VerificationResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.False(t, result.Passed)
	assert.Equal(t, "VERIFY-FAIL-sess-1", result.VerificationID)
	assert.Equal(t, shared.ErrTypeSubmissionRejected, result.ErrorType)
	assert.Equal(t, "Your session has expired. Please log in again.", result.Details)
	assert.Equal(t, 1, attempts)
}

func TestSubmitVerificationWorkflow_RetryableErrorStillSingleAttempt(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	a := &activities.Activities{}
	env.RegisterActivity(a.SubmitVerification)

	attempts := 0
	env.OnActivity(a.SubmitVerification, mock.Anything, mock.Anything).Return(
		func(_ context.Context, _ shared.SubmitRequest) (shared.VerificationResult, error) {
			attempts++
			return shared.VerificationResult{}, assert.AnError
		},
	)

	env.ExecuteWorkflow(workflows.SubmitVerificationWorkflow, submitRequest())

	require.NoError(t, env.GetWorkflowError())
	var result shared.VerificationResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.False(t, result.Passed)
	assert.Equal(t, 1, attempts)
}
