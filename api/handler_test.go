package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	"verinest-onboarding/shared"
	"verinest-onboarding/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-checked-here"))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, r http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestRouter(c WorkflowClient, progress ProgressLoader) *gin.Engine {
	return NewRouter(NewHandler(c, progress, shared.Timeline{}, nil))
}

func TestStart_ResumesSavedProgress(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	run.On("GetID").Return("wizard-kyc-user-1")
	run.On("GetRunID").Return("run-1")

	mem := store.NewMemory()
	require.NoError(t, mem.Save(context.Background(), store.Key("kyc", "user-1"), []byte(`{"currentStep":"selfie"}`)))

	var started shared.WizardRequest
	c.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.ID == "wizard-kyc-user-1" && o.TaskQueue == shared.WizardWorkflowTaskQueue
		}),
		mock.Anything, mock.Anything,
	).Run(func(args mock.Arguments) {
		started = args.Get(3).(shared.WizardRequest)
	}).Return(run, nil)

	tok := token(t, jwt.MapClaims{"sub": "user-1", "email": "ada@example.com"})
	w := do(t, newTestRouter(c, mem), http.MethodPost, "/wizards/kyc", tok, nil)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "wizard-kyc-user-1", resp["workflowId"])
	assert.NotContains(t, resp, "sessionId")

	assert.NotEmpty(t, started.SessionID)
	assert.Equal(t, "kyc", started.Flow)
	assert.Equal(t, "ada@example.com", started.User.Email)
	assert.Equal(t, tok, started.AuthToken)
	assert.JSONEq(t, `{"currentStep":"selfie"}`, string(started.Resume))
	c.AssertExpectations(t)
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		bearer string
	}{
		{name: "missing", bearer: ""},
		{name: "malformed", bearer: "not-a-jwt"},
		{name: "no subject", bearer: token(t, jwt.MapClaims{"email": "ada@example.com"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &mocks.Client{}
			w := do(t, newTestRouter(c, nil), http.MethodGet, "/wizards/kyc", tt.bearer, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			c.AssertNotCalled(t, "QueryWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUnknownFlow(t *testing.T) {
	c := &mocks.Client{}
	w := do(t, newTestRouter(c, nil), http.MethodPost, "/wizards/loan", token(t, jwt.MapClaims{"sub": "u"}), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatus(t *testing.T) {
	c := &mocks.Client{}
	val := &mocks.EncodedValue{}
	val.On("Get", mock.Anything).Run(func(args mock.Arguments) {
		*args.Get(0).(*shared.WizardStatusResponse) = shared.WizardStatusResponse{
			SessionID:   "sess-1",
			Flow:        "verification",
			CurrentStep: "selfie",
			Phase:       shared.PhaseEditing,
		}
	}).Return(nil)
	c.On("QueryWorkflow", mock.Anything, "wizard-verification-user-1", "", shared.QueryWizardStatus).Return(val, nil)

	w := do(t, newTestRouter(c, nil), http.MethodGet, "/wizards/verification", token(t, jwt.MapClaims{"sub": "user-1"}), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var status shared.WizardStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "sess-1", status.SessionID)
	assert.Equal(t, "selfie", status.CurrentStep)
	assert.Equal(t, shared.PhaseEditing, status.Phase)
}

func TestStatus_NoSession(t *testing.T) {
	c := &mocks.Client{}
	c.On("QueryWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewNotFound("workflow not found"))

	w := do(t, newTestRouter(c, nil), http.MethodGet, "/wizards/kyc", token(t, jwt.MapClaims{"sub": "user-1"}), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignals(t *testing.T) {
	tok := token(t, jwt.MapClaims{"sub": "user-1"})
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		signal string
		arg    interface{}
	}{
		{
			name:   "complete step",
			method: http.MethodPost,
			path:   "/wizards/kyc/steps/document_details",
			body:   stepRequest{Data: map[string]string{"document_id": "12345678901"}},
			signal: shared.SignalStepCompleted,
			arg: shared.StepUpdate{
				Step:      "document_details",
				Data:      map[string]string{"document_id": "12345678901"},
				AuthToken: tok,
			},
		},
		{name: "back", method: http.MethodPost, path: "/wizards/kyc/back", signal: shared.SignalStepBack},
		{name: "jump", method: http.MethodPost, path: "/wizards/kyc/jump/terms", signal: shared.SignalStepJump, arg: "terms"},
		{name: "abandon", method: http.MethodDelete, path: "/wizards/kyc", signal: shared.SignalAbandon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &mocks.Client{}
			c.On("SignalWorkflow", mock.Anything, "wizard-kyc-user-1", "", tt.signal, tt.arg).Return(nil)

			w := do(t, newTestRouter(c, nil), tt.method, tt.path, tok, tt.body)

			assert.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
			c.AssertExpectations(t)
		})
	}
}

func TestSignals_UnknownStep(t *testing.T) {
	c := &mocks.Client{}
	tok := token(t, jwt.MapClaims{"sub": "user-1"})

	w := do(t, newTestRouter(c, nil), http.MethodPost, "/wizards/verification/steps/address", tok, stepRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, newTestRouter(c, nil), http.MethodPost, "/wizards/verification/jump/address", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	c.AssertNotCalled(t, "SignalWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSignals_BackendError(t *testing.T) {
	c := &mocks.Client{}
	c.On("SignalWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("frontend unavailable"))

	w := do(t, newTestRouter(c, nil), http.MethodPost, "/wizards/kyc/back", token(t, jwt.MapClaims{"sub": "user-1"}), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
