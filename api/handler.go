// Package api exposes hosted wizard sessions over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.uber.org/zap"

	"verinest-onboarding/flows"
	"verinest-onboarding/shared"
	"verinest-onboarding/store"
	"verinest-onboarding/workflows"
)

// WorkflowClient is the part of the Temporal client the API uses.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	SignalWorkflow(ctx context.Context, workflowID string, runID string, signalName string, arg interface{}) error
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

// ProgressLoader reads saved wizard progress.
type ProgressLoader interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
}

type Handler struct {
	client   WorkflowClient
	progress ProgressLoader
	timeline shared.Timeline
	logger   *zap.Logger
}

// NewHandler wires the API. progress may be nil, in which case sessions always
// start from the first step.
func NewHandler(c WorkflowClient, progress ProgressLoader, timeline shared.Timeline, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: c, progress: progress, timeline: timeline, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	wz := rg.Group("/wizards/:flow", RequireBearer(), h.requireFlow)
	{
		wz.POST("", h.Start)
		wz.GET("", h.Status)
		wz.POST("/steps/:step", h.CompleteStep)
		wz.POST("/back", h.Back)
		wz.POST("/jump/:step", h.Jump)
		wz.DELETE("", h.Abandon)
	}
}

// NewRouter returns a gin engine serving the wizard API.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.RegisterRoutes(r.Group(""))
	return r
}

// WorkflowID is the one session a user may have per flow.
func WorkflowID(flow, userID string) string {
	return fmt.Sprintf("wizard-%s-%s", flow, userID)
}

func (h *Handler) requireFlow(c *gin.Context) {
	def, err := flows.ByName(c.Param("flow"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Set("definition", def)
	c.Next()
}

func (h *Handler) Start(c *gin.Context) {
	flow := c.Param("flow")
	sub := c.GetString(ctxSubject)
	ctx := c.Request.Context()

	req := shared.WizardRequest{
		SessionID: uuid.NewString(),
		Flow:      flow,
		User:      shared.UserInfo{UserID: sub, Email: c.GetString(ctxEmail)},
		AuthToken: c.GetString(ctxToken),
		Timeline:  h.timeline,
	}
	if h.progress != nil {
		blob, ok, err := h.progress.Load(ctx, store.Key(flow, sub))
		switch {
		case err != nil:
			h.logger.Warn("Failed to load saved progress", zap.String("flow", flow), zap.Error(err))
		case ok:
			req.Resume = blob
		}
	}

	run, err := h.client.ExecuteWorkflow(ctx,
		client.StartWorkflowOptions{
			ID:                       WorkflowID(flow, sub),
			TaskQueue:                shared.WizardWorkflowTaskQueue,
			WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
		},
		workflows.VerificationWizardWorkflow,
		req,
	)
	if err != nil {
		h.logger.Error("Unable to start wizard", zap.String("flow", flow), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to start wizard"})
		return
	}

	h.logger.Info("Wizard started",
		zap.String("workflowId", run.GetID()),
		zap.String("runId", run.GetRunID()),
		zap.Bool("resumed", req.Resume != nil),
	)
	// A reconnect attaches to the running session, whose session ID is only
	// known to the workflow; clients read it from the status query.
	c.JSON(http.StatusCreated, gin.H{
		"workflowId": run.GetID(),
		"runId":      run.GetRunID(),
	})
}

func (h *Handler) Status(c *gin.Context) {
	id := WorkflowID(c.Param("flow"), c.GetString(ctxSubject))
	val, err := h.client.QueryWorkflow(c.Request.Context(), id, "", shared.QueryWizardStatus)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	var status shared.WizardStatusResponse
	if err := val.Get(&status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decode status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

type stepRequest struct {
	Data map[string]string `json:"data"`
}

func (h *Handler) CompleteStep(c *gin.Context) {
	def := c.MustGet("definition").(flows.Definition)
	step := c.Param("step")
	if _, ok := def.Spec(flows.StepKey(step)); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown step %q", step)})
		return
	}
	var body stepRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.signal(c, shared.SignalStepCompleted, shared.StepUpdate{
		Step:      step,
		Data:      body.Data,
		AuthToken: c.GetString(ctxToken),
	})
}

func (h *Handler) Back(c *gin.Context) {
	h.signal(c, shared.SignalStepBack, nil)
}

func (h *Handler) Jump(c *gin.Context) {
	def := c.MustGet("definition").(flows.Definition)
	step := c.Param("step")
	if _, ok := def.Spec(flows.StepKey(step)); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown step %q", step)})
		return
	}
	h.signal(c, shared.SignalStepJump, step)
}

func (h *Handler) Abandon(c *gin.Context) {
	h.signal(c, shared.SignalAbandon, nil)
}

func (h *Handler) signal(c *gin.Context, name string, arg interface{}) {
	id := WorkflowID(c.Param("flow"), c.GetString(ctxSubject))
	if err := h.client.SignalWorkflow(c.Request.Context(), id, "", name, arg); err != nil {
		h.fail(c, id, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"workflowId": id})
}

func (h *Handler) fail(c *gin.Context, id string, err error) {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active wizard session"})
		return
	}
	h.logger.Error("Workflow call failed", zap.String("workflowId", id), zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
