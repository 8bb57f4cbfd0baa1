package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"verinest-onboarding/events"
	"verinest-onboarding/flows"
	"verinest-onboarding/gateway"
	"verinest-onboarding/shared"
	"verinest-onboarding/store"
	"verinest-onboarding/wizard"
)

var reminderTypes = []string{"first", "second"}

// wizardWorkflow holds the hosted driver and the idle timeline.
type wizardWorkflow struct {
	driver   *wizard.Driver[flows.StepKey]
	timeline shared.Timeline
	key      string

	// lastActivity is the time of the user's last command; reminders counts the
	// reminders sent since then.
	lastActivity time.Time
	reminders    int
	notice       string
	submissions  int

	req    shared.WizardRequest
	token  string
	logger log.Logger
	actCtx workflow.Context

	completedCh workflow.ReceiveChannel
	backCh      workflow.ReceiveChannel
	jumpCh      workflow.ReceiveChannel
	abandonCh   workflow.ReceiveChannel
}

func newWizardWorkflow(ctx workflow.Context, req shared.WizardRequest) (*wizardWorkflow, error) {
	def, err := flows.ByName(req.Flow)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "UnknownFlow", nil)
	}
	reg, err := def.Registry(nil)
	if err != nil {
		return nil, err
	}

	w := &wizardWorkflow{
		driver:       wizard.NewDriver(reg, wizard.WithClock(func() time.Time { return workflow.Now(ctx) })),
		timeline:     req.Timeline.WithDefaults(),
		key:          store.Key(req.Flow, req.User.UserID),
		lastActivity: workflow.Now(ctx),
		req:          req,
		token:        req.AuthToken,
		logger:       workflow.GetLogger(ctx),
		completedCh:  workflow.GetSignalChannel(ctx, shared.SignalStepCompleted),
		backCh:       workflow.GetSignalChannel(ctx, shared.SignalStepBack),
		jumpCh:       workflow.GetSignalChannel(ctx, shared.SignalStepJump),
		abandonCh:    workflow.GetSignalChannel(ctx, shared.SignalAbandon),
	}

	if len(req.Resume) > 0 {
		if err := w.driver.RestoreFrom(req.Resume); err != nil {
			w.logger.Warn("Discarding saved progress", "sessionId", req.SessionID, "error", err)
		}
	}

	err = workflow.SetQueryHandler(ctx, shared.QueryWizardStatus, func() (shared.WizardStatusResponse, error) {
		return w.status(workflow.Now(ctx)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set query handler: %w", err)
	}

	actOpts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	w.actCtx = workflow.WithActivityOptions(ctx, actOpts)

	return w, nil
}

func (w *wizardWorkflow) status(now time.Time) shared.WizardStatusResponse {
	st := w.driver.State()
	completed := make([]string, 0, len(st.Completed))
	for _, k := range st.CompletedIn(w.driver.Registry()) {
		completed = append(completed, string(k))
	}
	lastErr := w.notice
	if err := w.driver.LastError(); err != nil {
		lastErr = err.Error()
	}
	hours := int(w.lastActivity.Add(w.timeline.Abandon).Sub(now).Hours())
	if hours < 0 {
		hours = 0
	}
	return shared.WizardStatusResponse{
		SessionID:         w.req.SessionID,
		Flow:              w.req.Flow,
		CurrentStep:       string(st.CurrentStep),
		CompletedSteps:    completed,
		Phase:             shared.WizardPhase(strings.ToUpper(string(w.driver.Phase()))),
		Data:              st.Data,
		LastError:         lastErr,
		HoursUntilAbandon: hours,
	}
}

// idleWait is the time left before the next reminder or abandonment.
func (w *wizardWorkflow) idleWait(now time.Time) time.Duration {
	deadlines := []time.Duration{w.timeline.FirstReminder, w.timeline.SecondReminder, w.timeline.Abandon}
	d := deadlines[w.reminders] - now.Sub(w.lastActivity)
	if d < time.Second {
		d = time.Second
	}
	return d
}

func (w *wizardWorkflow) touch(ctx workflow.Context) {
	w.lastActivity = workflow.Now(ctx)
	w.reminders = 0
	w.notice = ""
}

// waitForCommands runs the session until it completes or is abandoned. Every
// command restarts the idle timeline.
func (w *wizardWorkflow) waitForCommands(ctx workflow.Context) {
	for !w.driver.Done() {
		timerCtx, timerCancel := workflow.WithCancel(ctx)
		timerFuture := workflow.NewTimer(timerCtx, w.idleWait(workflow.Now(ctx)))
		idle := false

		selector := workflow.NewSelector(ctx)
		selector.AddFuture(timerFuture, func(f workflow.Future) {
			idle = f.Get(ctx, nil) == nil
		})
		selector.AddReceive(w.completedCh, func(ch workflow.ReceiveChannel, more bool) {
			var update shared.StepUpdate
			ch.Receive(ctx, &update)
			w.touch(ctx)
			w.completeStep(ctx, update)
		})
		selector.AddReceive(w.backCh, func(ch workflow.ReceiveChannel, more bool) {
			ch.Receive(ctx, nil)
			w.touch(ctx)
			if w.driver.Retreat(context.Background()) {
				w.saveProgress(ctx)
			}
		})
		selector.AddReceive(w.jumpCh, func(ch workflow.ReceiveChannel, more bool) {
			var step string
			ch.Receive(ctx, &step)
			w.touch(ctx)
			w.jump(ctx, flows.StepKey(step))
		})
		selector.AddReceive(w.abandonCh, func(ch workflow.ReceiveChannel, more bool) {
			ch.Receive(ctx, nil)
			w.abandon(ctx, "abandoned by user")
		})

		selector.Select(ctx)
		timerCancel()

		if idle {
			w.onIdle(ctx)
		}
	}
}

func (w *wizardWorkflow) completeStep(ctx workflow.Context, update shared.StepUpdate) {
	if update.AuthToken != "" {
		w.token = update.AuthToken
	}
	if cur := w.driver.Current(); flows.StepKey(update.Step) != cur {
		w.notice = fmt.Sprintf("step %q is not the current step %q", update.Step, cur)
		w.logger.Warn("Ignoring step update", "step", update.Step, "current", string(cur))
		return
	}
	t, err := w.driver.Complete(context.Background(), update.Data)
	if err != nil {
		w.notice = err.Error()
		w.logger.Info("Step not completed", "step", update.Step, "error", err)
		w.saveProgress(ctx)
		return
	}
	if t.Submit {
		w.submit(ctx)
		return
	}
	w.logger.Info("Step completed", "from", string(t.From), "to", string(t.To))
	w.saveProgress(ctx)
}

func (w *wizardWorkflow) jump(ctx workflow.Context, step flows.StepKey) {
	if err := w.driver.JumpTo(context.Background(), step); err != nil {
		w.notice = err.Error()
		w.logger.Info("Jump rejected", "step", string(step), "error", err)
		return
	}
	w.saveProgress(ctx)
}

// submit validates locally and, only when the data is complete, runs the
// submission child workflow.
func (w *wizardWorkflow) submit(ctx workflow.Context) {
	bg := context.Background()
	payload, err := gateway.BuildPayload(w.driver.State().Data)
	if err != nil {
		w.logger.Info("Submission blocked by local validation", "sessionId", w.req.SessionID, "error", err)
		w.driver.Resolve(bg, err)
		w.saveProgress(ctx)
		return
	}

	w.submissions++
	childOpts := workflow.ChildWorkflowOptions{
		WorkflowID: fmt.Sprintf("verify-submit-%s-%d", w.req.SessionID, w.submissions),
		TaskQueue:  shared.WizardWorkflowTaskQueue,
	}
	childCtx := workflow.WithChildOptions(ctx, childOpts)

	req := shared.SubmitRequest{
		SessionID: w.req.SessionID,
		AuthToken: w.token,
		Payload:   payload,
	}
	var result shared.VerificationResult
	err = workflow.ExecuteChildWorkflow(childCtx, SubmitVerificationWorkflow, req).Get(ctx, &result)
	if err == nil && !result.Passed {
		err = errors.New(result.Details)
	}
	w.driver.Resolve(bg, err)

	if err != nil {
		w.logger.Info("Verification not accepted", "sessionId", w.req.SessionID, "error", err)
		w.saveProgress(ctx)
		w.publish(ctx, events.TypeFailed, err.Error())
		return
	}

	w.logger.Info("Verification accepted",
		"sessionId", w.req.SessionID,
		"verificationId", result.VerificationID,
	)
	w.clearProgress(ctx)
	w.publish(ctx, events.TypeSubmitted, result.VerificationID)
}

func (w *wizardWorkflow) onIdle(ctx workflow.Context) {
	if w.reminders >= len(reminderTypes) {
		w.abandon(ctx, "idle timeout")
		return
	}
	reminderReq := shared.ReminderRequest{
		SessionID:    w.req.SessionID,
		UserID:       w.req.User.UserID,
		Email:        w.req.User.Email,
		Flow:         w.req.Flow,
		Step:         string(w.driver.Current()),
		ReminderType: reminderTypes[w.reminders],
	}
	w.reminders++

	var reminderID string
	err := workflow.ExecuteActivity(w.actCtx, a.SendReminder, reminderReq).Get(ctx, &reminderID)
	if err != nil {
		// A failed reminder never ends the session.
		w.logger.Error("Failed to send reminder", "error", err)
		return
	}
	w.logger.Info("Reminder sent", "reminderType", reminderReq.ReminderType, "reminderID", reminderID)
}

func (w *wizardWorkflow) abandon(ctx workflow.Context, reason string) {
	w.logger.Info("Wizard abandoned", "sessionId", w.req.SessionID, "reason", reason)
	w.driver.Reset(context.Background())
	w.clearProgress(ctx)
	w.publish(ctx, events.TypeAbandoned, reason)
}

func (w *wizardWorkflow) saveProgress(ctx workflow.Context) {
	snapshot, err := w.driver.Snapshot()
	if err != nil {
		w.logger.Warn("Failed to encode progress", "error", err)
		return
	}
	req := shared.ProgressRequest{Key: w.key, Snapshot: snapshot}
	if err := workflow.ExecuteActivity(w.actCtx, a.SaveProgress, req).Get(ctx, nil); err != nil {
		w.logger.Warn("Failed to save progress", "key", w.key, "error", err)
	}
}

func (w *wizardWorkflow) clearProgress(ctx workflow.Context) {
	if err := workflow.ExecuteActivity(w.actCtx, a.ClearProgress, w.key).Get(ctx, nil); err != nil {
		w.logger.Warn("Failed to clear progress", "key", w.key, "error", err)
	}
}

func (w *wizardWorkflow) publish(ctx workflow.Context, eventType, detail string) {
	e := events.Event{
		Type:      eventType,
		SessionID: w.req.SessionID,
		UserID:    w.req.User.UserID,
		Flow:      w.req.Flow,
		Detail:    detail,
		At:        workflow.Now(ctx),
	}
	if err := workflow.ExecuteActivity(w.actCtx, a.PublishOutcome, e).Get(ctx, nil); err != nil {
		w.logger.Warn("Failed to publish outcome", "type", eventType, "error", err)
	}
}

// VerificationWizardWorkflow hosts one user's verification wizard.
//
// The client drives the wizard with signals; the workflow owns the engine state
// and performs the single submission when the terminal step is completed.
//
// Idle timeline, measured from the last command:
//
//	24h  → first reminder
//	72h  → second reminder
//	7d   → abandoned, saved progress cleared
//
// Signals: SignalStepCompleted (StepUpdate), SignalStepBack, SignalStepJump
// (step key), SignalAbandon. Query: QueryWizardStatus.
func VerificationWizardWorkflow(ctx workflow.Context, req shared.WizardRequest) (string, error) {
	w, err := newWizardWorkflow(ctx, req)
	if err != nil {
		return "", err
	}

	w.logger.Info("Verification wizard started",
		"sessionId", req.SessionID,
		"flow", req.Flow,
		"step", string(w.driver.Current()),
	)

	w.waitForCommands(ctx)

	if w.driver.Phase() == wizard.PhaseComplete {
		return fmt.Sprintf("VERIFY-%s-SUBMITTED", req.SessionID), nil
	}
	return fmt.Sprintf("VERIFY-%s-ABANDONED", req.SessionID), nil
}
