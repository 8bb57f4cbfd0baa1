package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"verinest-onboarding/api"
	"verinest-onboarding/flows"
	"verinest-onboarding/gateway"
	"verinest-onboarding/logging"
	"verinest-onboarding/shared"
	"verinest-onboarding/store"
	"verinest-onboarding/wizard"
	"verinest-onboarding/workflows"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Start or reconnect to a hosted wizard session and drive it with signals",
	RunE:  runRemote,
}

type remoteSession struct {
	c          client.Client
	workflowID string
	token      string
	reg        *wizard.Registry[flows.StepKey]
	reader     *bufio.Reader

	// polls and pollInterval bound how long waitForResult watches the phase.
	polls        int
	pollInterval time.Duration
}

func newRemoteSession(c client.Client, workflowID, token string, reg *wizard.Registry[flows.StepKey], reader *bufio.Reader) *remoteSession {
	return &remoteSession{
		c:            c,
		workflowID:   workflowID,
		token:        token,
		reg:          reg,
		reader:       reader,
		polls:        60,
		pollInterval: 500 * time.Millisecond,
	}
}

func runRemote(cmd *cobra.Command, _ []string) error {
	cfg, logger, def, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx := cmd.Context()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logging.NewTemporalLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	req := shared.WizardRequest{
		SessionID: uuid.NewString(),
		Flow:      def.Name,
		User:      shared.UserInfo{UserID: userID, Email: email},
		AuthToken: authToken,
		Timeline:  cfg.Wizard.Timeline(),
	}
	if st, err := store.Open(ctx, cfg.Store); err == nil {
		if blob, ok, err := st.Load(ctx, store.Key(def.Name, userID)); err == nil && ok {
			req.Resume = blob
		}
		_ = st.Close()
	} else {
		logger.Warn("Saved progress unavailable", zap.Error(err))
	}

	// The workflow ID is per user and flow, so re-running reconnects to a live session.
	workflowID := api.WorkflowID(def.Name, userID)
	fmt.Println()
	fmt.Printf("🚀 Starting %s wizard for %s\n", def.Name, userID)

	we, err := c.ExecuteWorkflow(ctx,
		client.StartWorkflowOptions{
			ID:                       workflowID,
			TaskQueue:                shared.WizardWorkflowTaskQueue,
			WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
		},
		workflows.VerificationWizardWorkflow,
		req,
	)
	if err != nil {
		return fmt.Errorf("unable to start workflow: %w", err)
	}
	fmt.Printf("   WorkflowID: %s\n", we.GetID())
	fmt.Printf("   RunID:      %s\n", we.GetRunID())

	reader := bufio.NewReader(os.Stdin)
	reg, err := def.Registry(&flows.Deps{
		Prompter: flows.NewTerminalPrompter(reader, os.Stdout),
		Uploader: gateway.NewUploader(cfg.Upload.URL, cfg.Upload.Preset, logger.Named("upload")),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	s := newRemoteSession(c, workflowID, authToken, reg, reader)

	for {
		fmt.Println()
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println("  VeriNest Verification Wizard")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println()
		fmt.Println("  [1] Fill in the current step")
		fmt.Println("  [2] Go back one step")
		fmt.Println("  [3] Jump to a step")
		fmt.Println("  [4] Query wizard status")
		fmt.Println("  [5] Abandon the wizard")
		fmt.Println("  [6] Exit (session keeps running)")
		fmt.Println()
		fmt.Print("Choose: ")

		choice, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}

		switch strings.TrimSpace(choice) {
		case "1":
			if s.fillCurrentStep(ctx) {
				if done, err := s.waitForResult(ctx, we); done || err != nil {
					return err
				}
			}
		case "2":
			s.signal(ctx, shared.SignalStepBack, nil)
		case "3":
			fmt.Printf("Step (%s): ", strings.Join(stepNames(reg), ", "))
			step, _ := reader.ReadString('\n')
			s.signal(ctx, shared.SignalStepJump, strings.TrimSpace(step))
		case "4":
			s.printStatus(ctx)
		case "5":
			s.signal(ctx, shared.SignalAbandon, nil)
			if done, err := s.waitForResult(ctx, we); done || err != nil {
				return err
			}
		case "6":
			fmt.Println()
			fmt.Println("👋 Exiting CLI. The wizard session keeps running in Temporal.")
			fmt.Println("   Re-run this program to reconnect, or view at http://localhost:8233")
			return nil
		default:
			fmt.Println("❌ Invalid choice. Please enter 1 to 6.")
		}
	}
}

// fillCurrentStep prompts for the current step and signals the answers. It
// reports whether the terminal step was sent, which starts the submission.
func (s *remoteSession) fillCurrentStep(ctx context.Context) bool {
	status, err := s.status(ctx)
	if err != nil {
		fmt.Printf("❌ Query failed: %v\n", err)
		return false
	}
	step, err := s.reg.Lookup(flows.StepKey(status.CurrentStep))
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return false
	}

	data, err := step.Handler.Run(ctx, status.Data)
	switch {
	case errors.Is(err, wizard.ErrBack):
		s.signal(ctx, shared.SignalStepBack, nil)
		return false
	case errors.Is(err, wizard.ErrAbandon):
		s.signal(ctx, shared.SignalAbandon, nil)
		return true
	case err != nil:
		fmt.Printf("❌ %v\n", err)
		return false
	}

	s.signal(ctx, shared.SignalStepCompleted, shared.StepUpdate{
		Step:      status.CurrentStep,
		Data:      data,
		AuthToken: s.token,
	})
	return step.Key == s.reg.Last() && data["review_confirmed"] == "true"
}

func (s *remoteSession) signal(ctx context.Context, name string, arg interface{}) {
	if err := s.c.SignalWorkflow(ctx, s.workflowID, "", name, arg); err != nil {
		fmt.Printf("❌ Unable to signal workflow: %v\n", err)
		return
	}
	fmt.Println("✅ Signal sent!")
}

func (s *remoteSession) status(ctx context.Context) (shared.WizardStatusResponse, error) {
	var status shared.WizardStatusResponse
	resp, err := s.c.QueryWorkflow(ctx, s.workflowID, "", shared.QueryWizardStatus)
	if err != nil {
		return status, err
	}
	err = resp.Get(&status)
	return status, err
}

func (s *remoteSession) printStatus(ctx context.Context) {
	status, err := s.status(ctx)
	if err != nil {
		fmt.Printf("❌ Query failed: %v\n", err)
		return
	}
	fmt.Printf("\n📋 %s: step %q, phase %s (%d hours until abandonment)\n",
		status.Flow, status.CurrentStep, status.Phase, status.HoursUntilAbandon)
	fmt.Printf("   Completed: %s\n", strings.Join(status.CompletedSteps, ", "))
	if status.LastError != "" {
		fmt.Printf("   ⚠️  %s\n", status.LastError)
	}
}

// waitForResult watches the phase after a submission or abandon. It reports
// done once the session has ended; a rejected submission, a failed query or a
// session still submitting returns to the menu without blocking on the run.
func (s *remoteSession) waitForResult(ctx context.Context, we client.WorkflowRun) (bool, error) {
	for i := 0; i < s.polls; i++ {
		status, err := s.status(ctx)
		if err != nil {
			fmt.Printf("❌ Query failed: %v\n", err)
			return false, nil
		}
		switch status.Phase {
		case shared.PhaseFailed:
			fmt.Printf("❌ %s\n", status.LastError)
			fmt.Println("   Review your answers and submit again.")
			return false, nil
		case shared.PhaseComplete, shared.PhaseAbandoned:
			var result string
			if err := we.Get(ctx, &result); err != nil {
				return true, fmt.Errorf("workflow failed: %w", err)
			}
			fmt.Printf("🏁 Result: %s\n", result)
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
	fmt.Println("⏳ Still submitting. Query the status from the menu.")
	return false, nil
}

func stepNames(reg *wizard.Registry[flows.StepKey]) []string {
	keys := reg.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return names
}
