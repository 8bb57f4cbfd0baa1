package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"verinest-onboarding/events"
	"verinest-onboarding/flows"
	"verinest-onboarding/gateway"
	"verinest-onboarding/store"
	"verinest-onboarding/wizard"
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Fill in a wizard in this process, resuming saved progress",
	RunE:  runLocal,
}

func runLocal(cmd *cobra.Command, _ []string) error {
	cfg, logger, def, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx := cmd.Context()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open wizard store: %w", err)
	}
	defer st.Close()

	pub, err := events.Open(cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("failed to open event publisher: %w", err)
	}
	defer pub.Close()

	reg, err := def.Registry(&flows.Deps{
		Prompter: flows.NewTerminalPrompter(os.Stdin, os.Stdout),
		Uploader: gateway.NewUploader(cfg.Upload.URL, cfg.Upload.Preset, logger.Named("upload")),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	driver := wizard.NewDriver(reg,
		wizard.WithStore(st, store.Key(def.Name, userID)),
		wizard.WithLogger(logger.Named("wizard")),
	)
	if driver.Restore(ctx) {
		fmt.Printf("\n↩️  Resuming %s at step %q\n", def.Name, driver.Current())
	}

	sessionID := uuid.NewString()
	client := gateway.NewClient(cfg.API.BaseURL,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		gateway.WithLogger(logger.Named("gateway")),
	)
	publish := func(ctx context.Context, eventType, detail string) {
		err := pub.Publish(ctx, events.Event{
			Type:      eventType,
			SessionID: sessionID,
			UserID:    userID,
			Flow:      def.Name,
			Detail:    detail,
			At:        time.Now().UTC(),
		})
		if err != nil {
			logger.Warn("Failed to publish outcome", zap.String("type", eventType), zap.Error(err))
		}
	}

	runner := wizard.NewRunner(driver, flows.NewSubmitter(client, authToken),
		wizard.OnNotice[flows.StepKey](func(step flows.StepKey, err error) {
			fmt.Printf("⚠️  %v\n", err)
		}),
		wizard.OnComplete[flows.StepKey](func(ctx context.Context, _ wizard.State[flows.StepKey]) {
			publish(ctx, events.TypeSubmitted, "")
		}),
		wizard.WithRunnerLogger[flows.StepKey](logger.Named("runner")),
	)

	for {
		err := runner.Run(ctx)
		switch {
		case err == nil:
			fmt.Println("\n🏁 Verification submitted. We will let you know once it is reviewed.")
			return nil
		case errors.Is(err, wizard.ErrAbandon):
			publish(ctx, events.TypeAbandoned, "abandoned by user")
			fmt.Println("\n👋 Wizard abandoned. Saved progress was cleared.")
			return nil
		case errors.Is(err, wizard.ErrBack):
			fmt.Println("Already at the first step.")
			continue
		case driver.Phase() == wizard.PhaseFailed:
			publish(ctx, events.TypeFailed, err.Error())
			fmt.Printf("\n❌ %s\n", gateway.UserMessage(err))
			fmt.Println("   Your answers are kept; review them and submit again, or type quit.")
			continue
		default:
			return err
		}
	}
}
