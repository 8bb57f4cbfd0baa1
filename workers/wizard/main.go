package main

import (
	"log"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"verinest-onboarding/config"
	"verinest-onboarding/logging"
	"verinest-onboarding/shared"
	"verinest-onboarding/workflows"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("VERINEST_CONFIG"))
	if err != nil {
		log.Fatalf("Unable to load config: %v", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Unable to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logging.NewTemporalLogger(logger),
	})
	if err != nil {
		logger.Fatal("Unable to create Temporal client", zap.Error(err))
	}
	defer c.Close()

	// Workflow tasks do no I/O; the engine and flow registries run in memory on replay.
	w := worker.New(c, shared.WizardWorkflowTaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.VerificationWizardWorkflow)
	w.RegisterWorkflow(workflows.SubmitVerificationWorkflow)

	logger.Info("Starting wizard workflow worker", zap.String("taskQueue", shared.WizardWorkflowTaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("Unable to start worker", zap.Error(err))
	}
}
