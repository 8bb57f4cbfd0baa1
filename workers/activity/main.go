package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"verinest-onboarding/activities"
	"verinest-onboarding/config"
	"verinest-onboarding/events"
	"verinest-onboarding/gateway"
	"verinest-onboarding/logging"
	"verinest-onboarding/shared"
	"verinest-onboarding/store"
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

	st, err := store.Open(context.Background(), cfg.Store)
	if err != nil {
		logger.Fatal("Unable to open wizard store", zap.Error(err))
	}
	defer st.Close()

	pub, err := events.Open(cfg.Events, logger)
	if err != nil {
		logger.Fatal("Unable to open event publisher", zap.Error(err))
	}
	defer pub.Close()

	// Submission is single-attempt; keep concurrency modest to protect the verification backend.
	w := worker.New(c, shared.ActivityTaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 100,
	})

	a := &activities.Activities{
		Gateway: gateway.NewClient(cfg.API.BaseURL,
			gateway.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
			gateway.WithLogger(logger.Named("gateway")),
		),
		Store:     st,
		Publisher: pub,
	}
	w.RegisterActivity(a)

	logger.Info("Starting activity worker",
		zap.String("taskQueue", shared.ActivityTaskQueue),
		zap.String("store", cfg.Store.Driver),
		zap.String("events", cfg.Events.Driver),
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("Unable to start worker", zap.Error(err))
	}
}
