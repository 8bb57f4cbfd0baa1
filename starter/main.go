// Command starter drives verification wizards from a terminal, either through a
// hosted workflow session (remote) or fully in process (local).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"verinest-onboarding/config"
	"verinest-onboarding/flows"
	"verinest-onboarding/logging"
)

var (
	configPath string
	flowName   string
	userID     string
	email      string
	authToken  string
)

var rootCmd = &cobra.Command{
	Use:           "starter",
	Short:         "Run a VeriNest verification wizard",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("VERINEST_CONFIG"), "path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flowName, "flow", flows.NameKYC, fmt.Sprintf("wizard flow %v", flows.Names()))
	rootCmd.PersistentFlags().StringVar(&userID, "user", "USER-001", "user ID owning the session")
	rootCmd.PersistentFlags().StringVar(&email, "email", "", "email used for reminders")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("VERINEST_TOKEN"), "bearer token for the verification API")

	rootCmd.AddCommand(remoteCmd, localCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, flows.Definition, error) {
	def, err := flows.ByName(flowName)
	if err != nil {
		return nil, nil, flows.Definition{}, err
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, flows.Definition{}, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, flows.Definition{}, err
	}
	return cfg, logger, def, nil
}
