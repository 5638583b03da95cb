package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-advisor/internal/config"
	"github.com/vzahanych/weather-advisor/pkg/logger"
	"github.com/vzahanych/weather-advisor/pkg/telemetry"
	"go.uber.org/zap"
)

// app is what every subcommand shares once PersistentPreRunE has run.
type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger
	tele       *telemetry.Telemetry
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "weather-advisor",
		Short: "Weather recommendations for farmers and travelers",
		Long: `Fetches current conditions and a short forecast from weather providers and turns
them into alerts, tasks, packing lists and travel outlooks.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to configuration file (default: ./config.yaml)")

	cmd.AddCommand(serverCmd(a))
	cmd.AddCommand(adviseCmd(a))

	return cmd
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rootCmd().ExecuteContext(ctx)
}

func (a *app) initialize(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	a.log, err = logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.tele, err = telemetry.New(ctx, cfg.Telemetry, cfg.Version)
	if err != nil {
		a.log.Warn("Failed to initialize telemetry", zap.Error(err))
	}

	return nil
}

func (a *app) close() error {
	if a.tele != nil {
		if err := a.tele.Shutdown(context.Background()); err != nil {
			a.log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return nil
}
