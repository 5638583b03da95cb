package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-advisor/internal/server"
	"github.com/vzahanych/weather-advisor/internal/server/middlewares"
	"go.uber.org/zap"
)

func serverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP API",
		Long:  `Start the HTTP server exposing weather, location and recommendation endpoints with caching and observability.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServer(cmd)
		},
	}
}

func (a *app) runServer(cmd *cobra.Command) error {
	a.log.Info("Starting weather advisor server",
		zap.String("config_path", a.configPath),
		zap.String("environment", a.cfg.Environment),
		zap.Bool("telemetry_enabled", a.cfg.Telemetry.Enabled),
		zap.Int("server_port", a.cfg.Server.Port))

	metrics := middlewares.NewMetrics()
	deps, err := a.buildComponents(metrics)
	if err != nil {
		a.log.Error("Failed to build components", zap.Error(err))
		return err
	}
	defer deps.cache.Close()

	srv := server.NewServer(a.cfg, server.Deps{
		Aggregator: deps.agg,
		Location:   deps.geo,
		Engine:     deps.engine,
		Metrics:    metrics,
	}, a.log, a.tele)

	if err := srv.Start(cmd.Context()); err != nil {
		a.log.Error("Server error", zap.Error(err))
		return err
	}

	a.log.Info("Server shutdown complete")
	return nil
}
