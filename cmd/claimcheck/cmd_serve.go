package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/server"
	"github.com/agenthands/claimcheck/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves POST /api/verify, POST /triples, GET /health and GET /metrics until
interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (overrides server.port)")
	serveCmd.Flags().Bool("time-steps", false, "include per-stage timing_info in responses")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("time_steps", serveCmd.Flags().Lookup("time-steps"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	return server.ListenAndServe(ctx, cfg, logger)
}
