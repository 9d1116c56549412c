package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/claimcheck/internal/config"
	"github.com/agenthands/claimcheck/internal/core"
	"github.com/agenthands/claimcheck/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// ListenAndServe builds the pipeline from cfg and serves the API until ctx is done.
func ListenAndServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	p, closeAll, err := core.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeAll(context.Background()); err != nil {
			logger.Warn("failed to close connections", zap.Error(err))
		}
	}()

	srv := NewServer(p, cfg.Telemetry.ServiceName, logging.Component(logger, "server"))
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
