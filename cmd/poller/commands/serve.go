package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/mountain-weather-poller/internal/config"
	httphandler "github.com/kjstillabower/mountain-weather-poller/internal/http"
	"github.com/kjstillabower/mountain-weather-poller/internal/observability"
	"github.com/kjstillabower/mountain-weather-poller/internal/service"
)

const inFlightCheckInterval = 100 * time.Millisecond

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll every enabled domain and serve snapshots over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := observability.NewLogger()
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				logger.Error("config", zap.Error(err))
				_ = logger.Sync()
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

// serve runs until ctx is done, then shuts down in order: drain health,
// stop accepting requests, wait for in-flight requests, stop pollers, flush.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	svc, err := service.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	srv := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     svc.Handler(),
		ReadTimeout: 10 * time.Second,
		// ?wait=true refreshes may block for the refresh wait timeout.
		WriteTimeout: cfg.RefreshWaitTimeout + 10*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if err := svc.Start(); err != nil {
		_ = srv.Close()
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("graceful shutdown triggered")
	case err := <-serveErr:
		if err != nil {
			logger.Error("server", zap.Error(err))
			runErr = err
		}
	}

	svc.Drain()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	if err := httphandler.WaitForInFlight(shutdownCtx, inFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := svc.Stop(shutdownCtx); err != nil {
		logger.Error("poller stop", zap.Error(err))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return runErr
}
