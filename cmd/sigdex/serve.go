package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sigdex/internal/config"
	chiTransport "github.com/kailas-cloud/sigdex/internal/transport/chi"
	collectuc "github.com/kailas-cloud/sigdex/internal/usecase/collect"
	"github.com/kailas-cloud/sigdex/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled queue flush",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, env, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		logger.Info("Starting sigdex API server",
			zap.String("version", version.Version),
			zap.String("commit", version.Commit),
			zap.String("env", env),
			zap.Int("http_port", cfg.HTTP.Port),
			zap.Strings("db_addrs", cfg.Database.Addrs),
		)
		return serve(cmd.Context(), cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	created, err := a.signals.EnsureIndex(ctx)
	if err != nil {
		a.close(ctx)
		return fmt.Errorf("ensure index: %w", err)
	}
	logger.Info("Signal index ready",
		zap.String("index", a.signals.IndexName()),
		zap.Bool("created", created),
	)

	var scheduler *collectuc.Scheduler
	if cfg.Collect.FlushSchedule != config.ScheduleOff {
		scheduler, err = collectuc.NewScheduler(a.collect, cfg.Collect.FlushSchedule, logger)
		if err != nil {
			a.close(ctx)
			return fmt.Errorf("flush schedule: %w", err)
		}
		scheduler.Start()
		logger.Info("Queue flush scheduled", zap.String("schedule", cfg.Collect.FlushSchedule))
	}

	server := chiTransport.NewServer(a.collect, a.search, a.signals, a.health, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  config.Seconds(cfg.HTTP.ReadTimeoutSec),
		WriteTimeout: config.Seconds(cfg.HTTP.WriteTimeoutSec),
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case runErr = <-serveErr:
		logger.Error("HTTP server error", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Seconds(cfg.HTTP.ShutdownSec))
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	a.close(shutdownCtx)

	logger.Info("Server stopped gracefully")
	return runErr
}
