package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// Run starts all servers and blocks until a termination signal arrives,
// then shuts everything down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.httpServer.Start(ctx); err != nil {
		return err
	}
	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}
	logrus.Info("app server started")

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	logrus.Info("signal received, shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("API server shutdown failed: %v", err)
	}
	if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("metrics server shutdown failed: %v", err)
	}
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(shutdownCtx); err != nil {
			logrus.Errorf("telemetry shutdown failed: %v", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.Errorf("Redis close failed: %v", err)
		}
	}

	return nil
}
