package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownFunc is a cleanup hook invoked during graceful shutdown
type ShutdownFunc func(context.Context) error

// GracefulShutdown blocks until SIGINT/SIGTERM, shuts down the HTTP server,
// then runs the cleanup hooks in order under a shared timeout.
func GracefulShutdown(logger *Logger, server *http.Server, timeout time.Duration, shutdownFuncs ...ShutdownFunc) error {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Infof("Received signal %s, starting graceful shutdown", sig)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("HTTP server shutdown error")
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
		logger.Info("HTTP server shutdown complete")
	}

	var failed int
	for i, fn := range shutdownFuncs {
		if err := fn(ctx); err != nil {
			logger.WithError(err).Errorf("Shutdown hook %d failed", i)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("shutdown completed with %d errors", failed)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}
