package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Cancel context to signal all components
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Wait for the scan loop to finish its current tick
	a.wg.Wait()

	// Close the event log last; the final summary still reads it
	err = a.eventLog.Close()
	if err != nil {
		a.logger.Error("event-log-close-error", zap.Error(err))
	}

	a.logger.Info("application-shutdown-complete")

	return nil
}
