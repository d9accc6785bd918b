package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.Bool("auto-trade", a.cfg.AutoTrade),
		zap.Duration("scan-interval", a.cfg.ScanInterval),
		zap.String("log-level", a.cfg.LogLevel))

	a.startComponents()

	// Mark as ready
	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.Int("scanners", len(a.scanners)),
		zap.Bool("telegram", a.telegram.Configured()))

	a.sendStartupBanner()

	// Wait for shutdown signal
	return a.waitForShutdown()
}

func (a *App) startComponents() {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Start the scan loop
	a.wg.Add(1)
	go a.runOrchestrator()
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runOrchestrator() {
	defer a.wg.Done()
	err := a.orchestrator.Run(a.ctx)
	if err != nil {
		a.logger.Error("orchestrator-error", zap.Error(err))
	}
}

func (a *App) sendStartupBanner() {
	banner := a.reporter.Startup(a.startupInfo)
	if err := a.telegram.Send(a.ctx, banner); err != nil {
		a.logger.Warn("startup-banner-send-failed", zap.Error(err))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
