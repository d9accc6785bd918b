// Package app wires the hedge engine together and runs it.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/eventlog"
	"github.com/mselser95/polymarket-hedge/internal/executor"
	"github.com/mselser95/polymarket-hedge/internal/notify"
	"github.com/mselser95/polymarket-hedge/internal/orchestrator"
	"github.com/mselser95/polymarket-hedge/internal/reporter"
	"github.com/mselser95/polymarket-hedge/internal/risk"
	"github.com/mselser95/polymarket-hedge/internal/scanner"
	"github.com/mselser95/polymarket-hedge/pkg/config"
	"github.com/mselser95/polymarket-hedge/pkg/healthprobe"
	"github.com/mselser95/polymarket-hedge/pkg/httpserver"
	"github.com/mselser95/polymarket-hedge/pkg/wallet"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	eventLog      *eventlog.Store
	riskManager   *risk.Manager
	scanners      []scanner.Scanner
	executor      *executor.Executor
	telegram      *notify.Telegram
	reporter      *reporter.Reporter
	orchestrator  *orchestrator.Orchestrator
	walletClient  *wallet.Client
	startupInfo   reporter.StartupInfo
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
