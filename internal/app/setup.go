package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-hedge/internal/clob"
	"github.com/mselser95/polymarket-hedge/internal/depth"
	"github.com/mselser95/polymarket-hedge/internal/eventlog"
	"github.com/mselser95/polymarket-hedge/internal/executor"
	"github.com/mselser95/polymarket-hedge/internal/gateway"
	"github.com/mselser95/polymarket-hedge/internal/notify"
	"github.com/mselser95/polymarket-hedge/internal/orchestrator"
	"github.com/mselser95/polymarket-hedge/internal/reporter"
	"github.com/mselser95/polymarket-hedge/internal/risk"
	"github.com/mselser95/polymarket-hedge/internal/scanner"
	"github.com/mselser95/polymarket-hedge/pkg/cache"
	"github.com/mselser95/polymarket-hedge/pkg/config"
	"github.com/mselser95/polymarket-hedge/pkg/healthprobe"
	"github.com/mselser95/polymarket-hedge/pkg/httpserver"
	"github.com/mselser95/polymarket-hedge/pkg/wallet"
)

// Seven kill conditions: partial-fill streak, partial fills per day, API
// errors in 10m, latency, thin books, trades per hour, exposure cap.
const killSwitchCount = 7

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	gatewayClient, err := setupGateway(cfg, logger, marketCache)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup gateway: %w", err)
	}

	clobClient, err := setupClob(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup clob client: %w", err)
	}

	eventLog, err := eventlog.Open(cfg.DBPath)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open event log: %w", err)
	}

	riskManager, err := setupRisk(cfg, logger)
	if err != nil {
		cancel()
		eventLog.Close()
		return nil, fmt.Errorf("setup risk manager: %w", err)
	}

	depthProbe, err := depth.New(depth.Config{
		MaxSpread:   cfg.MaxSpread,
		MinDepthUSD: cfg.MinDepthUSD,
		Books:       clobClient,
		Risk:        riskManager,
		Recorder:    eventLog,
		Logger:      logger,
	})
	if err != nil {
		cancel()
		eventLog.Close()
		return nil, fmt.Errorf("setup depth probe: %w", err)
	}

	scanners, patternScanner, err := setupScanners(cfg, logger, gatewayClient, eventLog)
	if err != nil {
		cancel()
		eventLog.Close()
		return nil, fmt.Errorf("setup scanners: %w", err)
	}

	telegram, err := notify.NewTelegram(&notify.TelegramConfig{
		Token:   cfg.TelegramToken,
		ChatIDs: cfg.TelegramChatIDs,
		Logger:  logger,
	})
	if err != nil {
		cancel()
		eventLog.Close()
		return nil, fmt.Errorf("setup telegram: %w", err)
	}

	rep := reporter.New(reporter.Config{
		AutoTrade:    cfg.AutoTrade,
		ScanInterval: cfg.ScanInterval,
		TradeBudget:  cfg.TradeBudget,
		Bankroll:     cfg.Bankroll,
		FeeRate:      cfg.FeeRate,
		MaxSpread:    cfg.MaxSpread,
		MinDepthUSD:  cfg.MinDepthUSD,
	})

	exec, err := executor.New(executor.Config{
		AutoTrade:   cfg.AutoTrade,
		TradeBudget: cfg.TradeBudget,
		Bankroll:    cfg.Bankroll,
		MaxExposure: cfg.KillMaxExposurePct,
		Orders:      clobClient,
		Depth:       depthProbe,
		Risk:        riskManager,
		Log:         eventLog,
		Notifier:    telegram,
		Logger:      logger,
	})
	if err != nil {
		cancel()
		eventLog.Close()
		return nil, fmt.Errorf("setup executor: %w", err)
	}

	walletClient, err := setupWallet(cfg, logger)
	if err != nil {
		cancel()
		eventLog.Close()
		return nil, fmt.Errorf("setup wallet: %w", err)
	}

	orchCfg := orchestrator.Config{
		ScanInterval:     cfg.ScanInterval,
		SummaryInterval:  cfg.SummaryInterval,
		RealertThreshold: cfg.RealertThreshold,
		AutoTrade:        cfg.AutoTrade,
		Scanners:         scanners,
		Executor:         exec,
		Log:              eventLog,
		Reporter:         rep,
		Sink:             telegram,
		Risk:             riskManager,
		Logger:           logger,
	}
	if walletClient != nil {
		orchCfg.Wallet = walletClient
	}

	orch, err := orchestrator.New(orchCfg)
	if err != nil {
		cancel()
		eventLog.Close()
		return nil, fmt.Errorf("setup orchestrator: %w", err)
	}

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		EventLog:      eventLog,
	})

	assets := scanner.DefaultAssets()
	levels := 0
	for _, a := range assets {
		levels += len(a.Levels)
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		eventLog:      eventLog,
		riskManager:   riskManager,
		scanners:      scanners,
		executor:      exec,
		telegram:      telegram,
		reporter:      rep,
		orchestrator:  orch,
		walletClient:  walletClient,
		startupInfo: reporter.StartupInfo{
			EventLimit:      cfg.EventGroupLimit,
			ThresholdAssets: len(assets),
			ThresholdLevels: levels,
			Patterns:        patternScanner.PatternCount(),
			KillSwitches:    killSwitchCount,
			DBPath:          cfg.DBPath,
			OrdersEnabled:   cfg.PrivateKey != "",
		},
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupGateway(cfg *config.Config, logger *zap.Logger, marketCache cache.Cache) (*gateway.Client, error) {
	return gateway.NewClient(&gateway.Config{
		BaseURL:   cfg.GammaAPIURL,
		Timeout:   cfg.HTTPTimeout,
		RateLimit: cfg.GatewayRateLimit,
		Burst:     cfg.GatewayBurst,
		Cache:     marketCache,
		Logger:    logger,
	})
}

func setupClob(cfg *config.Config, logger *zap.Logger) (*clob.Client, error) {
	return clob.NewClient(&clob.Config{
		BaseURL:    cfg.ClobAPIURL,
		Timeout:    cfg.HTTPTimeout,
		APIKey:     cfg.APIKey,
		Secret:     cfg.APISecret,
		Passphrase: cfg.APIPassphrase,
		PrivateKey: cfg.PrivateKey,
		Logger:     logger,
	})
}

func setupRisk(cfg *config.Config, logger *zap.Logger) (*risk.Manager, error) {
	return risk.New(&risk.Config{
		Limits: risk.Limits{
			PartialFillStreak: cfg.KillPartialFillStreak,
			PartialFillDay:    cfg.KillPartialFillDay,
			APIErrors10m:      cfg.KillAPIErrors10m,
			LatencyMs:         cfg.KillLatencyMs,
			LatencyWindow:     cfg.KillLatencyWindow,
			ThinBookScans:     cfg.KillThinBookScans,
			MaxTradesPerHour:  cfg.KillMaxTradesPerHour,
			MaxExposurePct:    cfg.KillMaxExposurePct,
		},
		Logger: logger,
	})
}

func setupScanners(
	cfg *config.Config,
	logger *zap.Logger,
	source scanner.MarketSource,
	incidents scanner.IncidentRecorder,
) ([]scanner.Scanner, *scanner.PatternScanner, error) {
	eventGroup, err := scanner.NewEventGroupScanner(&scanner.EventGroupConfig{
		Source:       source,
		Incidents:    incidents,
		Logger:       logger,
		EventLimit:   cfg.EventGroupLimit,
		MinVolume24h: cfg.MinEventVolume24h,
		MinProfit:    cfg.MinProfitPerDollar,
		FeeRate:      cfg.FeeRate,
		Keywords:     cfg.ExclusivityKeywords,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("event group scanner: %w", err)
	}

	threshold, err := scanner.NewThresholdScanner(&scanner.ThresholdConfig{
		Source:    source,
		Logger:    logger,
		MinProfit: cfg.MinProfitPerDollar,
		FeeRate:   cfg.FeeRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("threshold scanner: %w", err)
	}

	pattern, err := scanner.NewPatternScanner(&scanner.PatternConfig{
		Source:       source,
		Logger:       logger,
		PatternsFile: cfg.PatternsFile,
		MinProfit:    cfg.MinProfitPerDollar,
		FeeRate:      cfg.FeeRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("pattern scanner: %w", err)
	}

	return []scanner.Scanner{eventGroup, threshold, pattern}, pattern, nil
}

func setupWallet(cfg *config.Config, logger *zap.Logger) (*wallet.Client, error) {
	if cfg.WalletAddress == "" {
		return nil, nil
	}

	return wallet.NewClient(cfg.PolygonRPCURL, cfg.WalletAddress, logger)
}
