package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Default keyword set for the event-group exclusivity heuristic.
const defaultExclusivityKeywords = "winner,nominee,who will,which,election,primary,champion,wins,best,award,Oscar,Grammy,World Cup,Super Bowl,NBA,NHL,UFC,Formula 1"

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string
	DBPath   string

	// Venue endpoints
	GammaAPIURL string
	ClobAPIURL  string
	ClobWSURL   string

	// Scheduling
	ScanInterval    time.Duration
	SummaryInterval time.Duration

	// Economics
	MinProfitPerDollar float64
	FeeRate            float64
	MinEventVolume24h  float64
	RealertThreshold   float64

	// Execution
	AutoTrade   bool
	TradeBudget float64
	Bankroll    float64
	MaxSpread   float64
	MinDepthUSD float64

	// Kill switches
	KillPartialFillStreak int
	KillPartialFillDay    int
	KillAPIErrors10m      int
	KillLatencyMs         float64
	KillLatencyWindow     time.Duration
	KillThinBookScans     int
	KillMaxTradesPerHour  int
	KillMaxExposurePct    float64

	// Scanners
	EventGroupLimit     int
	ExclusivityKeywords []string
	PatternsFile        string

	// Gateway client
	GatewayRateLimit float64
	GatewayBurst     int
	HTTPTimeout      time.Duration

	// Order auth (never logged)
	PrivateKey    string
	APIKey        string
	APISecret     string
	APIPassphrase string

	// Wallet
	WalletAddress string
	PolygonRPCURL string

	// Notifications
	TelegramToken   string
	TelegramChatIDs []string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),
		DBPath:   getEnvOrDefault("DB_PATH", "hedge_data.db"),

		// Venue endpoint defaults
		GammaAPIURL: getEnvOrDefault("GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		ClobAPIURL:  getEnvOrDefault("CLOB_API_URL", "https://clob.polymarket.com"),
		ClobWSURL:   getEnvOrDefault("CLOB_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),

		// Scheduling defaults
		ScanInterval:    getDurationOrDefault("SCAN_INTERVAL", 180*time.Second),
		SummaryInterval: getDurationOrDefault("SUMMARY_INTERVAL", 900*time.Second),

		// Economics defaults
		MinProfitPerDollar: getFloat64OrDefault("MIN_PROFIT_PER_DOLLAR", 0.003),
		// Flat per-opportunity estimate charged as 2x this rate; it over-counts
		// maker-side fills on purpose.
		FeeRate:           getFloat64OrDefault("POLY_FEE", 0.02),
		MinEventVolume24h: getFloat64OrDefault("MIN_EVENT_VOLUME_24H", 5000),
		RealertThreshold:  getFloat64OrDefault("REALERT_THRESHOLD", 0.05),

		// Execution defaults
		AutoTrade:   getBoolOrDefault("AUTO_TRADE", false),
		TradeBudget: getFloat64OrDefault("TRADE_BUDGET", 50),
		Bankroll:    getFloat64OrDefault("BANKROLL", 100),
		MaxSpread:   getFloat64OrDefault("MAX_SPREAD", 0.05),
		MinDepthUSD: getFloat64OrDefault("MIN_DEPTH_USD", 20),

		// Kill-switch defaults
		KillPartialFillStreak: getIntOrDefault("KILL_PARTIAL_FILL_STREAK", 3),
		KillPartialFillDay:    getIntOrDefault("KILL_PARTIAL_FILL_DAY", 8),
		KillAPIErrors10m:      getIntOrDefault("KILL_API_ERRORS_10M", 5),
		KillLatencyMs:         getFloat64OrDefault("KILL_LATENCY_MS", 4000),
		KillLatencyWindow:     getDurationOrDefault("KILL_LATENCY_WINDOW_SEC", 120*time.Second),
		KillThinBookScans:     getIntOrDefault("KILL_THIN_BOOK_SCANS", 4),
		KillMaxTradesPerHour:  getIntOrDefault("KILL_MAX_TRADES_PER_HOUR", 20),
		KillMaxExposurePct:    getFloat64OrDefault("KILL_MAX_EXPOSURE_PCT", 0.5),

		// Scanner defaults
		EventGroupLimit:     getIntOrDefault("EVENT_GROUP_LIMIT", 50),
		ExclusivityKeywords: getListOrDefault("EXCLUSIVITY_KEYWORDS", defaultExclusivityKeywords),
		PatternsFile:        os.Getenv("PATTERNS_FILE"),

		// Gateway client defaults
		GatewayRateLimit: getFloat64OrDefault("GATEWAY_RATE_LIMIT", 5),
		GatewayBurst:     getIntOrDefault("GATEWAY_BURST", 10),
		HTTPTimeout:      getDurationOrDefault("HTTP_TIMEOUT", 30*time.Second),

		// Secrets
		PrivateKey:    os.Getenv("PRIVATE_KEY"),
		APIKey:        os.Getenv("POLY_API_KEY"),
		APISecret:     os.Getenv("POLY_API_SECRET"),
		APIPassphrase: os.Getenv("POLY_API_PASSPHRASE"),

		// Wallet defaults
		WalletAddress: os.Getenv("WALLET_ADDRESS"),
		PolygonRPCURL: getEnvOrDefault("POLYGON_RPC_URL", "https://polygon-rpc.com"),

		// Notification defaults
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatIDs: getStringArray("TELEGRAM_CHAT_IDS"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}

	if c.GammaAPIURL == "" {
		return fmt.Errorf("GAMMA_API_URL cannot be empty")
	}

	if c.ClobAPIURL == "" {
		return fmt.Errorf("CLOB_API_URL cannot be empty")
	}

	if c.ScanInterval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL must be positive, got %s", c.ScanInterval)
	}

	if c.MinProfitPerDollar < 0 {
		return fmt.Errorf("MIN_PROFIT_PER_DOLLAR cannot be negative, got %f", c.MinProfitPerDollar)
	}

	if c.FeeRate < 0 || c.FeeRate >= 0.5 {
		return fmt.Errorf("POLY_FEE must be in [0, 0.5), got %f", c.FeeRate)
	}

	if c.TradeBudget <= 0 {
		return fmt.Errorf("TRADE_BUDGET must be positive, got %f", c.TradeBudget)
	}

	if c.MaxSpread <= 0 || c.MaxSpread >= 1 {
		return fmt.Errorf("MAX_SPREAD must be between 0 and 1, got %f", c.MaxSpread)
	}

	if c.KillMaxExposurePct <= 0 || c.KillMaxExposurePct > 1 {
		return fmt.Errorf("KILL_MAX_EXPOSURE_PCT must be in (0, 1], got %f", c.KillMaxExposurePct)
	}

	if c.AutoTrade && c.PrivateKey == "" {
		return fmt.Errorf("AUTO_TRADE requires PRIVATE_KEY")
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

// getDurationOrDefault accepts Go duration strings ("90s") and, for
// compatibility with the _SEC/_MS style knobs, bare integers read as seconds.
func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getStringArray reads a JSON array of strings ('["123","456"]'), falling
// back to a comma-separated list.
func getStringArray(key string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}

	if strings.HasPrefix(value, "[") {
		var out []string
		if err := json.Unmarshal([]byte(value), &out); err == nil {
			return out
		}
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getListOrDefault(key string, defaultValue string) []string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
