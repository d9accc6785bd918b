package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mselser95/polymarket-hedge/pkg/cache"
	"github.com/mselser95/polymarket-hedge/pkg/types"
)

const (
	// searchUniverse is how many top-volume markets back a search query.
	searchUniverse = 200

	// searchCacheTTL keeps the market universe warm across the many search
	// terms one scan issues.
	searchCacheTTL = 60 * time.Second
)

// Client is the market-data gateway against the Gamma API. All outbound
// requests share one token bucket so scanner fan-out stays inside the
// venue's rate limits.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Cache
	logger     *zap.Logger
}

// Config holds gateway configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
	Cache     cache.Cache
	Logger    *zap.Logger
}

// NewClient creates a Gamma API client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), burst),
		cache:      cfg.Cache,
		logger:     cfg.Logger,
	}, nil
}

// Events fetches current event groups ordered by 24h volume, highest first.
func (c *Client) Events(ctx context.Context, limit int) ([]types.Event, error) {
	params := url.Values{}
	params.Add("closed", "false")
	params.Add("active", "true")
	params.Add("limit", strconv.Itoa(limit))
	params.Add("order", "volume24hr")
	params.Add("ascending", "false")

	var events []types.Event
	if err := c.get(ctx, "/events", params, &events); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	c.logger.Debug("fetched-events", zap.Int("count", len(events)))

	return events, nil
}

// TrendingMarkets fetches individual markets ordered by 24h volume.
func (c *Client) TrendingMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	params := url.Values{}
	params.Add("closed", "false")
	params.Add("active", "true")
	params.Add("limit", strconv.Itoa(limit))
	params.Add("order", "volume24hr")
	params.Add("ascending", "false")

	var markets []types.Market
	if err := c.get(ctx, "/markets", params, &markets); err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}

	c.logger.Debug("fetched-markets", zap.Int("count", len(markets)))

	return markets, nil
}

// SearchMarkets returns markets whose question or slug contains query,
// case-insensitive, drawn from the top-volume universe. The universe is
// cached briefly because one scan issues dozens of terms.
func (c *Client) SearchMarkets(ctx context.Context, query string, limit int) ([]types.Market, error) {
	universe, err := c.marketUniverse(ctx)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	q := strings.ToLower(query)
	var matches []types.Market
	for _, m := range universe {
		if strings.Contains(strings.ToLower(m.Question), q) || strings.Contains(strings.ToLower(m.Slug), q) {
			matches = append(matches, m)
			if limit > 0 && len(matches) >= limit {
				break
			}
		}
	}

	return matches, nil
}

func (c *Client) marketUniverse(ctx context.Context) ([]types.Market, error) {
	const key = "gateway:market-universe"

	if c.cache != nil {
		if cached, found := c.cache.Get(key); found {
			if markets, ok := cached.([]types.Market); ok {
				return markets, nil
			}
		}
	}

	markets, err := c.TrendingMarkets(ctx, searchUniverse)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(key, markets, searchCacheTTL)
	}

	return markets, nil
}

// get performs one rate-limited GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "polymarket-hedge/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	GatewayRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

	if err != nil {
		GatewayRequestErrors.WithLabelValues(path).Inc()
		return &types.APIError{Endpoint: path, Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		GatewayRequestErrors.WithLabelValues(path).Inc()

		return &types.APIError{Endpoint: path, Status: resp.StatusCode, Message: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	GatewayRequests.WithLabelValues(path).Inc()

	return nil
}
