package fmp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/swingscan/pkg/config"
	"github.com/wonny/swingscan/pkg/httputil"
	"github.com/wonny/swingscan/pkg/logger"
	"github.com/wonny/swingscan/pkg/metrics"
	"github.com/wonny/swingscan/pkg/redis"
)

// Endpoint names (also used as metric labels)
const (
	endpointSectorPerformance = "sector-performance-snapshot"
	endpointQuote             = "quote"
	endpointHistorical        = "historical-price-eod/full"
)

// Client handles communication with the Financial Modeling Prep API.
// One Client serves one scan: its budget is never reset.
// ⭐ SSOT: FMP API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string

	budget *BudgetTracker
	pacer  *pacer

	cache   *redis.Cache
	metrics *metrics.Registry
	now     func() time.Time
}

// NewClient creates a new FMP client.
// Fails with config.ErrMissingAPIKey before any network activity when the key is unusable.
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg config.FMPConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://financialmodelingprep.com/stable"
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		budget:     NewBudgetTracker(cfg.MaxCalls),
		pacer:      newPacer(cfg.Pacing),
		now:        time.Now,
	}, nil
}

// WithCache enables the read-through cache for historical bars
func (c *Client) WithCache(cache *redis.Cache) *Client {
	c.cache = cache
	return c
}

// WithMetrics records call outcomes into reg
func (c *Client) WithMetrics(reg *metrics.Registry) *Client {
	c.metrics = reg
	return c
}

// WithClock overrides time.Now (date resolution, lookback windows)
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// Budget exposes the call counter read-only
func (c *Client) Budget() Budget {
	return c.budget
}

// fetch performs one budgeted, paced GET and returns the raw 200 body
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.budget.Acquire(); err != nil {
		c.metrics.ObserveAPICall(endpoint, metrics.OutcomeBudgetExhausted)
		return nil, err
	}

	if err := c.pacer.begin(ctx); err != nil {
		// 호출하지 않았으므로 예산 반환
		c.budget.Release()
		return nil, fmt.Errorf("pacing wait failed: %w", err)
	}
	defer c.pacer.end()

	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		c.metrics.ObserveAPICall(endpoint, metrics.OutcomeTransportError)
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveAPICall(endpoint, metrics.OutcomeTransportError)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		c.metrics.ObserveAPICall(endpoint, metrics.OutcomeOK)
		return body, nil

	case http.StatusTooManyRequests:
		c.metrics.ObserveAPICall(endpoint, metrics.OutcomeRateLimited)
		c.logger.WithFields(map[string]interface{}{
			"endpoint":   endpoint,
			"calls_used": c.budget.Used(),
		}).Warn("FMP rate limit hit")
		return nil, &BudgetExhaustedError{
			Limit:       c.budget.Limit(),
			Used:        c.budget.Used(),
			RateLimited: true,
		}

	default:
		c.metrics.ObserveAPICall(endpoint, metrics.OutcomeUpstreamError)
		return nil, &UpstreamError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(body, maxErrorBody),
		}
	}
}
