package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/wonny/swingscan/internal/contracts"
	"github.com/wonny/swingscan/pkg/redis"
)

// DefaultLookbackDays is five years of daily bars, enough for a real all-time high
const DefaultLookbackDays = 1825

// HistoricalPrices is the normalized (wrapped) historical response
type HistoricalPrices struct {
	Symbol     string               `json:"symbol"`
	Historical []contracts.DailyBar `json:"historical"`
}

// GetHistoricalPrices fetches daily bars for the last lookbackDays days.
// Cache hits are served without spending budget.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol string, lookbackDays int) (*HistoricalPrices, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	from := c.now().AddDate(0, 0, -lookbackDays).Format("2006-01-02")
	cacheKey := redis.HistoricalKey(symbol, from)

	if c.cache.Enabled() {
		var cached HistoricalPrices
		found, err := c.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Warn("Historical cache read failed")
		}
		c.metrics.ObserveCache(found)
		if found {
			return &cached, nil
		}
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("from", from)

	body, err := c.fetch(ctx, endpointHistorical, params)
	if err != nil {
		return nil, err
	}

	prices, err := normalizeHistorical(symbol, body)
	if err != nil {
		return nil, err
	}

	if c.cache.Enabled() {
		if err := c.cache.Set(ctx, cacheKey, prices, redis.TTLDaily); err != nil {
			c.logger.WithError(err).WithField("symbol", symbol).Warn("Historical cache write failed")
		}
	}

	return prices, nil
}

// normalizeHistorical accepts either a bare list of bars or a
// {symbol, historical:[...]} record and always returns the wrapped form.
func normalizeHistorical(symbol string, body []byte) (*HistoricalPrices, error) {
	trimmed := bytes.TrimSpace(body)
	out := &HistoricalPrices{Symbol: symbol}

	if len(trimmed) == 0 {
		return out, nil
	}

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &out.Historical); err != nil {
			return nil, fmt.Errorf("decode historical list for %s: %w", symbol, err)
		}
	case '{':
		if err := json.Unmarshal(trimmed, out); err != nil {
			return nil, fmt.Errorf("decode historical record for %s: %w", symbol, err)
		}
		if out.Symbol == "" {
			out.Symbol = symbol
		}
	default:
		return nil, fmt.Errorf("decode historical for %s: unexpected payload %q", symbol, truncateBody(trimmed, 20))
	}

	return out, nil
}
