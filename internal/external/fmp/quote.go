package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Quote is the subset of the live quote the scanner reads
type Quote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	YearHigh  float64 `json:"yearHigh"`
	YearLow   float64 `json:"yearLow"`
	Volume    float64 `json:"volume"`
	AvgVolume float64 `json:"avgVolume"`
	MarketCap float64 `json:"marketCap"`
	Exchange  string  `json:"exchange"`
}

// GetQuote fetches the live quote for symbol.
// An empty upstream list fails with ErrNotFound.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := c.fetch(ctx, endpointQuote, params)
	if err != nil {
		return nil, err
	}

	var quotes []Quote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, fmt.Errorf("decode quote for %s: %w", symbol, err)
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: quote for %s", ErrNotFound, symbol)
	}

	return &quotes[0], nil
}
