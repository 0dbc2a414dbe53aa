package fmp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/wonny/swingscan/internal/contracts"
)

// sectorRecord is one raw (sector, exchange) row of the snapshot endpoint
type sectorRecord struct {
	Date              string   `json:"date"`
	Sector            string   `json:"sector"`
	Exchange          string   `json:"exchange"`
	AverageChange     *percent `json:"averageChange"`
	ChangesPercentage *percent `json:"changesPercentage"`
}

// change returns whichever change field the record carries
func (r sectorRecord) change() (float64, bool) {
	switch {
	case r.AverageChange != nil:
		return float64(*r.AverageChange), true
	case r.ChangesPercentage != nil:
		return float64(*r.ChangesPercentage), true
	default:
		return 0, false
	}
}

// percent accepts 1.23, "1.23" and "1.23%"
type percent float64

func (p *percent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	s := string(data)
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid percent %s: %w", s, err)
		}
		s = strings.TrimSuffix(strings.TrimSpace(unquoted), "%")
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid percent %s: %w", string(data), err)
	}
	*p = percent(v)
	return nil
}

// ResolveTradingDate returns the most recent completed trading day before now.
// Monday steps back 3 days, Sunday 2, every other day 1. Holidays are not modelled.
func ResolveTradingDate(now time.Time) time.Time {
	days := 1
	switch now.Weekday() {
	case time.Monday:
		days = 3
	case time.Sunday:
		days = 2
	}
	return now.AddDate(0, 0, -days)
}

// GetSectorPerformance fetches per-exchange sector changes for date and averages
// them into one snapshot per sector, in first-seen order.
// A nil date resolves to the last completed trading day.
func (c *Client) GetSectorPerformance(ctx context.Context, date *time.Time) ([]contracts.SectorSnapshot, error) {
	day := ResolveTradingDate(c.now())
	if date != nil {
		day = *date
	}

	params := url.Values{}
	params.Set("date", day.Format("2006-01-02"))

	body, err := c.fetch(ctx, endpointSectorPerformance, params)
	if err != nil {
		return nil, err
	}

	var records []sectorRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode sector performance: %w", err)
	}

	snapshots, err := aggregateSectors(records)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"date":    day.Format("2006-01-02"),
		"records": len(records),
		"sectors": len(snapshots),
	}).Debug("Fetched sector performance")

	return snapshots, nil
}

// aggregateSectors groups records by sector and takes the arithmetic mean of
// the per-exchange changes, rounded to 4 decimal places.
func aggregateSectors(records []sectorRecord) ([]contracts.SectorSnapshot, error) {
	var order []string
	changes := make(map[string][]float64)

	for _, r := range records {
		name := strings.TrimSpace(r.Sector)
		if name == "" {
			continue
		}
		v, ok := r.change()
		if !ok {
			continue
		}
		if _, seen := changes[name]; !seen {
			order = append(order, name)
		}
		changes[name] = append(changes[name], v)
	}

	snapshots := make([]contracts.SectorSnapshot, 0, len(order))
	for _, name := range order {
		mean, err := stats.Mean(changes[name])
		if err != nil {
			return nil, fmt.Errorf("average %s: %w", name, err)
		}
		snapshots = append(snapshots, contracts.SectorSnapshot{
			Name:      name,
			ChangePct: decimal.NewFromFloat(mean).Round(4),
		})
	}

	return snapshots, nil
}
