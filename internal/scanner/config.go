package scanner

import (
	"errors"
	"fmt"

	"github.com/wonny/swingscan/internal/external/fmp"
	"github.com/wonny/swingscan/internal/strategyconfig"
	"github.com/wonny/swingscan/pkg/config"
)

// ErrInvalidConfig wraps every ScanConfig validation failure
var ErrInvalidConfig = errors.New("invalid scan config")

// MaxSectors caps how many winning sectors feed candidate sourcing
const MaxSectors = 3

// ScanConfig holds the screening parameters of one scan.
// JSON names match the POST /api/scan override keys.
type ScanConfig struct {
	MarketCapMin int64   `json:"market_cap_min"` // 유니버스 경로에서는 미사용 (스크리너 변형용)
	VolumeMin    int64   `json:"volume_min"`     // 유니버스 경로에서는 미사용
	ATHMin       float64 `json:"ath_min"`
	ATHMax       float64 `json:"ath_max"`
	TopN         int     `json:"top_n"`

	Workers      int    `json:"-"` // 1 = 순차 처리
	LookbackDays int    `json:"-"`
	ProfileHash  string `json:"-"` // strategy profile hash, copied into metadata
}

// DefaultScanConfig returns the stock screening parameters
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		MarketCapMin: 1_000_000_000,
		VolumeMin:    500_000,
		ATHMin:       10.0,
		ATHMax:       60.0,
		TopN:         15,
		Workers:      1,
		LookbackDays: fmp.DefaultLookbackDays,
	}
}

// FromDefaults builds a ScanConfig from environment defaults
func FromDefaults(d config.ScanDefaults) ScanConfig {
	cfg := DefaultScanConfig()
	cfg.MarketCapMin = d.MarketCapMin
	cfg.VolumeMin = d.VolumeMin
	cfg.ATHMin = d.ATHMin
	cfg.ATHMax = d.ATHMax
	cfg.TopN = d.TopN
	if d.Workers > 0 {
		cfg.Workers = d.Workers
	}
	return cfg
}

// Validate rejects configurations that cannot produce a meaningful scan
func (c ScanConfig) Validate() error {
	if c.ATHMin > c.ATHMax {
		return fmt.Errorf("ath_min (%.1f) must not exceed ath_max (%.1f)", c.ATHMin, c.ATHMax)
	}
	if c.TopN < 0 {
		return fmt.Errorf("top_n must not be negative, got %d", c.TopN)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

func (c ScanConfig) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

// FromProfile builds a ScanConfig from a validated YAML profile.
// The profile hash ends up in scan metadata.
func FromProfile(p *strategyconfig.Config) (ScanConfig, error) {
	hash, err := strategyconfig.Hash(p)
	if err != nil {
		return ScanConfig{}, fmt.Errorf("hash profile: %w", err)
	}

	return ScanConfig{
		MarketCapMin: p.Screening.MarketCapMin,
		VolumeMin:    p.Screening.VolumeMin,
		ATHMin:       p.Screening.ATHMinPct,
		ATHMax:       p.Screening.ATHMaxPct,
		TopN:         p.Ranking.TopN,
		Workers:      p.Execution.Workers,
		LookbackDays: p.Execution.LookbackDays,
		ProfileHash:  hash,
	}, nil
}
