package contracts

import "github.com/shopspring/decimal"

// SectorSnapshot is one sector's aggregated change for the reference trading day.
// ChangePct marshals as a JSON string ("1.2345").
type SectorSnapshot struct {
	Name      string          `json:"sector"`
	ChangePct decimal.Decimal `json:"changesPercentage"`
}

// Change returns the change as a float for filtering and scoring
func (s SectorSnapshot) Change() float64 {
	return s.ChangePct.InexactFloat64()
}

// WinningSector is a selected sector as reported in scan metadata
type WinningSector struct {
	Name        string  `json:"name"`
	Performance float64 `json:"performance"`
}
