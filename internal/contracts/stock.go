package contracts

// Candidate is one (winning sector, universe member) pair.
// A symbol listed under two winning sectors yields two candidates.
type Candidate struct {
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	Sector          string  `json:"sector"`
	SectorChangePct float64 `json:"sector_performance"`
}

// QuickFilterResult is a Candidate that survived the quote-based quick filter
type QuickFilterResult struct {
	Candidate
	Price     float64 `json:"price"`
	YearHigh  float64 `json:"yearHigh"`
	YearLow   float64 `json:"yearLow"`
	Volume    int64   `json:"volume"`
	AvgVolume int64   `json:"avgVolume"`
}

// EnrichedStock is a scored stock. TargetPrice always equals ATH.
type EnrichedStock struct {
	QuickFilterResult
	ATH         float64 `json:"ath"`
	PctBelowATH float64 `json:"pct_below_ath"`
	TargetPrice float64 `json:"target_price"`
	UpsidePct   float64 `json:"upside_pct"`
	Score       float64 `json:"score"`
}

// RankedStock is an EnrichedStock with its 1-based position in the retained top N
// ⭐ SSOT: S4 → 출력 (API, CSV, JSON, DB)
type RankedStock struct {
	EnrichedStock
	Rank int `json:"rank"`
}
