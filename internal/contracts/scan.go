package contracts

import "time"

// ScanResult is the terminal output of one scan
// ⭐ SSOT: 스캔 결과는 이 구조체로만 전달
type ScanResult struct {
	Stocks   []RankedStock `json:"stocks"`
	Metadata ScanMetadata  `json:"scan_metadata"`
}

// ScanMetadata carries the funnel counts needed to see where candidates were lost
type ScanMetadata struct {
	RunID           string          `json:"run_id"`
	Timestamp       time.Time       `json:"timestamp"`
	WinningSectors  []WinningSector `json:"winning_sectors"`
	TotalCandidates int             `json:"total_candidates"`
	QuickFiltered   int             `json:"quick_filtered"`
	PassedFilters   int             `json:"passed_filters"`
	APICallsUsed    int             `json:"api_calls_used"`
	APICallBudget   int             `json:"api_call_budget"`
	ElapsedSeconds  float64         `json:"elapsed_seconds"`
	BudgetWarning   string          `json:"budget_warning,omitempty"`
	ConfigHash      string          `json:"config_hash,omitempty"`
	Outcomes        OutcomeReport   `json:"outcomes"`
}

// Partial reports whether enrichment was cut short by the call budget
func (m ScanMetadata) Partial() bool {
	return m.BudgetWarning != ""
}
