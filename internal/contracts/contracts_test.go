package contracts

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestStage_ShortName(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageSectors, "S1"},
		{StageCandidates, "S2"},
		{StageQuickFilter, "S3a"},
		{StageDeepEnrich, "S3b"},
		{StageRank, "S4"},
		{Stage("bogus"), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.stage.ShortName(); got != tt.want {
			t.Errorf("%s.ShortName() = %s, want %s", tt.stage, got, tt.want)
		}
	}
}

func TestSectorSnapshot_JSON(t *testing.T) {
	s := SectorSnapshot{Name: "Technology", ChangePct: decimal.RequireFromString("2.3500")}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// 변화율은 문자열로 직렬화
	if !strings.Contains(string(data), `"changesPercentage":"2.35"`) {
		t.Errorf("unexpected JSON: %s", data)
	}
	if s.Change() != 2.35 {
		t.Errorf("Change() = %v, want 2.35", s.Change())
	}
}

func TestRankedStock_JSONFlattensEmbedded(t *testing.T) {
	r := RankedStock{
		EnrichedStock: EnrichedStock{
			QuickFilterResult: QuickFilterResult{
				Candidate: Candidate{Symbol: "AAPL", Sector: "Technology", SectorChangePct: 2.35},
				Price:     150,
				YearHigh:  200,
			},
			ATH:   220,
			Score: 61.2,
		},
		Rank: 1,
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var flat map[string]interface{}
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	for _, key := range []string{"symbol", "sector_performance", "yearHigh", "ath", "score", "rank"} {
		if _, ok := flat[key]; !ok {
			t.Errorf("expected top-level key %q in %s", key, data)
		}
	}
}

func TestOutcomeReport(t *testing.T) {
	var r OutcomeReport
	r.Add(ItemOutcome{Stage: StageQuickFilter, Symbol: "AAPL", Outcome: OutcomePassed})
	r.Add(ItemOutcome{Stage: StageQuickFilter, Symbol: "XOM", Outcome: OutcomeSkipped, Reason: "quote not found"})
	r.Add(ItemOutcome{Stage: StageDeepEnrich, Symbol: "AAPL", Outcome: OutcomeRejected, Reason: "outside range"})

	if got := r.Count(StageQuickFilter, OutcomePassed); got != 1 {
		t.Errorf("Count(quick, passed) = %d, want 1", got)
	}
	if got := r.Count(StageQuickFilter, OutcomeSkipped); got != 1 {
		t.Errorf("Count(quick, skipped) = %d, want 1", got)
	}

	aapl := r.ForSymbol("AAPL")
	if len(aapl) != 2 || aapl[1].Stage != StageDeepEnrich {
		t.Errorf("ForSymbol(AAPL) = %+v", aapl)
	}
}

func TestScanMetadata_Partial(t *testing.T) {
	if (ScanMetadata{}).Partial() {
		t.Error("empty metadata should not be partial")
	}
	if !(ScanMetadata{BudgetWarning: "budget exhausted"}).Partial() {
		t.Error("metadata with warning should be partial")
	}
}
