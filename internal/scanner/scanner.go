package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/swingscan/internal/contracts"
	"github.com/wonny/swingscan/internal/external/fmp"
	"github.com/wonny/swingscan/internal/selection"
	"github.com/wonny/swingscan/internal/universe"
	"github.com/wonny/swingscan/pkg/logger"
	"github.com/wonny/swingscan/pkg/metrics"
)

// progressEvery is how often (in items) enrichment stages report progress
const progressEvery = 10

// MarketData is the upstream surface a scan consumes
type MarketData interface {
	GetSectorPerformance(ctx context.Context, date *time.Time) ([]contracts.SectorSnapshot, error)
	GetQuote(ctx context.Context, symbol string) (*fmp.Quote, error)
	GetHistoricalPrices(ctx context.Context, symbol string, lookbackDays int) (*fmp.HistoricalPrices, error)
	Budget() fmp.Budget
}

// Progress is one advisory progress event
type Progress struct {
	Stage   contracts.Stage `json:"stage"`
	Message string          `json:"message"`
	Current int             `json:"current,omitempty"`
	Total   int             `json:"total,omitempty"`
}

// ProgressFunc receives progress events; it has no control-flow significance
type ProgressFunc func(Progress)

// Scanner runs the staged screening pipeline against one MarketData.
// A Scanner is single-use: its client's budget is not reset between runs.
// ⭐ SSOT: 스캔 파이프라인 조율은 여기서만
type Scanner struct {
	client   MarketData
	universe universe.Lookup
	logger   *logger.Logger
	metrics  *metrics.Registry
	now      func() time.Time
}

// New creates a scanner
func New(client MarketData, lookup universe.Lookup, log *logger.Logger) *Scanner {
	return &Scanner{
		client:   client,
		universe: lookup,
		logger:   log,
		now:      time.Now,
	}
}

// WithMetrics records per-item stage outcomes into reg
func (s *Scanner) WithMetrics(reg *metrics.Registry) *Scanner {
	s.metrics = reg
	return s
}

// WithClock overrides time.Now (timestamps, elapsed time)
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

// Run executes S1 → S2 → S3a → S3b → S4.
// Only an invalid config, a failed S1 or a cancelled context return an error;
// budget exhaustion in S3a/S3b yields partial results plus a warning.
func (s *Scanner) Run(ctx context.Context, cfg ScanConfig, progress ProgressFunc) (*contracts.ScanResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if progress == nil {
		progress = func(Progress) {}
	}

	startTime := s.now()
	runID := uuid.NewString()
	log := s.logger.WithField("run_id", runID)

	meta := contracts.ScanMetadata{
		RunID:         runID,
		Timestamp:     startTime,
		APICallBudget: s.client.Budget().Limit(),
		ConfigHash:    cfg.ProfileHash,
	}

	log.WithFields(map[string]interface{}{
		"ath_min": cfg.ATHMin,
		"ath_max": cfg.ATHMax,
		"top_n":   cfg.TopN,
		"workers": cfg.workers(),
		"budget":  meta.APICallBudget,
	}).Info("Starting scan")

	// S1: Sector selection
	progress(Progress{Stage: contracts.StageSectors, Message: "Analyzing sector performance..."})
	winners, err := s.runSectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", contracts.StageSectors.ShortName(), err)
	}
	meta.WinningSectors = winners

	// S2: Candidate sourcing
	progress(Progress{
		Stage:   contracts.StageCandidates,
		Message: fmt.Sprintf("Screening stocks in %d outperforming sectors...", len(winners)),
	})
	candidates := universe.BuildCandidates(s.universe, winners)
	meta.TotalCandidates = len(candidates)

	var warnings []string

	// S3a: Quick filter
	quick, err := s.runQuickFilter(ctx, cfg, candidates, &meta.Outcomes, progress)
	if err != nil {
		return nil, err
	}
	if quick.halt != nil {
		warnings = append(warnings, haltWarning(contracts.StageQuickFilter, quick.attempted, len(candidates), quick.halt))
	}
	survivors := quick.survivors()
	meta.QuickFiltered = len(survivors)

	// S3b: Deep enrichment
	deep, err := s.runDeepEnrich(ctx, cfg, survivors, &meta.Outcomes, progress)
	if err != nil {
		return nil, err
	}
	if deep.halt != nil {
		warnings = append(warnings, haltWarning(contracts.StageDeepEnrich, deep.attempted, len(survivors), deep.halt))
	}
	enriched := deep.survivors()
	meta.PassedFilters = len(enriched)

	// S4: Ranking
	progress(Progress{Stage: contracts.StageRank, Message: "Ranking candidates..."})
	ranked := selection.RankStocks(enriched, cfg.TopN)

	meta.APICallsUsed = s.client.Budget().Used()
	meta.ElapsedSeconds = selection.Round(s.now().Sub(startTime).Seconds(), 1)
	meta.BudgetWarning = strings.Join(warnings, "; ")

	entry := log.WithFields(map[string]interface{}{
		"winning_sectors":  len(winners),
		"total_candidates": meta.TotalCandidates,
		"quick_filtered":   meta.QuickFiltered,
		"passed_filters":   meta.PassedFilters,
		"ranked":           len(ranked),
		"api_calls_used":   meta.APICallsUsed,
		"elapsed_seconds":  meta.ElapsedSeconds,
	})
	if meta.Partial() {
		entry.WithField("budget_warning", meta.BudgetWarning).Warn("Scan completed with partial results")
	} else {
		entry.Info("Scan completed")
	}

	return &contracts.ScanResult{Stocks: ranked, Metadata: meta}, nil
}

// runSectors keeps sectors with strictly positive change, best first, at most MaxSectors
func (s *Scanner) runSectors(ctx context.Context) ([]contracts.WinningSector, error) {
	snapshots, err := s.client.GetSectorPerformance(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sector performance: %w", err)
	}

	winners := make([]contracts.WinningSector, 0, len(snapshots))
	for _, snap := range snapshots {
		if change := snap.Change(); change > 0 {
			winners = append(winners, contracts.WinningSector{Name: snap.Name, Performance: change})
		}
	}

	sort.SliceStable(winners, func(i, j int) bool {
		return winners[i].Performance > winners[j].Performance
	})
	if len(winners) > MaxSectors {
		winners = winners[:MaxSectors]
	}

	s.logger.WithFields(map[string]interface{}{
		"sectors": len(snapshots),
		"winners": len(winners),
	}).Info("S1 completed")

	return winners, nil
}

func (s *Scanner) runQuickFilter(
	ctx context.Context,
	cfg ScanConfig,
	candidates []contracts.Candidate,
	report *contracts.OutcomeReport,
	progress ProgressFunc,
) (stageRun[contracts.QuickFilterResult], error) {
	total := len(candidates)
	run, err := runStage(ctx, cfg.workers(), candidates,
		func(ctx context.Context, c contracts.Candidate) step[contracts.QuickFilterResult] {
			return s.quickFilter(ctx, cfg, c)
		},
		func(i int, c contracts.Candidate) {
			if i%progressEvery == 0 {
				progress(Progress{
					Stage:   contracts.StageQuickFilter,
					Message: fmt.Sprintf("Quick filter %d/%d: %s...", i+1, total, c.Symbol),
					Current: i + 1,
					Total:   total,
				})
			}
		},
	)
	if err != nil {
		return run, fmt.Errorf("%s interrupted: %w", contracts.StageQuickFilter.ShortName(), err)
	}

	recordSteps(s.metrics, report, run.steps)
	return run, nil
}

// quickFilter spends one quote call on a candidate
func (s *Scanner) quickFilter(ctx context.Context, cfg ScanConfig, c contracts.Candidate) step[contracts.QuickFilterResult] {
	const stage = contracts.StageQuickFilter

	q, err := s.client.GetQuote(ctx, c.Symbol)
	if err != nil {
		if fmp.IsBudgetExhausted(err) {
			return halted[contracts.QuickFilterResult](stage, c.Symbol, err)
		}
		return skipped[contracts.QuickFilterResult](stage, c.Symbol, err.Error())
	}

	if ok, reason := selection.QuickFilter(q.Price, q.YearHigh, cfg.ATHMax); !ok {
		return rejected[contracts.QuickFilterResult](stage, c.Symbol, reason)
	}

	if c.Name == "" {
		c.Name = q.Name
	}

	return passed(stage, c.Symbol, contracts.QuickFilterResult{
		Candidate: c,
		Price:     q.Price,
		YearHigh:  q.YearHigh,
		YearLow:   q.YearLow,
		Volume:    int64(q.Volume),
		AvgVolume: int64(q.AvgVolume),
	})
}

func (s *Scanner) runDeepEnrich(
	ctx context.Context,
	cfg ScanConfig,
	survivors []contracts.QuickFilterResult,
	report *contracts.OutcomeReport,
	progress ProgressFunc,
) (stageRun[contracts.EnrichedStock], error) {
	total := len(survivors)
	run, err := runStage(ctx, cfg.workers(), survivors,
		func(ctx context.Context, q contracts.QuickFilterResult) step[contracts.EnrichedStock] {
			return s.deepEnrich(ctx, cfg, q)
		},
		func(i int, q contracts.QuickFilterResult) {
			if i%progressEvery == 0 {
				progress(Progress{
					Stage:   contracts.StageDeepEnrich,
					Message: fmt.Sprintf("Analyzing stock %d/%d: %s...", i+1, total, q.Symbol),
					Current: i + 1,
					Total:   total,
				})
			}
		},
	)
	if err != nil {
		return run, fmt.Errorf("%s interrupted: %w", contracts.StageDeepEnrich.ShortName(), err)
	}

	recordSteps(s.metrics, report, run.steps)
	return run, nil
}

// deepEnrich spends one historical call, computes the true ATH and scores
func (s *Scanner) deepEnrich(ctx context.Context, cfg ScanConfig, q contracts.QuickFilterResult) step[contracts.EnrichedStock] {
	const stage = contracts.StageDeepEnrich

	hist, err := s.client.GetHistoricalPrices(ctx, q.Symbol, cfg.LookbackDays)
	if err != nil {
		if fmp.IsBudgetExhausted(err) {
			return halted[contracts.EnrichedStock](stage, q.Symbol, err)
		}
		return skipped[contracts.EnrichedStock](stage, q.Symbol, err.Error())
	}

	ath, ok := selection.CalculateATH(hist.Historical)
	if !ok || ath <= 0 {
		ath = q.YearHigh // 히스토리 없음 → 52주 고가로 대체
	}
	if ath <= 0 {
		return rejected[contracts.EnrichedStock](stage, q.Symbol, "no all-time high available")
	}

	e := contracts.EnrichedStock{
		QuickFilterResult: q,
		ATH:               ath,
		PctBelowATH:       selection.Round(selection.PctBelowATH(q.Price, ath), 1),
		TargetPrice:       selection.Round(ath, 2),
		UpsidePct:         selection.Round(selection.Upside(q.Price, ath), 1),
	}
	e.Score = selection.ScoreStock(e)

	if !selection.PassesFilters(e, cfg.ATHMin, cfg.ATHMax) {
		return rejected[contracts.EnrichedStock](stage, q.Symbol,
			fmt.Sprintf("%.1f%% below ATH outside [%.1f, %.1f]", e.PctBelowATH, cfg.ATHMin, cfg.ATHMax))
	}

	return passed(stage, q.Symbol, e)
}

// recordSteps appends outcomes to the report and counts them
func recordSteps[T any](reg *metrics.Registry, report *contracts.OutcomeReport, steps []step[T]) {
	for _, st := range steps {
		report.Add(st.outcome)
		reg.ObserveStageItem(st.outcome.Stage.String(), string(st.outcome.Outcome))
	}
}

// haltWarning describes a budget or rate-limit interruption
func haltWarning(stage contracts.Stage, attempted, total int, err error) string {
	return fmt.Sprintf("%s halted after %d/%d candidates: %v", stage.Description(), attempted, total, err)
}
