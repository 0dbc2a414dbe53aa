package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/swingscan/internal/contracts"
)

// ErrNoScans is returned by Latest when the history is empty
var ErrNoScans = errors.New("no scans recorded")

// Repository stores scan history in scan_runs / scan_results
// ⭐ SSOT: 스캔 이력 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new scan history repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save implements scanner.Sink: one run row plus one row per ranked stock
func (r *Repository) Save(ctx context.Context, result *contracts.ScanResult) error {
	runID, err := uuid.Parse(result.Metadata.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", result.Metadata.RunID, err)
	}

	sectors, err := json.Marshal(result.Metadata.WinningSectors)
	if err != nil {
		return fmt.Errorf("failed to marshal winning sectors: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.saveRun(ctx, tx, runID, result.Metadata, sectors); err != nil {
		return fmt.Errorf("failed to save scan run: %w", err)
	}

	if err := r.saveResults(ctx, tx, runID, result.Stocks); err != nil {
		return fmt.Errorf("failed to save scan results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *Repository) saveRun(ctx context.Context, tx pgx.Tx, runID uuid.UUID, meta contracts.ScanMetadata, sectors []byte) error {
	query := `
		INSERT INTO scan_runs (
			run_id, started_at, elapsed_seconds, winning_sectors,
			total_candidates, quick_filtered, passed_filters,
			api_calls_used, budget_warning, config_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''))
	`

	_, err := tx.Exec(ctx, query,
		runID, meta.Timestamp, meta.ElapsedSeconds, sectors,
		meta.TotalCandidates, meta.QuickFiltered, meta.PassedFilters,
		meta.APICallsUsed, meta.BudgetWarning, meta.ConfigHash,
	)
	return err
}

func (r *Repository) saveResults(ctx context.Context, tx pgx.Tx, runID uuid.UUID, stocks []contracts.RankedStock) error {
	if len(stocks) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(stocks))
	for _, s := range stocks {
		rows = append(rows, []interface{}{
			runID, s.Rank, s.Symbol, s.Name, s.Sector, s.SectorChangePct,
			s.Price, s.YearHigh, s.ATH, s.PctBelowATH, s.TargetPrice, s.UpsidePct, s.Score,
		})
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"scan_results"},
		[]string{
			"run_id", "rank", "symbol", "name", "sector", "sector_change_pct",
			"price", "year_high", "all_time_high", "pct_below_ath", "target_price", "upside_pct", "score",
		},
		pgx.CopyFromRows(rows),
	)
	return err
}

// Latest loads the most recent scan. Item outcomes are not persisted.
func (r *Repository) Latest(ctx context.Context) (*contracts.ScanResult, error) {
	query := `
		SELECT
			run_id::text, started_at, elapsed_seconds, winning_sectors,
			total_candidates, quick_filtered, passed_filters,
			api_calls_used, COALESCE(budget_warning, ''), COALESCE(config_hash, '')
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT 1
	`

	var (
		meta    contracts.ScanMetadata
		sectors []byte
	)
	err := r.pool.QueryRow(ctx, query).Scan(
		&meta.RunID, &meta.Timestamp, &meta.ElapsedSeconds, &sectors,
		&meta.TotalCandidates, &meta.QuickFiltered, &meta.PassedFilters,
		&meta.APICallsUsed, &meta.BudgetWarning, &meta.ConfigHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoScans
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest scan: %w", err)
	}

	if err := json.Unmarshal(sectors, &meta.WinningSectors); err != nil {
		return nil, fmt.Errorf("failed to decode winning sectors: %w", err)
	}

	stocks, err := r.loadResults(ctx, meta.RunID)
	if err != nil {
		return nil, err
	}

	return &contracts.ScanResult{Stocks: stocks, Metadata: meta}, nil
}

func (r *Repository) loadResults(ctx context.Context, runID string) ([]contracts.RankedStock, error) {
	query := `
		SELECT
			rank, symbol, name, sector, sector_change_pct,
			price, year_high, all_time_high, pct_below_ath, target_price, upside_pct, score
		FROM scan_results
		WHERE run_id = $1::uuid
		ORDER BY rank
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan results: %w", err)
	}
	defer rows.Close()

	stocks := []contracts.RankedStock{}
	for rows.Next() {
		var s contracts.RankedStock
		if err := rows.Scan(
			&s.Rank, &s.Symbol, &s.Name, &s.Sector, &s.SectorChangePct,
			&s.Price, &s.YearHigh, &s.ATH, &s.PctBelowATH, &s.TargetPrice, &s.UpsidePct, &s.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stocks = append(stocks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return stocks, nil
}
