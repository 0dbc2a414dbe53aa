package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/swingscan/internal/contracts"
	"github.com/wonny/swingscan/internal/scanner"
	"github.com/wonny/swingscan/internal/scheduler"
	"github.com/wonny/swingscan/pkg/config"
	"github.com/wonny/swingscan/pkg/logger"
)

// ScanRunner is satisfied by *scanner.Service
type ScanRunner interface {
	Run(ctx context.Context, cfg scanner.ScanConfig, progress scanner.ProgressFunc) (*contracts.ScanResult, error)
}

// ScanJob runs the daily screening scan after the US close
// ⭐ SSOT: 정기 스캔 스케줄은 이 Job에서만
type ScanJob struct {
	service  ScanRunner
	cfg      scanner.ScanConfig
	schedule string
	logger   *logger.Logger
}

// NewScanJob creates a new scan job
func NewScanJob(service ScanRunner, cfg scanner.ScanConfig, schedule string, log *logger.Logger) *ScanJob {
	return &ScanJob{
		service:  service,
		cfg:      cfg,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "daily_scan"
}

// Schedule returns the cron schedule (default weekdays 16:30 exchange time)
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan. Configuration problems and an already-running
// scan are not retried.
func (j *ScanJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled scan")

	result, err := j.service.Run(ctx, j.cfg, func(p scanner.Progress) {
		j.logger.WithField("stage", p.Stage.ShortName()).Debug(p.Message)
	})
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) ||
			errors.Is(err, scanner.ErrInvalidConfig) ||
			errors.Is(err, scanner.ErrScanInProgress) {
			return scheduler.Permanent(err)
		}
		return fmt.Errorf("scan: %w", err)
	}

	entry := j.logger.WithFields(map[string]interface{}{
		"run_id":         result.Metadata.RunID,
		"stocks":         len(result.Stocks),
		"api_calls_used": result.Metadata.APICallsUsed,
	})
	if result.Metadata.Partial() {
		entry.WithField("budget_warning", result.Metadata.BudgetWarning).Warn("Scheduled scan returned partial results")
	} else {
		entry.Info("Scheduled scan completed")
	}

	return nil
}
