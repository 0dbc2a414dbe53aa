package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/wonny/swingscan/internal/contracts"
	"github.com/wonny/swingscan/pkg/logger"
	"github.com/wonny/swingscan/pkg/metrics"
)

// ErrScanInProgress is returned when a scan is requested while another runs
var ErrScanInProgress = errors.New("a scan is already running")

// Sink persists a finished scan (JSON report, database, ...)
type Sink interface {
	Save(ctx context.Context, result *contracts.ScanResult) error
}

// ScannerSource builds a single-use scanner per run
type ScannerSource interface {
	New() (*Scanner, error)
}

// Service runs one scan at a time, remembers the latest result
// and fans results out to sinks. Sink failures are logged, not returned.
// ⭐ SSOT: API, 스케줄러, CLI 모두 이 서비스를 통해 스캔 실행
type Service struct {
	source  ScannerSource
	sinks   []Sink
	metrics *metrics.Registry
	logger  *logger.Logger

	running atomic.Bool

	mu     sync.RWMutex
	latest *contracts.ScanResult
}

// NewService creates a scan service
func NewService(source ScannerSource, reg *metrics.Registry, log *logger.Logger, sinks ...Sink) *Service {
	return &Service{
		source:  source,
		sinks:   sinks,
		metrics: reg,
		logger:  log,
	}
}

// Run executes one scan end to end
func (s *Service) Run(ctx context.Context, cfg ScanConfig, progress ProgressFunc) (*contracts.ScanResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.running.Store(false)

	sc, err := s.source.New()
	if err != nil {
		return nil, err
	}

	done := s.metrics.ScanStarted()

	result, err := sc.Run(ctx, cfg, progress)
	if err != nil {
		done(metrics.ScanFailed, 0, 0)
		s.logger.WithError(err).Error("Scan failed")
		return nil, err
	}

	status := metrics.ScanCompleted
	if result.Metadata.Partial() {
		status = metrics.ScanPartial
	}
	done(status, result.Metadata.APICallsUsed, result.Metadata.APICallBudget)

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	for _, sink := range s.sinks {
		if err := sink.Save(ctx, result); err != nil {
			s.logger.WithError(err).WithField("run_id", result.Metadata.RunID).Warn("Failed to persist scan result")
		}
	}

	return result, nil
}

// Running reports whether a scan is in flight
func (s *Service) Running() bool {
	return s.running.Load()
}

// Latest returns the most recent successful scan, or nil
func (s *Service) Latest() *contracts.ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
