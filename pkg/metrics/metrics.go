package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// API call outcomes
const (
	OutcomeOK              = "ok"
	OutcomeNotFound        = "not_found"
	OutcomeRateLimited     = "rate_limited"
	OutcomeBudgetExhausted = "budget_exhausted"
	OutcomeUpstreamError   = "upstream_error"
	OutcomeTransportError  = "transport_error"
)

// Scan statuses
const (
	ScanCompleted = "completed"
	ScanPartial   = "partial" // budget warning attached
	ScanFailed    = "failed"
)

// Registry holds all Prometheus metrics for the scanner.
// Methods are nil-safe so packages can accept an optional *Registry.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Registry struct {
	reg *prometheus.Registry

	APICalls      *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec
	StageItems    *prometheus.CounterVec
	Scans         *prometheus.CounterVec
	ScanDuration  prometheus.Histogram
	ActiveScans   prometheus.Gauge
	BudgetUsedPct prometheus.Gauge
}

// New creates a registry with process/go collectors and all scanner metrics
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		APICalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingscan_fmp_calls_total",
				Help: "FMP API calls by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingscan_cache_lookups_total",
				Help: "Historical price cache lookups by result",
			},
			[]string{"result"},
		),

		StageItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingscan_stage_items_total",
				Help: "Candidates processed per enrichment stage by outcome",
			},
			[]string{"stage", "outcome"},
		),

		Scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swingscan_scans_total",
				Help: "Scans by terminal status",
			},
			[]string{"status"},
		),

		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "swingscan_scan_duration_seconds",
				Help:    "Wall-clock duration of a full scan",
				Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90, 120, 300},
			},
		),

		ActiveScans: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "swingscan_active_scans",
				Help: "Number of scans currently running",
			},
		),

		BudgetUsedPct: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "swingscan_last_scan_budget_used_ratio",
				Help: "Share of the call budget consumed by the last scan (0.0 to 1.0)",
			},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.APICalls,
		r.CacheLookups,
		r.StageItems,
		r.Scans,
		r.ScanDuration,
		r.ActiveScans,
		r.BudgetUsedPct,
	)

	return r
}

// Handler exposes the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry (tests)
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveAPICall counts one FMP call attempt
func (r *Registry) ObserveAPICall(endpoint, outcome string) {
	if r == nil {
		return
	}
	r.APICalls.WithLabelValues(endpoint, outcome).Inc()
}

// ObserveCache counts one cache lookup
func (r *Registry) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveStageItem counts one candidate outcome within a stage
func (r *Registry) ObserveStageItem(stage, outcome string) {
	if r == nil {
		return
	}
	r.StageItems.WithLabelValues(stage, outcome).Inc()
}

// ScanStarted marks a scan as active and returns a func that records its end
func (r *Registry) ScanStarted() func(status string, callsUsed, budget int) {
	if r == nil {
		return func(string, int, int) {}
	}

	start := time.Now()
	r.ActiveScans.Inc()

	return func(status string, callsUsed, budget int) {
		r.ActiveScans.Dec()
		r.Scans.WithLabelValues(status).Inc()
		r.ScanDuration.Observe(time.Since(start).Seconds())
		if budget > 0 {
			r.BudgetUsedPct.Set(float64(callsUsed) / float64(budget))
		}
	}
}
