package scanner

import (
	"github.com/wonny/swingscan/internal/external/fmp"
	"github.com/wonny/swingscan/internal/universe"
	"github.com/wonny/swingscan/pkg/config"
	"github.com/wonny/swingscan/pkg/httputil"
	"github.com/wonny/swingscan/pkg/logger"
	"github.com/wonny/swingscan/pkg/metrics"
	"github.com/wonny/swingscan/pkg/redis"
)

// Factory builds a fresh Scanner (and FMP client, and budget) per scan
type Factory struct {
	httpClient *httputil.Client
	fmpConfig  config.FMPConfig
	universe   universe.Lookup
	cache      *redis.Cache
	metrics    *metrics.Registry
	logger     *logger.Logger
}

// NewFactory creates a scanner factory
func NewFactory(httpClient *httputil.Client, fmpConfig config.FMPConfig, lookup universe.Lookup, log *logger.Logger) *Factory {
	return &Factory{
		httpClient: httpClient,
		fmpConfig:  fmpConfig,
		universe:   lookup,
		logger:     log,
	}
}

// WithCache shares a historical-bars cache across scans
func (f *Factory) WithCache(cache *redis.Cache) *Factory {
	f.cache = cache
	return f
}

// WithMetrics shares a metrics registry across scans
func (f *Factory) WithMetrics(reg *metrics.Registry) *Factory {
	f.metrics = reg
	return f
}

// Metrics returns the shared registry (may be nil)
func (f *Factory) Metrics() *metrics.Registry {
	return f.metrics
}

// New returns a single-use scanner. A missing API key fails here,
// before any call is made.
func (f *Factory) New() (*Scanner, error) {
	client, err := fmp.NewClient(f.httpClient, f.logger, f.fmpConfig)
	if err != nil {
		return nil, err
	}
	client.WithCache(f.cache).WithMetrics(f.metrics)

	return New(client, f.universe, f.logger).WithMetrics(f.metrics), nil
}
