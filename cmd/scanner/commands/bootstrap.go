package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/swingscan/internal/report"
	"github.com/wonny/swingscan/internal/scanner"
	"github.com/wonny/swingscan/internal/strategyconfig"
	"github.com/wonny/swingscan/internal/universe"
	"github.com/wonny/swingscan/pkg/config"
	"github.com/wonny/swingscan/pkg/database"
	"github.com/wonny/swingscan/pkg/httputil"
	"github.com/wonny/swingscan/pkg/logger"
	"github.com/wonny/swingscan/pkg/metrics"
	"github.com/wonny/swingscan/pkg/redis"
)

const (
	// defaultTimezone is used for schedules when no profile is loaded
	defaultTimezone = "America/New_York"

	// defaultUniverseFile receives refreshed constituents when UNIVERSE_FILE is unset
	defaultUniverseFile = "data/sp500.csv"
)

// app holds everything a command needs; build it with bootstrap and release it with Close
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Registry
	redis    *redis.Client
	db       *database.DB // nil without DATABASE_URL
	repo     *report.Repository
	universe *universe.Universe
	profile  *strategyconfig.Config // nil without --profile / SCAN_PROFILE
	defaults scanner.ScanConfig
	fmpHTTP  *httputil.Client
	factory  *scanner.Factory
	service  *scanner.Service
	reports  *report.JSONWriter
}

// bootstrap loads config and wires the scan service.
// The FMP key is not checked here; scans fail with config.ErrMissingAPIKey instead.
func bootstrap(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if profilePath != "" {
		cfg.ProfilePath = profilePath
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	// 3. Scan parameters: profile wins over env defaults
	a.defaults = scanner.FromDefaults(cfg.Scan)
	if cfg.ProfilePath != "" {
		profile, _, err := strategyconfig.Load(cfg.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		for _, w := range strategyconfig.Warn(profile) {
			log.WithFields(map[string]interface{}{
				"code":    w.Code,
				"profile": profile.Meta.ProfileID,
			}).Warn(w.Message)
		}
		if a.defaults, err = scanner.FromProfile(profile); err != nil {
			return nil, err
		}
		a.profile = profile
	}

	// 4. Reference universe
	if a.universe, err = universe.Load(cfg.UniverseFile); err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}

	// 5. Redis (no-op client when disabled)
	if a.redis, err = redis.New(ctx, cfg); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 6. Database (optional scan history)
	if cfg.Database.Enabled() {
		if a.db, err = database.New(ctx, cfg); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := a.db.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.repo = report.NewRepository(a.db.Pool)
		log.Info("Connected to database")
	}

	// 7. FMP transport: no retries (every attempt costs budget), breaker, shared limiter
	httpClient := httputil.NewWithTimeout(log, cfg.FMP.Timeout).
		DisableRetry().
		WithBreaker(httputil.BreakerConfig{
			Name:                "fmp",
			ConsecutiveFailures: 5,
			OpenTimeout:         30 * time.Second,
			Interval:            time.Minute,
		})
	if cfg.FMP.PerMinute > 0 && a.redis.Enabled() {
		limit := redis.FMPRateLimit
		limit.Limit = cfg.FMP.PerMinute
		httpClient = httpClient.WithRateLimiter(redis.NewRateLimiter(a.redis, "swingscan"), limit)
	}

	// 8. Scanner factory + service
	a.fmpHTTP = httpClient
	a.factory = scanner.NewFactory(httpClient, cfg.FMP, a.universe, log).
		WithCache(redis.NewCache(a.redis, "swingscan")).
		WithMetrics(a.metrics)

	a.reports = report.NewJSONWriter(cfg.ReportDir, log)
	sinks := []scanner.Sink{a.reports}
	if a.repo != nil {
		sinks = append(sinks, a.repo)
	}
	a.service = scanner.NewService(a.factory, a.metrics, log, sinks...)

	return a, nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}

// location returns the profile timezone, or New York
func (a *app) location() (*time.Location, error) {
	tz := defaultTimezone
	if a.profile != nil && a.profile.Meta.Timezone != "" {
		tz = a.profile.Meta.Timezone
	}
	return time.LoadLocation(tz)
}

// scanSchedule prefers the profile's local scan time over SCAN_SCHEDULE
func (a *app) scanSchedule() string {
	if a.profile == nil || a.profile.Meta.ScanTime == "" {
		return a.cfg.ScanSchedule
	}
	var hour, minute int
	if _, err := fmt.Sscanf(a.profile.Meta.ScanTime, "%d:%d", &hour, &minute); err != nil {
		return a.cfg.ScanSchedule
	}
	return fmt.Sprintf("0 %d %d * * MON-FRI", minute, hour)
}

// universePath is where refreshed constituents are written
func (a *app) universePath() string {
	if a.cfg.UniverseFile != "" {
		return a.cfg.UniverseFile
	}
	return defaultUniverseFile
}
