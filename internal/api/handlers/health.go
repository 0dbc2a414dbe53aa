package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/swingscan/pkg/database"
)

// DBChecker is satisfied by *database.DB
type DBChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// BreakerReporter is satisfied by *httputil.Client
type BreakerReporter interface {
	BreakerState() string
}

// HealthHandler reports service health
type HealthHandler struct {
	db      DBChecker
	scanner ScanRunner
	fmp     BreakerReporter
}

// NewHealthHandler creates a health handler; db may be nil
func NewHealthHandler(scanner ScanRunner, db DBChecker) *HealthHandler {
	return &HealthHandler{db: db, scanner: scanner}
}

// WithBreaker reports the FMP circuit breaker state.
// An open breaker marks the service degraded but keeps 200.
func (h *HealthHandler) WithBreaker(fmp BreakerReporter) *HealthHandler {
	h.fmp = fmp
	return h
}

// Health returns server health status
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":       "ok",
		"service":      "swingscan",
		"scan_running": h.scanner.Running(),
	}
	status := http.StatusOK

	if h.fmp != nil {
		state := h.fmp.BreakerState()
		resp["fmp_breaker"] = state
		if state == "open" {
			resp["status"] = "degraded"
		}
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		health, err := h.db.HealthCheck(ctx)
		resp["database"] = health
		if err != nil || health == nil || !health.Healthy {
			resp["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, status, resp)
}
