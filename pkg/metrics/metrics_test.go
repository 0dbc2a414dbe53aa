package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAPICall(t *testing.T) {
	r := New()

	r.ObserveAPICall("quote", OutcomeOK)
	r.ObserveAPICall("quote", OutcomeOK)
	r.ObserveAPICall("historical", OutcomeRateLimited)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.APICalls.WithLabelValues("quote", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.APICalls.WithLabelValues("historical", OutcomeRateLimited)))
}

func TestObserveCache(t *testing.T) {
	r := New()

	r.ObserveCache(true)
	r.ObserveCache(false)
	r.ObserveCache(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.CacheLookups.WithLabelValues("miss")))
}

func TestScanStarted(t *testing.T) {
	r := New()

	done := r.ScanStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ActiveScans))

	done(ScanPartial, 50, 200)

	assert.Equal(t, 0.0, testutil.ToFloat64(r.ActiveScans))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Scans.WithLabelValues(ScanPartial)))
	assert.Equal(t, 0.25, testutil.ToFloat64(r.BudgetUsedPct))
	assert.Equal(t, 1, testutil.CollectAndCount(r.ScanDuration))
}

func TestNilRegistryIsNoop(t *testing.T) {
	var r *Registry

	assert.NotPanics(t, func() {
		r.ObserveAPICall("quote", OutcomeOK)
		r.ObserveCache(true)
		r.ObserveStageItem("quick_filter", "passed")
		r.ScanStarted()(ScanCompleted, 1, 1)
	})
}

func TestHandler(t *testing.T) {
	r := New()
	r.ObserveStageItem("deep_enrichment", "skipped")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `swingscan_stage_items_total{outcome="skipped",stage="deep_enrichment"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
