package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/wonny/swingscan/internal/contracts"
	"github.com/wonny/swingscan/internal/report"
	"github.com/wonny/swingscan/internal/scanner"
	"github.com/wonny/swingscan/pkg/config"
	"github.com/wonny/swingscan/pkg/logger"
)

// ScanRunner is the part of scanner.Service the handlers drive
type ScanRunner interface {
	Run(ctx context.Context, cfg scanner.ScanConfig, progress scanner.ProgressFunc) (*contracts.ScanResult, error)
	Latest() *contracts.ScanResult
	Running() bool
}

// HistoryStore serves the latest persisted scan when memory is empty (optional)
type HistoryStore interface {
	Latest(ctx context.Context) (*contracts.ScanResult, error)
}

// ScanHandler handles scan endpoints
// ⭐ SSOT: 스캔 API 핸들러는 이 구조체에서만
type ScanHandler struct {
	service  ScanRunner
	defaults scanner.ScanConfig
	history  HistoryStore
	logger   *logger.Logger
	now      func() time.Time
}

// NewScanHandler creates a new scan handler
func NewScanHandler(service ScanRunner, defaults scanner.ScanConfig, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		service:  service,
		defaults: defaults,
		logger:   log,
		now:      time.Now,
	}
}

// WithHistory enables the database fallback for GET /api/scans/latest
func (h *ScanHandler) WithHistory(history HistoryStore) *ScanHandler {
	h.history = history
	return h
}

// scanOverrides are the POST /api/scan body keys.
// Every key is any JSON number: 15, 15.0 and 1e9 are all accepted.
type scanOverrides struct {
	MarketCapMin *float64 `json:"market_cap_min"`
	VolumeMin    *float64 `json:"volume_min"`
	ATHMin       *float64 `json:"ath_min"`
	ATHMax       *float64 `json:"ath_max"`
	TopN         *float64 `json:"top_n"`
}

// scanConfig applies JSON overrides to the defaults. Unknown keys are ignored.
// Integer keys are truncated toward zero.
func (h *ScanHandler) scanConfig(body []byte) (scanner.ScanConfig, error) {
	cfg := h.defaults
	if len(bytes.TrimSpace(body)) == 0 {
		return cfg, nil
	}

	var o scanOverrides
	if err := json.Unmarshal(body, &o); err != nil {
		return cfg, err
	}

	if o.MarketCapMin != nil {
		v, err := toInt64("market_cap_min", *o.MarketCapMin)
		if err != nil {
			return cfg, err
		}
		cfg.MarketCapMin = v
	}
	if o.VolumeMin != nil {
		v, err := toInt64("volume_min", *o.VolumeMin)
		if err != nil {
			return cfg, err
		}
		cfg.VolumeMin = v
	}
	if o.ATHMin != nil {
		cfg.ATHMin = *o.ATHMin
	}
	if o.ATHMax != nil {
		cfg.ATHMax = *o.ATHMax
	}
	if o.TopN != nil {
		v, err := toInt64("top_n", *o.TopN)
		if err != nil {
			return cfg, err
		}
		if v > math.MaxInt32 || v < math.MinInt32 {
			return cfg, fmt.Errorf("top_n out of range: %v", *o.TopN)
		}
		cfg.TopN = int(v)
	}

	return cfg, nil
}

// toInt64 truncates a JSON number, rejecting values beyond int64
func toInt64(key string, f float64) (int64, error) {
	t := math.Trunc(f)
	if t >= math.MaxInt64 || t < math.MinInt64 {
		return 0, fmt.Errorf("%s out of range: %v", key, f)
	}
	return int64(t), nil
}

// Run executes a scan synchronously and returns the result
// POST /api/scan
func (h *ScanHandler) Run(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg, err := h.scanConfig(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"ath_min": cfg.ATHMin,
		"ath_max": cfg.ATHMax,
		"top_n":   cfg.TopN,
	}).Info("Scan triggered")

	result, err := h.service.Run(r.Context(), cfg, nil)
	if err != nil {
		status, msg := scanErrorStatus(err)
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// scanErrorStatus maps a scan error to an HTTP status
func scanErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, config.ErrMissingAPIKey):
		return http.StatusBadRequest, config.ErrMissingAPIKey.Error()
	case errors.Is(err, scanner.ErrInvalidConfig):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, scanner.ErrScanInProgress):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// DownloadCSV exports the latest in-memory scan
// GET /api/csv
func (h *ScanHandler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	latest := h.service.Latest()
	if latest == nil {
		respondError(w, http.StatusBadRequest, "No scan data available. Run a scan first.")
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, latest.Stocks); err != nil {
		h.logger.WithError(err).Error("Failed to build CSV")
		respondError(w, http.StatusInternalServerError, "Failed to build CSV")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+report.CSVFilename(h.now()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Latest returns the most recent scan (memory first, then history)
// GET /api/scans/latest
func (h *ScanHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if latest := h.service.Latest(); latest != nil {
		respondJSON(w, http.StatusOK, latest)
		return
	}

	if h.history != nil {
		latest, err := h.history.Latest(r.Context())
		switch {
		case err == nil:
			respondJSON(w, http.StatusOK, latest)
			return
		case !errors.Is(err, report.ErrNoScans):
			h.logger.WithError(err).Error("Failed to load scan history")
			respondError(w, http.StatusInternalServerError, "Failed to retrieve scan history")
			return
		}
	}

	respondError(w, http.StatusNotFound, "No scan data available. Run a scan first.")
}
