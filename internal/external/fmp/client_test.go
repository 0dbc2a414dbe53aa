package fmp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swingscan/pkg/config"
	"github.com/wonny/swingscan/pkg/httputil"
	"github.com/wonny/swingscan/pkg/logger"
	"github.com/wonny/swingscan/pkg/metrics"
	"github.com/wonny/swingscan/pkg/redis"
)

// fixedNow is a Wednesday
var fixedNow = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc, maxCalls int) (*Client, *int32) {
	t.Helper()

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Query().Get("apikey") != "test-key" {
			t.Errorf("missing apikey on %s", r.URL.Path)
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	httpClient := httputil.New(logger.Nop()).DisableRetry()
	c, err := NewClient(httpClient, logger.Nop(), config.FMPConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		MaxCalls: maxCalls,
	})
	require.NoError(t, err)
	c.WithClock(func() time.Time { return fixedNow })

	return c, &hits
}

func TestNewClient_RejectsMissingKey(t *testing.T) {
	for _, key := range []string{"", "your_api_key_here"} {
		_, err := NewClient(httputil.New(logger.Nop()), logger.Nop(), config.FMPConfig{APIKey: key, MaxCalls: 10})
		assert.ErrorIs(t, err, config.ErrMissingAPIKey, "key %q", key)
	}
}

func TestResolveTradingDate(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"monday goes to friday", time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), "2024-03-08"},
		{"sunday goes to friday", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), "2024-03-08"},
		{"saturday goes to friday", time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC), "2024-03-08"},
		{"wednesday goes to tuesday", time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC), "2024-03-12"},
		{"tuesday goes to monday", time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC), "2024-03-11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTradingDate(tt.now).Format("2006-01-02"))
		})
	}
}

func TestGetSectorPerformance_AggregatesExchanges(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sector-performance-snapshot", r.URL.Path)
		assert.Equal(t, "2024-03-12", r.URL.Query().Get("date"))
		w.Write([]byte(`[
			{"date":"2024-03-12","sector":"Technology","exchange":"NASDAQ","averageChange":2.5},
			{"date":"2024-03-12","sector":"Energy","exchange":"NASDAQ","averageChange":1.2},
			{"date":"2024-03-12","sector":"Technology","exchange":"NYSE","averageChange":2.2},
			{"date":"2024-03-12","sector":"Energy","exchange":"NYSE","averageChange":"1.0"},
			{"date":"2024-03-12","sector":"Healthcare","exchange":"NYSE","changesPercentage":"-0.50%"},
			{"date":"2024-03-12","sector":"Utilities","exchange":"NYSE","averageChange":0.123456789}
		]`))
	}, 10)

	got, err := c.GetSectorPerformance(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "Technology", got[0].Name)
	assert.Equal(t, "2.35", got[0].ChangePct.String())
	assert.Equal(t, "Energy", got[1].Name)
	assert.Equal(t, "1.1", got[1].ChangePct.String())
	assert.Equal(t, "Healthcare", got[2].Name)
	assert.Equal(t, "-0.5", got[2].ChangePct.String())
	assert.Equal(t, "0.1235", got[3].ChangePct.String())

	assert.Equal(t, 1, c.Budget().Used())
}

func TestGetSectorPerformance_ExplicitDate(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-01-05", r.URL.Query().Get("date"))
		w.Write([]byte(`[]`))
	}, 10)

	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	got, err := c.GetSectorPerformance(context.Background(), &day)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetQuote(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		switch r.URL.Query().Get("symbol") {
		case "AAPL":
			w.Write([]byte(`[{"symbol":"AAPL","name":"Apple Inc.","price":150,"yearHigh":200,"yearLow":120,"volume":51234567,"avgVolume":60000000}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}, 10)

	q, err := c.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", q.Name)
	assert.Equal(t, 150.0, q.Price)
	assert.Equal(t, 200.0, q.YearHigh)
	assert.Equal(t, 51234567.0, q.Volume)

	_, err = c.GetQuote(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, IsBudgetExhausted(err))
}

func TestGetHistoricalPrices_NormalizesShapes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/historical-price-eod/full", r.URL.Path)
		// 1825일 전
		assert.Equal(t, "2019-03-15", r.URL.Query().Get("from"))
		switch r.URL.Query().Get("symbol") {
		case "LIST":
			w.Write([]byte(`[{"symbol":"LIST","date":"2024-03-12","high":180},{"symbol":"LIST","date":"2024-03-11","high":220}]`))
		case "WRAP":
			w.Write([]byte(`{"symbol":"WRAP","historical":[{"date":"2024-03-12","high":190}]}`))
		case "EMPTY":
			w.Write([]byte(`{}`))
		default:
			w.Write([]byte(`"nope"`))
		}
	}, 10)

	list, err := c.GetHistoricalPrices(context.Background(), "LIST", 0)
	require.NoError(t, err)
	assert.Equal(t, "LIST", list.Symbol)
	require.Len(t, list.Historical, 2)
	assert.Equal(t, 220.0, list.Historical[1].High)

	wrapped, err := c.GetHistoricalPrices(context.Background(), "WRAP", DefaultLookbackDays)
	require.NoError(t, err)
	assert.Equal(t, "WRAP", wrapped.Symbol)
	require.Len(t, wrapped.Historical, 1)

	empty, err := c.GetHistoricalPrices(context.Background(), "EMPTY", 0)
	require.NoError(t, err)
	assert.Equal(t, "EMPTY", empty.Symbol)
	assert.Empty(t, empty.Historical)

	_, err = c.GetHistoricalPrices(context.Background(), "BAD", 0)
	assert.Error(t, err)
}

func TestBudgetExhaustedOnNPlusOneCall(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"X","price":1,"yearHigh":2}]`))
	}, 3)

	for i := 0; i < 3; i++ {
		_, err := c.GetQuote(context.Background(), "X")
		require.NoError(t, err)
	}

	_, err := c.GetQuote(context.Background(), "X")
	require.Error(t, err)
	assert.True(t, IsBudgetExhausted(err))

	// the failing call never reached the network
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
	assert.Equal(t, 3, c.Budget().Used())
	assert.Equal(t, 0, c.Budget().Remaining())
}

func TestRateLimitTranslatesToBudgetExhausted(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"Error Message":"Limit Reach"}`))
	}, 10)

	_, err := c.GetQuote(context.Background(), "AAPL")

	var be *BudgetExhaustedError
	require.ErrorAs(t, err, &be)
	assert.True(t, be.RateLimited)
	assert.Equal(t, 10, be.Limit)
	assert.Equal(t, 1, be.Used)
}

func TestUpstreamErrorTruncatesBody(t *testing.T) {
	long := strings.Repeat("x", 500)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(long))
	}, 10)

	_, err := c.GetQuote(context.Background(), "AAPL")

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusForbidden, ue.StatusCode)
	assert.Len(t, ue.Body, maxErrorBody)
	assert.False(t, IsBudgetExhausted(err))
}

func TestMalformedJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}, 10)

	_, err := c.GetSectorPerformance(context.Background(), nil)
	require.Error(t, err)

	var ue *UpstreamError
	assert.False(t, errors.As(err, &ue))
}

func TestPacingSpacesCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"X","price":1}]`))
	}))
	defer server.Close()

	c, err := NewClient(httputil.New(logger.Nop()).DisableRetry(), logger.Nop(), config.FMPConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		MaxCalls: 10,
		Pacing:   40 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.GetQuote(context.Background(), "X")
		require.NoError(t, err)
	}

	// first call immediate, then two gaps
	assert.GreaterOrEqual(t, time.Since(start), 75*time.Millisecond)
}

func TestPacingWaitsAfterSlowResponse(t *testing.T) {
	var (
		mu       sync.Mutex
		arrivals []time.Time
		finishes []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()

		// 응답이 간격보다 느림
		time.Sleep(60 * time.Millisecond)
		w.Write([]byte(`[{"symbol":"X","price":1}]`))

		mu.Lock()
		finishes = append(finishes, time.Now())
		mu.Unlock()
	}))
	defer server.Close()

	c, err := NewClient(httputil.New(logger.Nop()).DisableRetry(), logger.Nop(), config.FMPConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		MaxCalls: 10,
		Pacing:   40 * time.Millisecond,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.GetQuote(context.Background(), "X")
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, arrivals, 3)
	for i := 1; i < len(arrivals); i++ {
		gap := arrivals[i].Sub(finishes[i-1])
		assert.GreaterOrEqual(t, gap, 40*time.Millisecond, "gap before call %d", i+1)
	}
}

func TestPacingCancelRefundsBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"X","price":1}]`))
	}))
	defer server.Close()

	c, err := NewClient(httputil.New(logger.Nop()).DisableRetry(), logger.Nop(), config.FMPConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		MaxCalls: 10,
		Pacing:   time.Hour,
	})
	require.NoError(t, err)

	_, err = c.GetQuote(context.Background(), "X")
	require.NoError(t, err)
	require.Equal(t, 1, c.Budget().Used())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.GetQuote(ctx, "X")
	require.Error(t, err)

	assert.Equal(t, 1, c.Budget().Used(), "a call that never left must not spend budget")
}

func TestMetricsRecordOutcomes(t *testing.T) {
	reg := metrics.New()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}, 1)
	c.WithMetrics(reg)

	_, _ = c.GetQuote(context.Background(), "A")
	_, _ = c.GetQuote(context.Background(), "B")

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.APICalls.WithLabelValues(endpointQuote, metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.APICalls.WithLabelValues(endpointQuote, metrics.OutcomeBudgetExhausted)))
}

func TestHistoricalCacheHitCostsNoBudget(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cache := redis.NewCache(redis.Wrap(rdb), "swingscan")

	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("network should not be touched on a cache hit")
	}, 1)
	c.WithCache(cache)

	mock.ExpectGet("swingscan:cache:historical:AAPL:2019-03-15").
		SetVal(`{"symbol":"AAPL","historical":[{"date":"2024-03-12","high":220}]}`)

	got, err := c.GetHistoricalPrices(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, got.Historical, 1)
	assert.Equal(t, 220.0, got.Historical[0].High)

	assert.Equal(t, 0, c.Budget().Used())
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoricalCacheMissStoresResult(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cache := redis.NewCache(redis.Wrap(rdb), "swingscan")

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"date":"2024-03-12","high":99}]`))
	}, 5)
	c.WithCache(cache)

	mock.ExpectGet("swingscan:cache:historical:MSFT:2019-03-15").RedisNil()
	mock.ExpectSet("swingscan:cache:historical:MSFT:2019-03-15",
		[]byte(`{"symbol":"MSFT","historical":[{"date":"2024-03-12","open":0,"high":99,"low":0,"close":0,"volume":0}]}`),
		redis.TTLDaily).SetVal("OK")

	got, err := c.GetHistoricalPrices(context.Background(), "MSFT", 0)
	require.NoError(t, err)
	require.Len(t, got.Historical, 1)
	assert.Equal(t, 1, c.Budget().Used())
	assert.NoError(t, mock.ExpectationsWereMet())
}
