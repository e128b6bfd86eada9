package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/algo_trade_runner/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts *Options) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	o := Options{APIKey: "test-key", Host: srv.URL, MaxRetries: 2}
	if opts != nil {
		o = *opts
		o.APIKey = "test-key"
		o.Host = srv.URL
	}
	client, err := NewClient(o)
	require.NoError(t, err)
	return client
}

func TestClient_HistoryParsesAndSorts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "test-key", body["apikey"])
		assert.Equal(t, "INFY", body["symbol"])

		// Out of order on purpose; the client must sort.
		_, _ = w.Write([]byte(`{"status":"success","data":[
			{"timestamp":1200,"open":2,"high":3,"low":1,"close":2.5,"volume":20},
			{"timestamp":600,"open":1,"high":2,"low":0.5,"close":1.5,"volume":10}
		]}`))
	}, nil)

	candles, err := client.History(context.Background(), "INFY", "NSE", "5m",
		time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.True(t, candles[0].Timestamp.Before(candles[1].Timestamp))
	assert.Equal(t, 1.5, candles[0].Close)
}

func TestClient_HistoryDegradesToEmpty(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	candles, err := client.History(context.Background(), "INFY", "NSE", "5m",
		time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err, "history must not propagate transport errors")
	assert.Empty(t, candles)
	// Initial attempt plus bounded retries.
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

type stubStore struct {
	candles domain.Series
}

func (s *stubStore) SaveCandles(ctx context.Context, symbol, exchange, interval string, candles domain.Series) error {
	return nil
}

func (s *stubStore) GetCandles(ctx context.Context, symbol, exchange, interval string, start, end time.Time) (domain.Series, error) {
	return s.candles, nil
}

func TestClient_HistoryFallsBackToStore(t *testing.T) {
	fallback := &stubStore{candles: domain.Series{
		{Timestamp: time.Unix(600, 0), Close: 101},
	}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{APIKey: "k", Host: srv.URL, Fallback: fallback})
	require.NoError(t, err)

	candles, err := client.History(context.Background(), "INFY", "NSE", "5m",
		time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, 101.0, candles[0].Close)
}

func TestClient_HistoryDiskCacheSkipsRefetch(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"status":"success","data":[
			{"timestamp":600,"open":1,"high":2,"low":0.5,"close":1.5,"volume":10}
		]}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Options{APIKey: "k", Host: srv.URL, CacheDir: t.TempDir()})
	require.NoError(t, err)

	// Range entirely in the past: second call must be served from disk.
	start := time.Now().AddDate(0, 0, -10)
	end := time.Now().AddDate(0, 0, -5)
	for i := 0; i < 2; i++ {
		candles, err := client.History(context.Background(), "INFY", "NSE", "5m", start, end)
		require.NoError(t, err)
		require.Len(t, candles, 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// A range including today is always re-fetched.
	_, err = client.History(context.Background(), "INFY", "NSE", "5m", start, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_QuoteCachedWithinTTL(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"status":"success","data":{"ltp":123.45}}`))
	}, nil)

	for i := 0; i < 5; i++ {
		q, err := client.Quote(context.Background(), "INFY", "NSE")
		require.NoError(t, err)
		assert.Equal(t, 123.45, q.LTP)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_QuoteErrorOnBadPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{"no_ltp_here":1}}`))
	}, nil)

	_, err := client.Quote(context.Background(), "INFY", "NSE")
	assert.Error(t, err)
}

func TestClient_PlaceSmartOrderAmbiguousOnNonJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>proxy error page</html>`))
	}, nil)

	resp, err := client.PlaceSmartOrder(context.Background(), domain.SmartOrderRequest{
		Strategy: "test", Symbol: "INFY", Action: domain.SideBuy,
		Exchange: "NSE", PriceType: "MARKET", Product: "MIS", Quantity: 10, PositionSize: 10,
	})
	require.NoError(t, err)
	assert.True(t, resp.Ambiguous)
	assert.Equal(t, "success", resp.Status)
}

func TestClient_PlaceSmartOrderSendsStringQuantities(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// The gateway API expects quantities as strings.
		assert.Equal(t, "10", body["quantity"])
		assert.Equal(t, "25", body["position_size"])
		assert.Equal(t, "BUY", body["action"])
		_, _ = w.Write([]byte(`{"status":"success","data":{"orderid":"ord-1"}}`))
	}, nil)

	resp, err := client.PlaceSmartOrder(context.Background(), domain.SmartOrderRequest{
		Strategy: "test", Symbol: "INFY", Action: domain.SideBuy,
		Exchange: "NSE", PriceType: "MARKET", Product: "MIS", Quantity: 10, PositionSize: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", resp.OrderID)
	assert.False(t, resp.Ambiguous)
}
