package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vitos/algo_trade_runner/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultHost    = "http://127.0.0.1:5002"
	defaultTimeout = 10 * time.Second
	defaultRetries = 3
	defaultTTL     = time.Second
)

// Options configures the gateway client. Caches are instance-scoped so two
// clients in one process never share state.
type Options struct {
	APIKey     string
	Host       string
	Timeout    time.Duration
	MaxRetries int
	QuoteTTL   time.Duration
	// CacheDir enables the on-disk history cache when non-empty.
	CacheDir string
	// Fallback is the secondary candle source consulted when the live API
	// returns no rows. Optional.
	Fallback domain.HistoryStore
	Logger   *zap.Logger
}

// Client talks to the broker gateway's REST API. All calls retry with
// exponential backoff up to a bounded attempt count; history degrades to an
// empty series and quotes to a nil result instead of propagating transport
// errors into strategy cycles.
type Client struct {
	apiKey     string
	host       string
	httpClient *http.Client
	maxRetries int
	quotes     *quoteCache
	disk       *historyCache
	fallback   domain.HistoryStore
	logger     *zap.Logger
	timeNow    func() time.Time
}

func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gateway: api key is required")
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultRetries
	}
	if opts.QuoteTTL == 0 {
		opts.QuoteTTL = defaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	var disk *historyCache
	if opts.CacheDir != "" {
		var err error
		disk, err = newHistoryCache(opts.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("gateway: init history cache: %w", err)
		}
	}

	return &Client{
		apiKey:     opts.APIKey,
		host:       opts.Host,
		httpClient: &http.Client{Timeout: opts.Timeout},
		maxRetries: opts.MaxRetries,
		quotes:     newQuoteCache(opts.QuoteTTL),
		disk:       disk,
		fallback:   opts.Fallback,
		logger:     opts.Logger,
		timeNow:    time.Now,
	}, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`

	// nonJSON marks an HTTP 200 whose body could not be parsed. For order
	// submission this is an ambiguous success, not a failure.
	nonJSON bool
}

// post sends one JSON request with bounded retry and backoff. Retries cover
// transport errors and 5xx responses; 4xx responses fail immediately.
func (c *Client) post(ctx context.Context, path string, payload map[string]any) (*envelope, error) {
	payload["apikey"] = c.apiKey
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var env envelope
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 500 {
			return fmt.Errorf("gateway %s: HTTP %d: %s", path, resp.StatusCode, truncate(respBody, 200))
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("gateway %s: HTTP %d: %s", path, resp.StatusCode, truncate(respBody, 200)))
		}

		if err := json.Unmarshal(respBody, &env); err != nil {
			env = envelope{nonJSON: true, Message: truncate(respBody, 200)}
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return &env, nil
}

type wireCandle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// History fetches candles for [start, end]. Fully historical ranges are
// served from and saved to the disk cache; ranges touching the current day
// always hit the API. A live query that yields nothing is retried once
// against the fallback store. Transport failure degrades to an empty series.
func (c *Client) History(ctx context.Context, symbol, exchange, interval string, start, end time.Time) (domain.Series, error) {
	startStr := start.Format("2006-01-02")
	endStr := end.Format("2006-01-02")
	today := c.timeNow().Format("2006-01-02")
	historical := endStr < today

	if historical && c.disk != nil {
		if cached, ok := c.disk.get(symbol, exchange, interval, startStr, endStr); ok && len(cached) > 0 {
			return cached, nil
		}
	}

	candles := c.fetchHistory(ctx, symbol, exchange, interval, startStr, endStr)

	if len(candles) == 0 && c.fallback != nil {
		fromStore, err := c.fallback.GetCandles(ctx, symbol, exchange, interval, start, end)
		if err != nil {
			c.logger.Warn("history fallback store failed",
				zap.String("symbol", symbol), zap.Error(err))
		} else if len(fromStore) > 0 {
			c.logger.Info("history served from fallback store",
				zap.String("symbol", symbol), zap.Int("rows", len(fromStore)))
			candles = fromStore
		}
	}

	if historical && c.disk != nil && len(candles) > 0 {
		c.disk.set(symbol, exchange, interval, startStr, endStr, candles)
	}

	return candles, nil
}

func (c *Client) fetchHistory(ctx context.Context, symbol, exchange, interval, start, end string) domain.Series {
	env, err := c.post(ctx, "/api/v1/history", map[string]any{
		"symbol":     symbol,
		"exchange":   exchange,
		"interval":   interval,
		"start_date": start,
		"end_date":   end,
	})
	if err != nil {
		c.logger.Error("history fetch failed",
			zap.String("symbol", symbol), zap.String("exchange", exchange), zap.Error(err))
		return nil
	}
	if env.Status != "success" {
		c.logger.Error("history fetch rejected",
			zap.String("symbol", symbol), zap.String("message", env.Message))
		return nil
	}

	var wire []wireCandle
	if err := json.Unmarshal(env.Data, &wire); err != nil {
		c.logger.Error("history payload malformed", zap.String("symbol", symbol), zap.Error(err))
		return nil
	}

	candles := make(domain.Series, 0, len(wire))
	for _, w := range wire {
		candles = append(candles, domain.Candle{
			Timestamp: time.Unix(w.Timestamp, 0).UTC(),
			Open:      w.Open,
			High:      w.High,
			Low:       w.Low,
			Close:     w.Close,
			Volume:    w.Volume,
		})
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles
}

// Quote returns the latest quote, served from the TTL cache when fresh.
// Exhausted retries or a malformed payload return (nil, error); callers
// treat that as "no quote this cycle".
func (c *Client) Quote(ctx context.Context, symbol, exchange string) (*domain.Quote, error) {
	if q := c.quotes.get(symbol, exchange, c.timeNow()); q != nil {
		return q, nil
	}

	env, err := c.post(ctx, "/api/v1/quotes", map[string]any{
		"symbol":   symbol,
		"exchange": exchange,
	})
	if err != nil {
		return nil, err
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("quote fetch failed for %s: %s", symbol, env.Message)
	}

	var q domain.Quote
	if err := json.Unmarshal(env.Data, &q); err != nil {
		return nil, fmt.Errorf("quote payload malformed for %s: %w", symbol, err)
	}
	if q.LTP == 0 {
		return nil, fmt.Errorf("quote for %s missing ltp", symbol)
	}
	q.Symbol = symbol
	q.Exchange = exchange
	q.FetchedAt = c.timeNow()

	c.quotes.set(&q)
	return &q, nil
}

// PlaceSmartOrder submits to the combined smart-order endpoint. An HTTP 200
// with an unparseable body is reported as an ambiguous success, not an
// error: the order may have been accepted.
func (c *Client) PlaceSmartOrder(ctx context.Context, req domain.SmartOrderRequest) (*domain.OrderResponse, error) {
	env, err := c.post(ctx, "/api/v1/placesmartorder", map[string]any{
		"strategy":           req.Strategy,
		"symbol":             req.Symbol,
		"action":             string(req.Action),
		"exchange":           req.Exchange,
		"pricetype":          req.PriceType,
		"product":            req.Product,
		"quantity":           strconv.Itoa(req.Quantity),
		"position_size":      strconv.Itoa(req.PositionSize),
		"price":              strconv.FormatFloat(req.Price, 'f', -1, 64),
		"trigger_price":      strconv.FormatFloat(req.TriggerPrice, 'f', -1, 64),
		"disclosed_quantity": "0",
		"client_order_id":    req.ClientOrderID,
	})
	if err != nil {
		return nil, err
	}

	if env.nonJSON {
		c.logger.Warn("order endpoint returned non-JSON body; treating as ambiguous success",
			zap.String("symbol", req.Symbol), zap.String("body", env.Message))
		return &domain.OrderResponse{Status: "success", Message: "order placed (non-JSON response)", Ambiguous: true}, nil
	}

	resp := &domain.OrderResponse{Status: env.Status, Message: env.Message}
	if len(env.Data) > 0 {
		var data struct {
			OrderID string `json:"orderid"`
		}
		if err := json.Unmarshal(env.Data, &data); err == nil {
			resp.OrderID = data.OrderID
		}
	}
	return resp, nil
}

func (c *Client) PositionBook(ctx context.Context) ([]domain.BrokerPosition, error) {
	env, err := c.post(ctx, "/api/v1/positionbook", map[string]any{})
	if err != nil {
		return nil, err
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("positionbook fetch failed: %s", env.Message)
	}

	var positions []domain.BrokerPosition
	if err := json.Unmarshal(env.Data, &positions); err != nil {
		return nil, fmt.Errorf("positionbook payload malformed: %w", err)
	}
	return positions, nil
}

func (c *Client) OrderBook(ctx context.Context) ([]domain.BrokerOrder, error) {
	env, err := c.post(ctx, "/api/v1/orderbook", map[string]any{})
	if err != nil {
		return nil, err
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("orderbook fetch failed: %s", env.Message)
	}

	var orders []domain.BrokerOrder
	if err := json.Unmarshal(env.Data, &orders); err != nil {
		return nil, fmt.Errorf("orderbook payload malformed: %w", err)
	}
	return orders, nil
}

// injectTick refreshes the quote cache from the websocket stream.
func (c *Client) injectTick(symbol, exchange string, ltp float64) {
	c.quotes.set(&domain.Quote{Symbol: symbol, Exchange: exchange, LTP: ltp, FetchedAt: c.timeNow()})
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
