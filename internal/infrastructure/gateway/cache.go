package gateway

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vitos/algo_trade_runner/internal/domain"
)

// quoteCache bounds quote request volume during tight poll loops with a
// short TTL per (symbol, exchange).
type quoteCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*domain.Quote
}

func newQuoteCache(ttl time.Duration) *quoteCache {
	return &quoteCache{ttl: ttl, entries: make(map[string]*domain.Quote)}
}

func quoteKey(symbol, exchange string) string {
	return symbol + "_" + exchange
}

func (c *quoteCache) get(symbol, exchange string, now time.Time) *domain.Quote {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.entries[quoteKey(symbol, exchange)]
	if !ok || now.Sub(q.FetchedAt) >= c.ttl {
		return nil
	}
	return q
}

func (c *quoteCache) set(q *domain.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[quoteKey(q.Symbol, q.Exchange)] = q
}

// historyCache stores fully-historical candle ranges on disk so they are
// never re-fetched. Keys hash symbol/exchange/interval/date-range.
type historyCache struct {
	dir string
}

func newHistoryCache(dir string) (*historyCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &historyCache{dir: dir}, nil
}

func (c *historyCache) path(symbol, exchange, interval, start, end string) string {
	key := fmt.Sprintf("%s_%s_%s_%s_%s", symbol, exchange, interval, start, end)
	sum := md5.Sum([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

func (c *historyCache) get(symbol, exchange, interval, start, end string) (domain.Series, bool) {
	data, err := os.ReadFile(c.path(symbol, exchange, interval, start, end))
	if err != nil {
		return nil, false
	}

	var candles domain.Series
	if err := json.Unmarshal(data, &candles); err != nil {
		return nil, false
	}
	return candles, true
}

func (c *historyCache) set(symbol, exchange, interval, start, end string, candles domain.Series) {
	data, err := json.Marshal(candles)
	if err != nil {
		return
	}
	_ = os.WriteFile(c.path(symbol, exchange, interval, start, end), data, 0o644)
}
