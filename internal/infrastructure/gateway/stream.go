package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Stream subscribes to the gateway's websocket LTP feed. It is additive to
// the REST quote path: ticks update the client's quote cache so a tight
// poll loop sees fresh prices without extra HTTP round trips.
type Stream struct {
	wsURL  string
	apiKey string
	client *Client
	logger *zap.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	symbols   map[string]string // symbol -> exchange
	callbacks []func(symbol string, ltp float64)
}

func NewStream(wsURL, apiKey string, client *Client, logger *zap.Logger) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		wsURL:   wsURL,
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
		symbols: make(map[string]string),
	}
}

// OnTick registers a callback invoked for every LTP update.
func (s *Stream) OnTick(cb func(symbol string, ltp float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// Subscribe adds a symbol to the subscription set and, when connected,
// sends the subscribe frame immediately.
func (s *Stream) Subscribe(symbol, exchange string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.symbols[symbol] = exchange
	if s.conn == nil {
		return nil
	}
	return s.conn.WriteJSON(map[string]string{
		"action":   "subscribe",
		"symbol":   symbol,
		"exchange": exchange,
		"mode":     "ltp",
		"apikey":   s.apiKey,
	})
}

// Run connects and pumps ticks until ctx is cancelled, reconnecting with a
// fixed delay on any read or dial failure.
func (s *Stream) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := s.connectAndPump(ctx); err != nil {
			s.logger.Warn("ltp stream disconnected", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (s *Stream) connectAndPump(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.mu.Lock()
	s.conn = conn
	for symbol, exchange := range s.symbols {
		if err := conn.WriteJSON(map[string]string{
			"action":   "subscribe",
			"symbol":   symbol,
			"exchange": exchange,
			"mode":     "ltp",
			"apikey":   s.apiKey,
		}); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
	}()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var msg struct {
			Symbol   string  `json:"symbol"`
			Exchange string  `json:"exchange"`
			LTP      float64 `json:"ltp"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		if msg.Symbol == "" || msg.LTP == 0 {
			continue
		}

		s.dispatch(msg.Symbol, msg.Exchange, msg.LTP)
	}
}

func (s *Stream) dispatch(symbol, exchange string, ltp float64) {
	if s.client != nil {
		s.client.injectTick(symbol, exchange, ltp)
	}

	s.mu.Lock()
	cbs := make([]func(string, float64), len(s.callbacks))
	copy(cbs, s.callbacks)
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(symbol, ltp)
	}
}
