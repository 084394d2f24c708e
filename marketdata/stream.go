// Package marketdata maintains a live order-book stream from the
// Lighter WebSocket feed. The stream is monitoring-only: the strategy
// loop reads books over REST each cycle, while this feed keeps the
// operator display and freshness checks cheap between polls.
package marketdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// BookTop is the latest best-of-book for one market.
type BookTop struct {
	Market    string
	BestBid   float64
	BestAsk   float64
	Timestamp time.Time
}

// BookCallback is invoked on every book update received.
type BookCallback func(top BookTop)

// Config holds the stream parameters.
type Config struct {
	WSURL             string
	Markets           []string
	ReconnectInterval time.Duration
	MaxReconnects     int
	EnableLogging     bool
}

// DefaultConfig returns the mainnet stream defaults.
func DefaultConfig() Config {
	return Config{
		WSURL:             "wss://mainnet.zklighter.elliot.ai/stream",
		ReconnectInterval: 5 * time.Second,
		MaxReconnects:     10,
		EnableLogging:     true,
	}
}

// ConnectionStatus reports the stream's health.
type ConnectionStatus struct {
	IsConnected    bool
	ReconnectCount int
	MessageCount   int64
	LastMessage    time.Time
}

type subscribeMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

type bookUpdateMessage struct {
	Channel   string `json:"channel"`
	Market    string `json:"market"`
	Timestamp int64  `json:"timestamp"`
	OrderBook struct {
		Bids []struct {
			Price float64 `json:"price"`
			Size  float64 `json:"size"`
		} `json:"bids"`
		Asks []struct {
			Price float64 `json:"price"`
			Size  float64 `json:"size"`
		} `json:"asks"`
	} `json:"order_book"`
}

// Stream is the WebSocket order-book feed.
type Stream struct {
	config Config
	dialer *websocket.Dialer
	logger *log.Logger

	conn              *websocket.Conn
	isConnected       bool
	reconnectAttempts int
	connMu            sync.Mutex

	tops   map[string]BookTop
	topsMu sync.RWMutex

	callback   BookCallback
	callbackMu sync.RWMutex

	status   ConnectionStatus
	statusMu sync.RWMutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewStream builds a stream over the configured markets.
func NewStream(config Config) *Stream {
	s := &Stream{
		config: config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		},
		tops:   make(map[string]BookTop),
		stopCh: make(chan struct{}),
	}
	if config.EnableLogging {
		s.logger = log.New(log.Writer(), "[Stream] ", log.LstdFlags)
	}
	return s
}

func (s *Stream) log(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// SetBookCallback registers the per-update callback.
func (s *Stream) SetBookCallback(callback BookCallback) {
	s.callbackMu.Lock()
	s.callback = callback
	s.callbackMu.Unlock()
}

// Start connects, subscribes to every configured market, and launches
// the read loop.
func (s *Stream) Start() error {
	if err := s.connect(); err != nil {
		return fmt.Errorf("failed to establish stream connection: %w", err)
	}

	if err := s.subscribeAll(); err != nil {
		return err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.log("Order book stream started for %d markets", len(s.config.Markets))
	return nil
}

// Stop closes the connection and waits for the read loop to exit.
func (s *Stream) Stop() error {
	close(s.stopCh)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.isConnected = false
	}
	s.connMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log("Order book stream stopped")
		return nil
	case <-time.After(10 * time.Second):
		return errors.New("timeout waiting for stream reader to finish")
	}
}

// GetLatest returns the freshest best-of-book for a market.
func (s *Stream) GetLatest(market string) (BookTop, bool) {
	s.topsMu.RLock()
	defer s.topsMu.RUnlock()
	top, ok := s.tops[market]
	return top, ok
}

// GetConnectionStatus returns the stream's current health.
func (s *Stream) GetConnectionStatus() ConnectionStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *Stream) connect() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.isConnected {
		return nil
	}

	s.log("Connecting to %s", s.config.WSURL)
	conn, _, err := s.dialer.Dial(s.config.WSURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial stream: %w", err)
	}

	s.conn = conn
	s.isConnected = true

	s.statusMu.Lock()
	s.status.IsConnected = true
	s.statusMu.Unlock()

	return nil
}

func (s *Stream) subscribeAll() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	for _, market := range s.config.Markets {
		msg := subscribeMessage{
			Type:    "subscribe",
			Channel: "order_book/" + market,
		}
		if err := s.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", market, err)
		}
	}
	return nil
}

func (s *Stream) readLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn == nil {
			if !s.tryReconnect() {
				return
			}
			continue
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}
			s.log("Read error: %v", err)
			if !s.tryReconnect() {
				return
			}
			continue
		}

		s.handleMessage(raw)
	}
}

// tryReconnect reconnects with a bounded number of attempts. Returns
// false once the budget is exhausted or the stream is stopping.
func (s *Stream) tryReconnect() bool {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.isConnected = false
	s.reconnectAttempts++
	attempts := s.reconnectAttempts
	s.connMu.Unlock()

	s.statusMu.Lock()
	s.status.IsConnected = false
	s.status.ReconnectCount++
	s.statusMu.Unlock()

	if attempts > s.config.MaxReconnects {
		s.log("Maximum reconnection attempts reached (%d), giving up", s.config.MaxReconnects)
		return false
	}

	s.log("Reconnecting (attempt %d/%d)", attempts, s.config.MaxReconnects)
	select {
	case <-s.stopCh:
		return false
	case <-time.After(s.config.ReconnectInterval):
	}

	if err := s.connect(); err != nil {
		s.log("Reconnect failed: %v", err)
		return s.tryReconnect()
	}
	if err := s.subscribeAll(); err != nil {
		s.log("Resubscribe failed: %v", err)
		return s.tryReconnect()
	}

	// The budget resets only once the feed is fully re-established; a
	// dial that succeeds but never subscribes still burns attempts.
	s.connMu.Lock()
	s.reconnectAttempts = 0
	s.connMu.Unlock()
	return true
}

func (s *Stream) handleMessage(raw []byte) {
	var msg bookUpdateMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.log("Dropping malformed message: %v", err)
		return
	}
	if msg.Market == "" {
		return
	}

	top := BookTop{
		Market:    msg.Market,
		Timestamp: time.Now(),
	}
	if len(msg.OrderBook.Bids) > 0 {
		top.BestBid = msg.OrderBook.Bids[0].Price
	}
	if len(msg.OrderBook.Asks) > 0 {
		top.BestAsk = msg.OrderBook.Asks[0].Price
	}

	s.topsMu.Lock()
	s.tops[msg.Market] = top
	s.topsMu.Unlock()

	s.statusMu.Lock()
	s.status.MessageCount++
	s.status.LastMessage = top.Timestamp
	s.statusMu.Unlock()

	s.callbackMu.RLock()
	callback := s.callback
	s.callbackMu.RUnlock()
	if callback != nil {
		callback(top)
	}
}
