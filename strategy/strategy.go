// Package strategy runs the signal-driven trading loop: per configured
// market per cycle it reads the order book, derives a directional
// signal, sizes a trade against a fractional-risk budget, and submits a
// limit order when the entry conditions hold.
package strategy

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"lighter-trading-bot/client"
	"lighter-trading-bot/ledger"
)

// MarketDataSource is the slice of the session client the loop reads
// market state through.
type MarketDataSource interface {
	GetOrderBook(market string) (*client.OrderBook, error)
	GetRecentTrades(market string, limit int) ([]client.Trade, error)
}

// OrderGateway is the slice of the session client the loop submits
// orders through.
type OrderGateway interface {
	CreateOrder(spec client.OrderSpec) (*client.SubmitResult, error)
}

// PositionBook is the slice of the ledger the loop consults and
// updates.
type PositionBook interface {
	Sync() (*ledger.Snapshot, error)
	Position(market string) (client.AccountPosition, bool)
	OpenPositionCount() int
	RecordSubmittedOrder(ord client.AccountOrder)
	Balance() float64
}

// Config holds the loop parameters.
type Config struct {
	Markets      []string
	MaxPositions int
	RiskPerTrade float64
	// StopDistance is the synthetic adverse-move fraction used for
	// sizing. There is no real stop order behind it; it only anchors
	// the risk calculation.
	StopDistance float64
	TradeLimit   int
	TimeInForce  string
}

// DefaultConfig returns conservative loop defaults.
func DefaultConfig() Config {
	return Config{
		MaxPositions: 3,
		RiskPerTrade: DefaultRiskPerTrade,
		StopDistance: 0.02,
		TradeLimit:   25,
		TimeInForce:  client.TimeInForceGTC,
	}
}

// MarketState is where a market ended up within one cycle.
type MarketState string

const (
	StateAnalyzed       MarketState = "analyzed"
	StateSkipped        MarketState = "skipped"
	StateOrderSubmitted MarketState = "order_submitted"
	StateFailed         MarketState = "failed"
)

// SkipReason explains why an analyzed market produced no order.
type SkipReason string

const (
	SkipNeutral     SkipReason = "neutral"
	SkipHasPosition SkipReason = "has_position"
	SkipCapReached  SkipReason = "cap_reached"
)

// MarketOutcome is one market's result within a cycle.
type MarketOutcome struct {
	Market     string
	Analysis   MarketAnalysis
	State      MarketState
	SkipReason SkipReason
	Order      *client.SubmitResult
	Err        error
}

// CycleError pairs a failed market with its error.
type CycleError struct {
	Market string
	Err    error
}

// CycleResult aggregates one full pass over the configured markets.
// A failed market never aborts the rest of the cycle: errors are
// collected here alongside the successful trades.
type CycleResult struct {
	Outcomes []MarketOutcome
	Trades   int
	Errors   []CycleError
}

// PerformanceMetrics is the plain snapshot handed to the presentation
// boundary.
type PerformanceMetrics struct {
	StartTime       time.Time
	Uptime          time.Duration
	Cycles          int64
	MarketsAnalyzed int64
	OrdersSubmitted int64
	Failures        int64
	SignalCounts    map[Signal]int64
}

// Engine orchestrates analysis, sizing, and submission. Concurrent
// RunCycle invocations are not safe: the nonce sequencer and ledger
// behind the gateways carry unguarded mutable state, so cycles must be
// serialized by the caller.
type Engine struct {
	config  Config
	logger  *zap.Logger
	source  MarketDataSource
	gateway OrderGateway
	book    PositionBook

	startTime time.Time

	metricsMu    sync.RWMutex
	cycles       int64
	analyzed     int64
	submitted    int64
	failures     int64
	signalCounts map[Signal]int64
}

// NewEngine wires the strategy loop over its collaborators.
func NewEngine(config Config, logger *zap.Logger, source MarketDataSource, gateway OrderGateway, book PositionBook) *Engine {
	if config.RiskPerTrade <= 0 {
		config.RiskPerTrade = DefaultRiskPerTrade
	}
	if config.StopDistance <= 0 {
		config.StopDistance = 0.02
	}
	if config.TradeLimit <= 0 {
		config.TradeLimit = 25
	}
	if config.TimeInForce == "" {
		config.TimeInForce = client.TimeInForceGTC
	}
	return &Engine{
		config:       config,
		logger:       logger,
		source:       source,
		gateway:      gateway,
		book:         book,
		startTime:    time.Now(),
		signalCounts: make(map[Signal]int64),
	}
}

// RunCycle performs one pass: sync the ledger, then analyze every
// configured market in order. A submission failure on one market is
// recorded and the remaining markets still run.
func (e *Engine) RunCycle() (*CycleResult, error) {
	if _, err := e.book.Sync(); err != nil {
		return nil, err
	}

	e.metricsMu.Lock()
	e.cycles++
	e.metricsMu.Unlock()

	result := &CycleResult{}
	for _, market := range e.config.Markets {
		outcome := e.evaluateMarket(market)
		result.Outcomes = append(result.Outcomes, outcome)

		switch outcome.State {
		case StateOrderSubmitted:
			result.Trades++
		case StateFailed:
			result.Errors = append(result.Errors, CycleError{Market: market, Err: outcome.Err})
		}
	}

	e.logger.Info("Cycle complete",
		zap.Int("markets", len(e.config.Markets)),
		zap.Int("trades", result.Trades),
		zap.Int("failures", len(result.Errors)))

	return result, nil
}

func (e *Engine) evaluateMarket(market string) MarketOutcome {
	outcome := MarketOutcome{Market: market}

	book, err := e.source.GetOrderBook(market)
	if err != nil {
		e.recordFailure()
		e.logger.Warn("Order book fetch failed", zap.String("market", market), zap.Error(err))
		outcome.State = StateFailed
		outcome.Err = err
		return outcome
	}

	analysis := AnalyzeOrderBook(book)
	outcome.Analysis = analysis
	outcome.State = StateAnalyzed
	e.recordAnalysis(analysis.Signal)

	// Trade-flow annotation is advisory; a failed fetch never blocks
	// the cycle.
	if trades, err := e.source.GetRecentTrades(market, e.config.TradeLimit); err == nil {
		AnnotateTradeFlow(&outcome.Analysis, trades)
	} else {
		e.logger.Debug("Recent trades fetch failed", zap.String("market", market), zap.Error(err))
	}

	if analysis.Signal == SignalNeutral {
		outcome.State = StateSkipped
		outcome.SkipReason = SkipNeutral
		return outcome
	}

	if _, exists := e.book.Position(market); exists {
		outcome.State = StateSkipped
		outcome.SkipReason = SkipHasPosition
		e.logger.Debug("Skipping market with open position", zap.String("market", market))
		return outcome
	}

	if e.book.OpenPositionCount() >= e.config.MaxPositions {
		outcome.State = StateSkipped
		outcome.SkipReason = SkipCapReached
		e.logger.Info("Position cap reached, skipping entry",
			zap.String("market", market),
			zap.Int("max_positions", e.config.MaxPositions))
		return outcome
	}

	order, err := e.openOrder(market, outcome.Analysis)
	if err != nil {
		e.recordFailure()
		e.logger.Warn("Order submission failed", zap.String("market", market), zap.Error(err))
		outcome.State = StateFailed
		outcome.Err = err
		return outcome
	}

	outcome.State = StateOrderSubmitted
	outcome.Order = order
	return outcome
}

// openOrder sizes and submits a limit order at the touch: best bid for
// a bullish signal, best ask for a bearish one.
func (e *Engine) openOrder(market string, analysis MarketAnalysis) (*client.SubmitResult, error) {
	var side string
	var entry float64
	if analysis.Signal == SignalBullish {
		side = client.SideBuy
		entry = analysis.BestBid
	} else {
		side = client.SideSell
		entry = analysis.BestAsk
	}
	if entry <= 0 {
		return nil, &InvalidRiskInput{Reason: "no resting price to quote against"}
	}

	var stop float64
	if side == client.SideBuy {
		stop = entry * (1 - e.config.StopDistance)
	} else {
		stop = entry * (1 + e.config.StopDistance)
	}

	size, err := CalculatePositionSize(e.book.Balance(), e.config.RiskPerTrade, entry, stop)
	if err != nil {
		return nil, err
	}

	spec := client.OrderSpec{
		Market:      market,
		Side:        side,
		OrderType:   client.OrderTypeLimit,
		BaseAmount:  client.BaseToFixed(size),
		Price:       entry,
		TimeInForce: e.config.TimeInForce,
	}

	result, err := e.gateway.CreateOrder(spec)
	if err != nil {
		return nil, err
	}

	e.book.RecordSubmittedOrder(client.AccountOrder{
		ClientOrderIndex: result.ClientOrderIndex,
		Market:           market,
		Side:             side,
		Type:             client.OrderTypeLimit,
		Size:             size,
		Price:            entry,
	})

	e.metricsMu.Lock()
	e.submitted++
	e.metricsMu.Unlock()

	e.logger.Info("Order submitted",
		zap.String("market", market),
		zap.String("side", side),
		zap.Float64("size", size),
		zap.Float64("price", entry),
		zap.Int64("nonce", result.Nonce),
		zap.Int64("client_order_index", result.ClientOrderIndex))

	return result, nil
}

func (e *Engine) recordAnalysis(sig Signal) {
	e.metricsMu.Lock()
	e.analyzed++
	e.signalCounts[sig]++
	e.metricsMu.Unlock()
}

func (e *Engine) recordFailure() {
	e.metricsMu.Lock()
	e.failures++
	e.metricsMu.Unlock()
}

// GetPerformanceMetrics returns a snapshot for the presentation layer.
func (e *Engine) GetPerformanceMetrics() PerformanceMetrics {
	e.metricsMu.RLock()
	defer e.metricsMu.RUnlock()

	counts := make(map[Signal]int64, len(e.signalCounts))
	for k, v := range e.signalCounts {
		counts[k] = v
	}

	return PerformanceMetrics{
		StartTime:       e.startTime,
		Uptime:          time.Since(e.startTime),
		Cycles:          e.cycles,
		MarketsAnalyzed: e.analyzed,
		OrdersSubmitted: e.submitted,
		Failures:        e.failures,
		SignalCounts:    counts,
	}
}
