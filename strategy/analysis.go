package strategy

import (
	"time"

	"lighter-trading-bot/client"
)

// Signal is the coarse directional read of one market's book shape.
type Signal string

const (
	SignalBullish Signal = "bullish"
	SignalBearish Signal = "bearish"
	SignalNeutral Signal = "neutral"
)

// Imbalance thresholds: beyond ±0.2 the book is lopsided enough to act on.
const imbalanceThreshold = 0.2

// MarketAnalysis is the per-cycle derived view of one market. Never
// persisted; recomputed every cycle.
type MarketAnalysis struct {
	Market    string
	BestBid   float64
	BestAsk   float64
	Spread    float64
	MidPrice  float64
	BidVolume float64
	AskVolume float64
	Imbalance float64
	Signal    Signal
	Timestamp time.Time

	// Trade-flow annotations, filled in by AnnotateTradeFlow.
	TradeMomentum float64
	AvgTradeSize  float64
}

// AnalyzeOrderBook derives the directional signal from resting volume
// imbalance: (bidVol - askVol) / (bidVol + askVol), clamped to [-1, 1].
// An empty book is defined as imbalance 0 and a neutral signal.
func AnalyzeOrderBook(book *client.OrderBook) MarketAnalysis {
	analysis := MarketAnalysis{
		Market:    book.Market,
		Signal:    SignalNeutral,
		Timestamp: time.Now(),
	}

	if len(book.Bids) > 0 {
		analysis.BestBid = book.Bids[0].Price
	}
	if len(book.Asks) > 0 {
		analysis.BestAsk = book.Asks[0].Price
	}
	if analysis.BestBid > 0 && analysis.BestAsk > 0 {
		analysis.Spread = analysis.BestAsk - analysis.BestBid
		analysis.MidPrice = (analysis.BestBid + analysis.BestAsk) / 2
	}

	for _, level := range book.Bids {
		analysis.BidVolume += level.Size
	}
	for _, level := range book.Asks {
		analysis.AskVolume += level.Size
	}

	total := analysis.BidVolume + analysis.AskVolume
	if total > 0 {
		analysis.Imbalance = clamp((analysis.BidVolume-analysis.AskVolume)/total, -1, 1)
	}

	switch {
	case analysis.Imbalance > imbalanceThreshold:
		analysis.Signal = SignalBullish
	case analysis.Imbalance < -imbalanceThreshold:
		analysis.Signal = SignalBearish
	}

	return analysis
}

// AnnotateTradeFlow adds short-term trade momentum and average trade
// size from the recent trade feed. Momentum is the price change from
// the oldest to the newest trade, normalized by the oldest price and
// clamped to [-1, 1]. Advisory only: it never changes the signal.
func AnnotateTradeFlow(analysis *MarketAnalysis, trades []client.Trade) {
	if len(trades) == 0 {
		return
	}

	var totalSize float64
	for _, trade := range trades {
		totalSize += trade.Size
	}
	analysis.AvgTradeSize = totalSize / float64(len(trades))

	oldest := trades[len(trades)-1]
	newest := trades[0]
	if oldest.Price > 0 {
		analysis.TradeMomentum = clamp((newest.Price-oldest.Price)/oldest.Price, -1, 1)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
