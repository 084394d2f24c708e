package strategy

import (
	"math"
	"testing"

	"lighter-trading-bot/client"
)

func TestAnalyzeOrderBookBullish(t *testing.T) {
	book := &client.OrderBook{
		Market: "ETH",
		Bids:   []client.PriceLevel{{Price: 1850, Size: 70}, {Price: 1849, Size: 50}},
		Asks:   []client.PriceLevel{{Price: 1851, Size: 60}},
	}

	analysis := AnalyzeOrderBook(book)
	if analysis.BidVolume != 120 || analysis.AskVolume != 60 {
		t.Fatalf("volumes = %.0f/%.0f, want 120/60", analysis.BidVolume, analysis.AskVolume)
	}
	if math.Abs(analysis.Imbalance-1.0/3.0) > 1e-9 {
		t.Errorf("imbalance = %.6f, want 0.333333", analysis.Imbalance)
	}
	if analysis.Signal != SignalBullish {
		t.Errorf("signal = %s, want bullish", analysis.Signal)
	}
	if analysis.BestBid != 1850 || analysis.BestAsk != 1851 {
		t.Errorf("touch = %.0f/%.0f, want 1850/1851", analysis.BestBid, analysis.BestAsk)
	}
	if math.Abs(analysis.Spread-1) > 1e-9 || math.Abs(analysis.MidPrice-1850.5) > 1e-9 {
		t.Errorf("spread/mid = %.2f/%.2f, want 1.00/1850.50", analysis.Spread, analysis.MidPrice)
	}
}

func TestAnalyzeOrderBookBearish(t *testing.T) {
	book := &client.OrderBook{
		Market: "BTC",
		Bids:   []client.PriceLevel{{Price: 64990, Size: 10}},
		Asks:   []client.PriceLevel{{Price: 65000, Size: 40}},
	}
	analysis := AnalyzeOrderBook(book)
	if analysis.Signal != SignalBearish {
		t.Errorf("signal = %s, want bearish", analysis.Signal)
	}
}

func TestAnalyzeOrderBookNeutralBand(t *testing.T) {
	book := &client.OrderBook{
		Market: "ETH",
		Bids:   []client.PriceLevel{{Price: 1850, Size: 55}},
		Asks:   []client.PriceLevel{{Price: 1851, Size: 45}},
	}
	analysis := AnalyzeOrderBook(book)
	// imbalance 0.1 sits inside the ±0.2 neutral band
	if analysis.Signal != SignalNeutral {
		t.Errorf("signal = %s, want neutral", analysis.Signal)
	}
}

func TestAnalyzeOrderBookEmptyBook(t *testing.T) {
	analysis := AnalyzeOrderBook(&client.OrderBook{Market: "ETH"})
	if analysis.Imbalance != 0 {
		t.Errorf("imbalance = %.2f, want 0 on empty book", analysis.Imbalance)
	}
	if analysis.Signal != SignalNeutral {
		t.Errorf("signal = %s, want neutral on empty book", analysis.Signal)
	}
}

func TestImbalanceAlwaysInRange(t *testing.T) {
	books := []*client.OrderBook{
		{Bids: []client.PriceLevel{{Price: 1, Size: 1e12}}},
		{Asks: []client.PriceLevel{{Price: 1, Size: 1e12}}},
		{Bids: []client.PriceLevel{{Price: 1, Size: 5}}, Asks: []client.PriceLevel{{Price: 2, Size: 5}}},
	}
	for _, book := range books {
		analysis := AnalyzeOrderBook(book)
		if analysis.Imbalance < -1 || analysis.Imbalance > 1 {
			t.Errorf("imbalance %.4f outside [-1, 1]", analysis.Imbalance)
		}
	}
}

func TestAnnotateTradeFlow(t *testing.T) {
	analysis := MarketAnalysis{Market: "ETH"}
	// Newest first, matching the exchange's trade feed ordering.
	trades := []client.Trade{
		{Price: 110, Size: 2},
		{Price: 105, Size: 4},
		{Price: 100, Size: 6},
	}
	AnnotateTradeFlow(&analysis, trades)

	if math.Abs(analysis.AvgTradeSize-4) > 1e-9 {
		t.Errorf("avg trade size = %.2f, want 4.00", analysis.AvgTradeSize)
	}
	if math.Abs(analysis.TradeMomentum-0.1) > 1e-9 {
		t.Errorf("momentum = %.4f, want 0.1", analysis.TradeMomentum)
	}

	// No trades: annotations stay zero.
	empty := MarketAnalysis{}
	AnnotateTradeFlow(&empty, nil)
	if empty.TradeMomentum != 0 || empty.AvgTradeSize != 0 {
		t.Error("annotations set without trades")
	}
}
