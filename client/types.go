package client

import "strconv"

// Schema structs for the exchange's JSON responses. Every read parses
// into one of these or fails at the network boundary.

// Account is the exchange's authoritative account snapshot.
type Account struct {
	AccountIndex     int64             `json:"account_index"`
	Address          string            `json:"l1_address"`
	Collateral       float64           `json:"collateral"`
	AvailableBalance float64           `json:"available_balance"`
	Positions        []AccountPosition `json:"positions"`
	Orders           []AccountOrder    `json:"orders"`
}

// AccountPosition is one open position as the exchange reports it.
type AccountPosition struct {
	Market        string  `json:"market"`
	Side          string  `json:"side"`
	Size          float64 `json:"size"`
	EntryPrice    float64 `json:"entry_price"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
	Margin        float64 `json:"margin"`
}

// AccountOrder is one resting order as the exchange reports it.
type AccountOrder struct {
	ClientOrderIndex int64   `json:"client_order_index"`
	Market           string  `json:"market"`
	Side             string  `json:"side"`
	Type             string  `json:"order_type"`
	Size             float64 `json:"size"`
	Price            float64 `json:"price"`
	Status           string  `json:"status"`
}

type accountResponse struct {
	Accounts []Account `json:"accounts"`
}

// PriceLevel is one resting level of an order book side.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook is the resting book for one market.
type OrderBook struct {
	Market    string       `json:"market"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

type orderBookResponse struct {
	OrderBookDetails []OrderBook `json:"order_book_details"`
}

type allOrderBooksResponse struct {
	OrderBooks []OrderBook `json:"order_books"`
}

// ExchangeStats is the exchange-wide activity summary.
type ExchangeStats struct {
	DailyVolume   float64 `json:"daily_usd_volume"`
	DailyTrades   int64   `json:"daily_trades_count"`
	OpenInterest  float64 `json:"open_interest"`
	MarketsCount  int     `json:"markets_count"`
	LastTimestamp int64   `json:"last_timestamp"`
}

// Trade is one executed trade from the public trade feed.
type Trade struct {
	TradeID   int64   `json:"trade_id"`
	Market    string  `json:"market"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Timestamp int64   `json:"timestamp"`
}

type recentTradesResponse struct {
	Trades []Trade `json:"trades"`
}

// txResponse is the exchange's acknowledgement of a submitted
// transaction.
type txResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TxHash  string `json:"tx_hash"`
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
