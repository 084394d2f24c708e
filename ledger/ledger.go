// Package ledger keeps the strategy's local mirror of exchange state.
// There is no event stream from the exchange, only polling, so every
// sync replaces the mirror wholesale from the latest snapshot rather
// than patching it incrementally. Between syncs the mirror may hold
// optimistic entries for orders submitted but not yet confirmed.
package ledger

import (
	"lighter-trading-bot/client"
)

// OrderStatusPending marks a locally recorded order the exchange has
// not confirmed yet.
const OrderStatusPending = "pending"

// AccountSource is the slice of the session client the ledger needs.
type AccountSource interface {
	GetAccountAuthenticated() (*client.Account, error)
}

// Snapshot is the result of one successful sync.
type Snapshot struct {
	Positions       map[string]client.AccountPosition
	Orders          map[int64]client.AccountOrder
	Balance         float64
	AvailableMargin float64
}

// Ledger is process-local mutable state owned by the single-threaded
// session; callers must serialize access externally.
type Ledger struct {
	source AccountSource

	positions       map[string]client.AccountPosition
	orders          map[int64]client.AccountOrder
	balance         float64
	availableMargin float64
}

// New builds an empty ledger over an account source.
func New(source AccountSource) *Ledger {
	return &Ledger{
		source:    source,
		positions: make(map[string]client.AccountPosition),
		orders:    make(map[int64]client.AccountOrder),
	}
}

// Sync fetches the account snapshot and replaces the position and
// order maps wholesale. Entries absent from the response are dropped:
// after a successful sync the mirror holds exactly what the exchange
// reported, nothing more.
func (l *Ledger) Sync() (*Snapshot, error) {
	account, err := l.source.GetAccountAuthenticated()
	if err != nil {
		return nil, err
	}

	positions := make(map[string]client.AccountPosition, len(account.Positions))
	for _, pos := range account.Positions {
		positions[pos.Market] = pos
	}

	orders := make(map[int64]client.AccountOrder, len(account.Orders))
	for _, ord := range account.Orders {
		orders[ord.ClientOrderIndex] = ord
	}

	l.positions = positions
	l.orders = orders
	l.balance = account.Collateral
	l.availableMargin = account.AvailableBalance

	return &Snapshot{
		Positions:       positions,
		Orders:          orders,
		Balance:         l.balance,
		AvailableMargin: l.availableMargin,
	}, nil
}

// RecordSubmittedOrder inserts an optimistic pending entry for an order
// the session just submitted. The next sync supersedes it.
func (l *Ledger) RecordSubmittedOrder(ord client.AccountOrder) {
	ord.Status = OrderStatusPending
	l.orders[ord.ClientOrderIndex] = ord
}

// RemovePosition drops a position after a locally confirmed close,
// pending the next sync's confirmation.
func (l *Ledger) RemovePosition(market string) {
	delete(l.positions, market)
}

// RemoveOrder drops an order after a locally confirmed cancel, pending
// the next sync's confirmation.
func (l *Ledger) RemoveOrder(clientOrderIndex int64) {
	delete(l.orders, clientOrderIndex)
}

// Position returns the mirrored position for a market, if any.
func (l *Ledger) Position(market string) (client.AccountPosition, bool) {
	pos, ok := l.positions[market]
	return pos, ok
}

// OpenPositionCount returns how many markets currently hold a nonzero
// position.
func (l *Ledger) OpenPositionCount() int {
	count := 0
	for _, pos := range l.positions {
		if pos.Size != 0 {
			count++
		}
	}
	return count
}

// Positions returns a copy of the mirrored position map.
func (l *Ledger) Positions() map[string]client.AccountPosition {
	out := make(map[string]client.AccountPosition, len(l.positions))
	for k, v := range l.positions {
		out[k] = v
	}
	return out
}

// Orders returns a copy of the mirrored order map.
func (l *Ledger) Orders() map[int64]client.AccountOrder {
	out := make(map[int64]client.AccountOrder, len(l.orders))
	for k, v := range l.orders {
		out[k] = v
	}
	return out
}

// Balance returns the last synced account balance.
func (l *Ledger) Balance() float64 { return l.balance }

// AvailableMargin returns the last synced available margin.
func (l *Ledger) AvailableMargin() float64 { return l.availableMargin }
