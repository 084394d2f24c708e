package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultRiskPerTrade is the fraction of account balance put at risk on
// one trade when the config does not override it.
const DefaultRiskPerTrade = 0.02

// InvalidRiskInput indicates degenerate sizing inputs (zero stop
// distance, non-positive balance). Callers must skip the trade.
type InvalidRiskInput struct {
	Reason string
}

func (e *InvalidRiskInput) Error() string {
	return fmt.Sprintf("invalid risk input: %s", e.Reason)
}

// CalculatePositionSize converts a fractional-risk budget into an order
// size: (balance × riskPerTrade) / |entry − stop|, truncated to 2
// decimal places. Never returns NaN or Inf; the degenerate entry==stop
// case fails with InvalidRiskInput instead of dividing by zero.
func CalculatePositionSize(balance, riskPerTrade, entryPrice, stopLossPrice float64) (float64, error) {
	if balance <= 0 {
		return 0, &InvalidRiskInput{Reason: "account balance must be positive"}
	}
	if riskPerTrade <= 0 {
		riskPerTrade = DefaultRiskPerTrade
	}

	priceDiff := entryPrice - stopLossPrice
	if priceDiff < 0 {
		priceDiff = -priceDiff
	}
	if priceDiff == 0 {
		return 0, &InvalidRiskInput{Reason: "entry and stop-loss prices are equal"}
	}

	riskAmount := balance * riskPerTrade
	size := decimal.NewFromFloat(riskAmount).
		Div(decimal.NewFromFloat(priceDiff)).
		Truncate(2)

	out, _ := size.Float64()
	return out, nil
}
