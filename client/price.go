package client

import "github.com/shopspring/decimal"

// Prices travel on the wire as integers scaled by 10^6 so the signed
// payload is never subject to floating-point representation drift.
// Decimal conversion happens here, at the process boundary, and nowhere
// inside a signed payload.

const priceScale = 6

// PriceToFixed converts a human-readable decimal price to the wire's
// fixed-point integer encoding.
func PriceToFixed(price float64) int64 {
	return decimal.NewFromFloat(price).Shift(priceScale).Round(0).IntPart()
}

// FixedToPrice converts a wire fixed-point integer back to a decimal
// price. Round-trips exactly to 6 decimal places.
func FixedToPrice(fixed int64) float64 {
	f, _ := decimal.New(fixed, -priceScale).Float64()
	return f
}
