package client

import "github.com/shopspring/decimal"

// Base amounts travel on the wire as integers scaled by 10^4.

const baseScale = 4

// BaseToFixed converts a human-readable base-asset size to the wire's
// integer base units.
func BaseToFixed(size float64) int64 {
	return decimal.NewFromFloat(size).Shift(baseScale).Round(0).IntPart()
}

// FixedToBase converts wire base units back to a decimal size.
func FixedToBase(fixed int64) float64 {
	f, _ := decimal.New(fixed, -baseScale).Float64()
	return f
}
