package client

import (
	"math"
	"testing"
)

func TestPriceFixedPointRoundTrip(t *testing.T) {
	prices := []float64{0, 0.000001, 0.5, 1, 98.76, 100, 1234.567891, 65000.123456}
	for _, price := range prices {
		fixed := PriceToFixed(price)
		back := FixedToPrice(fixed)
		if math.Abs(back-price) > 5e-7 {
			t.Errorf("round trip %.6f -> %d -> %.6f lost precision", price, fixed, back)
		}
	}
}

func TestPriceToFixedScale(t *testing.T) {
	if got := PriceToFixed(100); got != 100000000 {
		t.Errorf("PriceToFixed(100) = %d, want 100000000", got)
	}
	if got := PriceToFixed(0.25); got != 250000 {
		t.Errorf("PriceToFixed(0.25) = %d, want 250000", got)
	}
}

func TestBaseFixedPointRoundTrip(t *testing.T) {
	sizes := []float64{0.01, 1, 100.25, 2500.99}
	for _, size := range sizes {
		fixed := BaseToFixed(size)
		back := FixedToBase(fixed)
		if math.Abs(back-size) > 5e-5 {
			t.Errorf("round trip %.4f -> %d -> %.4f lost precision", size, fixed, back)
		}
	}
}
