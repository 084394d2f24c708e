package strategy

import (
	"errors"
	"math"
	"testing"
)

func TestCalculatePositionSize(t *testing.T) {
	// 10000 × 0.02 = 200 at risk; 2.00 stop distance → 100.00 units
	size, err := CalculatePositionSize(10000, 0.02, 100, 98)
	if err != nil {
		t.Fatalf("sizing failed: %v", err)
	}
	if size != 100.00 {
		t.Errorf("size = %.2f, want 100.00", size)
	}
}

func TestCalculatePositionSizeTruncatesToTwoDecimals(t *testing.T) {
	// 200 / 3 = 66.666... → truncated, not rounded
	size, err := CalculatePositionSize(10000, 0.02, 103, 100)
	if err != nil {
		t.Fatalf("sizing failed: %v", err)
	}
	if size != 66.66 {
		t.Errorf("size = %.4f, want 66.66", size)
	}
}

func TestCalculatePositionSizeEqualEntryAndStop(t *testing.T) {
	size, err := CalculatePositionSize(10000, 0.02, 100, 100)
	var invalid *InvalidRiskInput
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRiskInput, got %v", err)
	}
	if size != 0 {
		t.Errorf("size = %.2f, want 0 sentinel", size)
	}
	if math.IsNaN(size) || math.IsInf(size, 0) {
		t.Error("size is NaN or Inf")
	}
}

func TestCalculatePositionSizeInvertedStop(t *testing.T) {
	// Stop above entry (short side): distance is absolute
	size, err := CalculatePositionSize(10000, 0.02, 98, 100)
	if err != nil {
		t.Fatalf("sizing failed: %v", err)
	}
	if size != 100.00 {
		t.Errorf("size = %.2f, want 100.00", size)
	}
}

func TestCalculatePositionSizeDefaultsRiskFraction(t *testing.T) {
	withDefault, err := CalculatePositionSize(10000, 0, 100, 98)
	if err != nil {
		t.Fatalf("sizing failed: %v", err)
	}
	explicit, _ := CalculatePositionSize(10000, DefaultRiskPerTrade, 100, 98)
	if withDefault != explicit {
		t.Errorf("default risk fraction not applied: %.2f vs %.2f", withDefault, explicit)
	}
}

func TestCalculatePositionSizeNonPositiveBalance(t *testing.T) {
	for _, balance := range []float64{0, -500} {
		_, err := CalculatePositionSize(balance, 0.02, 100, 98)
		var invalid *InvalidRiskInput
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidRiskInput for balance %.0f, got %v", balance, err)
		}
	}
}
