package signals

import (
	"testing"

	"github.com/shopspring/decimal"
)

func closesFromFloats(values []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func TestComputeSignal_UptrendProducesBuy(t *testing.T) {
	// Steady climb: last price well above the SMA, momentum far over 5%.
	closes := closesFromFloats([]float64{100, 102, 104, 106, 108, 110, 113, 116, 120, 125, 130, 136, 142, 150})

	signal, err := ComputeSignal("bitcoin", closes)
	if err != nil {
		t.Fatalf("ComputeSignal failed: %v", err)
	}
	if signal.Direction != DirectionBuy {
		t.Errorf("Expected buy signal, got %s (price=%s sma=%s momentum=%s)",
			signal.Direction, signal.Price, signal.SMA, signal.Momentum)
	}
	if signal.TokenID != "bitcoin" {
		t.Errorf("Expected token id preserved, got %s", signal.TokenID)
	}
	if signal.ID == "" {
		t.Error("Expected generated signal id")
	}
}

func TestComputeSignal_DowntrendProducesSell(t *testing.T) {
	closes := closesFromFloats([]float64{150, 145, 140, 136, 132, 128, 124, 119, 114, 110, 105, 100, 95, 90})

	signal, err := ComputeSignal("ethereum", closes)
	if err != nil {
		t.Fatalf("ComputeSignal failed: %v", err)
	}
	if signal.Direction != DirectionSell {
		t.Errorf("Expected sell signal, got %s (momentum=%s)", signal.Direction, signal.Momentum)
	}
}

func TestComputeSignal_FlatMarketHolds(t *testing.T) {
	closes := closesFromFloats([]float64{100, 101, 100, 99, 100, 101, 100, 99, 100, 101, 100, 100, 100, 100})

	signal, err := ComputeSignal("solana", closes)
	if err != nil {
		t.Fatalf("ComputeSignal failed: %v", err)
	}
	if signal.Direction != DirectionHold {
		t.Errorf("Expected hold signal for flat market, got %s", signal.Direction)
	}
}

func TestComputeSignal_TooLittleHistory(t *testing.T) {
	if _, err := ComputeSignal("bitcoin", closesFromFloats([]float64{100})); err == nil {
		t.Error("Expected error with a single price point")
	}
}

func TestComputeSignal_MomentumIsExact(t *testing.T) {
	// 100 -> 110 over the series is exactly +10%.
	closes := closesFromFloats([]float64{100, 104, 108, 110})

	signal, err := ComputeSignal("bitcoin", closes)
	if err != nil {
		t.Fatalf("ComputeSignal failed: %v", err)
	}
	if !signal.Momentum.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected momentum exactly 10, got %s", signal.Momentum)
	}
}

func TestConfidence_Bounds(t *testing.T) {
	low := confidence(decimal.Zero)
	if !low.Equal(decimal.NewFromFloat(0.5)) {
		t.Errorf("Expected floor confidence 0.5 for zero momentum, got %s", low)
	}

	high := confidence(decimal.NewFromInt(500))
	if !high.Equal(decimal.NewFromFloat(0.95)) {
		t.Errorf("Expected confidence capped at 0.95, got %s", high)
	}

	negative := confidence(decimal.NewFromInt(-500))
	if !negative.Equal(decimal.NewFromFloat(0.95)) {
		t.Errorf("Expected magnitude-based confidence for negative momentum, got %s", negative)
	}
}

func TestSimpleMovingAverage_ShortSeries(t *testing.T) {
	closes := closesFromFloats([]float64{10, 20, 30})
	sma := simpleMovingAverage(closes, 14)
	if !sma.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected SMA 20 over short series, got %s", sma)
	}
}
