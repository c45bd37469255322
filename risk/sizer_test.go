package risk

import (
	"math"
	"testing"
)

func TestATRSizerZeroOnNaN(t *testing.T) {
	s := NewATRSizer()
	if got := s.Size(100_000, 100, math.NaN(), 1.0); got != 0 {
		t.Fatalf("expected 0 for NaN atr, got %v", got)
	}
}

func TestATRSizerCapsByMaxPositionPct(t *testing.T) {
	s := ATRSizer{RiskPct: 1.0, ATRMultiple: 0.01, MaxPositionPct: 0.10}
	// Uncapped sizing would be enormous given the tiny stop distance;
	// the 10% of equity cap should bind instead.
	qty := s.Size(100_000, 50, 1.0, 1.0)
	maxQty := math.Floor((100_000 * 0.10) / 50)
	if qty != maxQty {
		t.Fatalf("expected qty capped at %v, got %v", maxQty, qty)
	}
}

func TestFixedFractionSizerZeroPrice(t *testing.T) {
	s := NewFixedFractionSizer()
	if got := s.Size(10_000, 0, 0, 1.0); got != 0 {
		t.Fatalf("expected 0 for zero price, got %v", got)
	}
}

func TestFixedFractionSizerBasic(t *testing.T) {
	s := FixedFractionSizer{Fraction: 0.05}
	qty := s.Size(10_000, 50, 0, 1.0)
	if qty != 10 { // 10_000 * 0.05 / 50 = 10
		t.Fatalf("expected qty 10, got %v", qty)
	}
}
