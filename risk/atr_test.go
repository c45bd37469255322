package risk

import (
	"math"
	"testing"
	"time"

	"github.com/quantcore/backtester/core"
)

func bar(day int, h, l, c float64) core.MarketBar {
	return core.MarketBar{
		Timestamp: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Symbol:    "AAPL", High: h, Low: l, Close: c, Open: c, Volume: 1000,
	}
}

func TestComputeATRInsufficientHistory(t *testing.T) {
	bars := []core.MarketBar{bar(1, 101, 99, 100)}
	if got := ComputeATR(bars, 14); !math.IsNaN(got) {
		t.Fatalf("expected NaN with insufficient history, got %v", got)
	}
}

func TestComputeATRConstantRange(t *testing.T) {
	var bars []core.MarketBar
	for d := 1; d <= 15; d++ {
		bars = append(bars, bar(d, 102, 98, 100)) // TR = 4 every bar
	}
	got := ComputeATR(bars, 14)
	if math.Abs(got-4) > 1e-9 {
		t.Fatalf("expected ATR of 4, got %v", got)
	}
}
