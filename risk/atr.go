package risk

import (
	"math"

	"github.com/quantcore/backtester/core"
)

// ComputeATR returns the mean true range over the last period bars of
// history. True range for bar i is max(H-L, |H-Cprev|, |L-Cprev|).
// It requires at least period+1 bars (one extra for the first bar's
// previous close); otherwise it returns NaN and callers must skip sizing
// (spec.md §4.3).
func ComputeATR(history []core.MarketBar, period int) float64 {
	if len(history) < period+1 {
		return math.NaN()
	}

	n := len(history)
	trueRanges := make([]float64, 0, period)
	start := n - period
	for i := start; i < n; i++ {
		h, l, prevClose := history[i].High, history[i].Low, history[i-1].Close
		tr := math.Max(h-l, math.Max(math.Abs(h-prevClose), math.Abs(l-prevClose)))
		trueRanges = append(trueRanges, tr)
	}

	sum := 0.0
	for _, tr := range trueRanges {
		sum += tr
	}
	return sum / float64(len(trueRanges))
}
