package strategy

import (
	"time"

	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
	"github.com/quantcore/backtester/logger"
	"github.com/quantcore/backtester/risk"
)

// MomentumStrategy buys when N-bar rate-of-change is positive and above
// its own moving average, filtered by a minimum ATR/price ratio to avoid
// trading in low-volatility chop.
type MomentumStrategy struct {
	BaseStrategy
	ROCPeriod, MAPeriod, ATRPeriod int
	MinATRPct                     float64
}

// NewMomentumStrategy builds a MomentumStrategy with the reference
// defaults (20-bar ROC, 10-bar ROC smoothing, 14-bar ATR, 0.5% min
// ATR/price ratio).
func NewMomentumStrategy(id string, symbols []string, log logger.Logger) *MomentumStrategy {
	return &MomentumStrategy{
		BaseStrategy: NewBaseStrategy(id, symbols, log),
		ROCPeriod:    20,
		MAPeriod:     10,
		ATRPeriod:    14,
		MinATRPct:    0.005,
	}
}

// OnBar implements Strategy.
func (s *MomentumStrategy) OnBar(ts time.Time, bars feed.BarSet) {
	for _, symbol := range s.Symbols() {
		bar, ok := bars[symbol]
		if !ok {
			continue
		}

		n := s.ROCPeriod
		if s.ATRPeriod > n {
			n = s.ATRPeriod
		}
		n += s.MAPeriod + 5

		hist, err := s.History(symbol, ts, n)
		if err != nil || len(hist) < n/2 {
			continue
		}

		roc := rateOfChange(hist, len(hist)-1, s.ROCPeriod)
		rocMA := rocMovingAverage(hist, s.ROCPeriod, s.MAPeriod)

		atr := risk.ComputeATR(hist, s.ATRPeriod)
		var atrPct float64
		if bar.Close > 0 {
			atrPct = atr / bar.Close
		}
		if atrPct < s.MinATRPct {
			continue
		}

		switch {
		case roc > 0 && roc > rocMA:
			strength := roc / 10
			if strength > 1 {
				strength = 1
			}
			s.EmitSignal(ts, symbol, core.Long, strength, nil, nil)
		case roc < 0 && roc < rocMA:
			s.EmitSignal(ts, symbol, core.Flat, 1.0, nil, nil)
		}
	}
}

// rateOfChange returns the percentage change, in points (not a
// fraction), between bars[idx] and bars[idx-period].
func rateOfChange(bars []core.MarketBar, idx, period int) float64 {
	if idx-period < 0 {
		return 0
	}
	prev := bars[idx-period].Close
	if prev == 0 {
		return 0
	}
	return (bars[idx].Close/prev - 1) * 100
}

// rocMovingAverage averages the trailing maPeriod rate-of-change
// readings computed over bars.
func rocMovingAverage(bars []core.MarketBar, rocPeriod, maPeriod int) float64 {
	var vals []float64
	for i := rocPeriod; i < len(bars); i++ {
		vals = append(vals, rateOfChange(bars, i, rocPeriod))
	}
	if len(vals) == 0 {
		return 0
	}
	if len(vals) > maPeriod {
		vals = vals[len(vals)-maPeriod:]
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
