package strategy

import (
	"math"
	"time"

	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
	"github.com/quantcore/backtester/logger"
)

// BollingerBandBreakout enters long on a close above the upper band and
// flattens when price reverts back below the middle band.
type BollingerBandBreakout struct {
	BaseStrategy
	Period int
	NStd   float64
}

// NewBollingerBandBreakout builds a BollingerBandBreakout with the
// reference defaults: 20-bar window, 2 standard deviations.
func NewBollingerBandBreakout(id string, symbols []string, log logger.Logger) *BollingerBandBreakout {
	return &BollingerBandBreakout{
		BaseStrategy: NewBaseStrategy(id, symbols, log),
		Period:       20,
		NStd:         2.0,
	}
}

// OnBar implements Strategy.
func (s *BollingerBandBreakout) OnBar(ts time.Time, bars feed.BarSet) {
	for _, symbol := range s.Symbols() {
		bar, ok := bars[symbol]
		if !ok {
			continue
		}

		hist, err := s.History(symbol, ts, s.Period+5)
		if err != nil || len(hist) < s.Period {
			continue
		}

		mid := sma(hist, s.Period)
		std := sampleStdDev(hist, s.Period, mid)
		upper := mid + s.NStd*std

		switch {
		case bar.Close > upper:
			s.EmitSignal(ts, symbol, core.Long, 1.0, nil, nil)
		case bar.Close < mid:
			s.EmitSignal(ts, symbol, core.Flat, 1.0, nil, nil)
		}
	}
}

// sampleStdDev returns the sample (ddof=1) standard deviation of the
// last n closes in bars around the supplied mean.
func sampleStdDev(bars []core.MarketBar, n int, mean float64) float64 {
	if n < 2 {
		return 0
	}
	window := bars[len(bars)-n:]
	var sumSq float64
	for _, b := range window {
		d := b.Close - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}
