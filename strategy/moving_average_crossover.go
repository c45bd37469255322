package strategy

import (
	"time"

	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
	"github.com/quantcore/backtester/logger"
)

// MovingAverageCrossover goes long when the fast SMA crosses above the
// slow SMA and flattens when it crosses back below.
type MovingAverageCrossover struct {
	BaseStrategy
	Fast, Slow int

	prevFast, prevSlow map[string]float64
}

// NewMovingAverageCrossover builds a MovingAverageCrossover trading the
// given symbols. fast and slow are SMA window lengths; fast must be
// shorter than slow.
func NewMovingAverageCrossover(id string, symbols []string, fast, slow int, log logger.Logger) *MovingAverageCrossover {
	return &MovingAverageCrossover{
		BaseStrategy: NewBaseStrategy(id, symbols, log),
		Fast:         fast,
		Slow:         slow,
		prevFast:     make(map[string]float64),
		prevSlow:     make(map[string]float64),
	}
}

// OnBar implements Strategy.
func (s *MovingAverageCrossover) OnBar(ts time.Time, bars feed.BarSet) {
	for _, symbol := range s.Symbols() {
		if _, ok := bars[symbol]; !ok {
			continue
		}

		hist, err := s.History(symbol, ts, s.Slow+5)
		if err != nil || len(hist) < s.Slow {
			continue
		}

		fastMA := sma(hist, s.Fast)
		slowMA := sma(hist, s.Slow)

		prevFast, seen := s.prevFast[symbol]
		if !seen {
			prevFast = fastMA
		}
		prevSlow, seen := s.prevSlow[symbol]
		if !seen {
			prevSlow = slowMA
		}

		switch {
		case prevFast <= prevSlow && fastMA > slowMA:
			s.EmitSignal(ts, symbol, core.Long, 1.0, nil, nil)
		case prevFast >= prevSlow && fastMA < slowMA:
			s.EmitSignal(ts, symbol, core.Flat, 1.0, nil, nil)
		}

		s.prevFast[symbol] = fastMA
		s.prevSlow[symbol] = slowMA
	}
}

// sma returns the simple moving average of the last n closes in bars.
// bars must already hold at least n elements.
func sma(bars []core.MarketBar, n int) float64 {
	window := bars[len(bars)-n:]
	var sum float64
	for _, b := range window {
		sum += b.Close
	}
	return sum / float64(n)
}
