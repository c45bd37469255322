package strategy

import (
	"time"

	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
	"github.com/quantcore/backtester/logger"
)

// RSIMeanReversion buys when Wilder's RSI drops below an oversold
// threshold and flattens once it climbs back above an overbought
// threshold. Signal strength scales with how deep into oversold
// territory the reading is.
type RSIMeanReversion struct {
	BaseStrategy
	Period               int
	Oversold, Overbought float64
}

// NewRSIMeanReversion builds an RSIMeanReversion trading the given
// symbols with the reference thresholds (oversold 30, overbought 70).
func NewRSIMeanReversion(id string, symbols []string, period int, log logger.Logger) *RSIMeanReversion {
	return &RSIMeanReversion{
		BaseStrategy: NewBaseStrategy(id, symbols, log),
		Period:       period,
		Oversold:     30,
		Overbought:   70,
	}
}

// OnBar implements Strategy.
func (s *RSIMeanReversion) OnBar(ts time.Time, bars feed.BarSet) {
	for _, symbol := range s.Symbols() {
		if _, ok := bars[symbol]; !ok {
			continue
		}

		hist, err := s.History(symbol, ts, s.Period*3)
		if err != nil || len(hist) < s.Period+1 {
			continue
		}

		rsi := wilderRSI(hist, s.Period)

		switch {
		case rsi < s.Oversold:
			strength := (s.Oversold - rsi) / s.Oversold
			s.EmitSignal(ts, symbol, core.Long, strength, nil, nil)
		case rsi > s.Overbought:
			s.EmitSignal(ts, symbol, core.Flat, 1.0, nil, nil)
		}
	}
}

// wilderRSI computes the classic Wilder-smoothed RSI over bars' closes,
// using an exponential average with smoothing factor 1/period (the
// com=period-1 convention).
func wilderRSI(bars []core.MarketBar, period int) float64 {
	var avgGain, avgLoss float64
	alpha := 1.0 / float64(period)

	for i := 1; i < len(bars); i++ {
		delta := bars[i].Close - bars[i-1].Close
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		if i == 1 {
			avgGain, avgLoss = gain, loss
			continue
		}
		avgGain = avgGain + alpha*(gain-avgGain)
		avgLoss = avgLoss + alpha*(loss-avgLoss)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
