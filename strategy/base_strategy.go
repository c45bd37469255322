package strategy

import (
	"time"

	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
	"github.com/quantcore/backtester/logger"
)

// BaseStrategy bundles the bookkeeping every concrete strategy needs:
// its id, traded symbols, signal buffer, and a borrowed feed reference.
// Concrete strategies embed it and implement OnBar themselves.
type BaseStrategy struct {
	id      string
	symbols []string
	signals []core.Signal
	feed    *feed.BarFeed
	log     logger.Logger
}

// NewBaseStrategy builds a BaseStrategy for the given id and symbols. A
// nil logger defaults to a no-op.
func NewBaseStrategy(id string, symbols []string, log logger.Logger) BaseStrategy {
	if log == nil {
		log = logger.Nop()
	}
	return BaseStrategy{id: id, symbols: symbols, log: log}
}

// AttachFeed implements Strategy.
func (b *BaseStrategy) AttachFeed(f *feed.BarFeed) { b.feed = f }

// StrategyID implements Strategy.
func (b *BaseStrategy) StrategyID() string { return b.id }

// Symbols implements Strategy.
func (b *BaseStrategy) Symbols() []string { return b.symbols }

// OnFill implements Strategy as a no-op default; strategies that track
// their own fills override it.
func (b *BaseStrategy) OnFill(core.Fill) {}

// FlushSignals implements Strategy.
func (b *BaseStrategy) FlushSignals() []core.Signal {
	out := b.signals
	b.signals = nil
	return out
}

// EmitSignal appends a signal to the buffer FlushSignals will return.
// Strength is clamped to [0,1].
func (b *BaseStrategy) EmitSignal(ts time.Time, symbol string, dir core.Direction, strength float64, stopLoss, takeProfit *float64) {
	sig := core.Signal{
		Timestamp:  ts,
		Symbol:     symbol,
		StrategyID: b.id,
		Direction:  dir,
		Strength:   strength,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}
	sig.Strength = sig.ClampStrength()
	b.signals = append(b.signals, sig)
}

// History is the no-lookahead historical data accessor: it delegates to
// the attached feed and returns core.ErrFeedNotAttached if AttachFeed was
// never called.
func (b *BaseStrategy) History(symbol string, upTo time.Time, n int) ([]core.MarketBar, error) {
	if b.feed == nil {
		return nil, core.ErrFeedNotAttached
	}
	return b.feed.History(symbol, upTo, n)
}
