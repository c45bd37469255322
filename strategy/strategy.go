// Package strategy holds the per-bar signal producers driven by the
// engine. A Strategy never places orders directly (spec.md §4.2) — it
// only emits advisory Signals that the risk manager later turns into
// orders.
package strategy

import (
	"time"

	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
)

// Strategy is the per-bar signal producer contract every strategy
// implements.
type Strategy interface {
	// OnBar is called once per timestamp with that step's bars. Implementations
	// call EmitSignal (via BaseStrategy) to record any signals; they must not
	// place orders.
	OnBar(ts time.Time, bars feed.BarSet)

	// FlushSignals drains and returns the signals accumulated since the
	// last call, in emission order.
	FlushSignals() []core.Signal

	// OnFill notifies the strategy of an executed fill. Most strategies
	// are stateless with respect to their own positions and no-op here.
	OnFill(fill core.Fill)

	// AttachFeed gives the strategy a read-only handle to historical
	// data. Called once by the engine before the loop starts.
	AttachFeed(f *feed.BarFeed)

	// StrategyID returns the process-unique id used for fill attribution.
	StrategyID() string

	// Symbols returns the symbols this strategy trades.
	Symbols() []string
}
