// Package risk translates strategy signals into broker orders. It is a
// stateless per-bar transformer (spec.md §4.3): all mutable state (cash,
// holdings) lives in the portfolio package, not here.
package risk

import (
	"math"

	"github.com/quantcore/backtester/config"
	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
	"github.com/quantcore/backtester/logger"
)

// PositionDetail is the subset of portfolio position state the risk
// manager needs to check stop-loss/take-profit triggers and to suppress
// redundant entries.
type PositionDetail struct {
	Quantity   float64
	AvgEntry   float64
	StopLoss   *float64
	TakeProfit *float64
}

// Manager converts signals into orders, applying position sizing and
// stop/take-profit placement, and separately sweeps existing positions for
// intrabar stop/TP triggers.
type Manager struct {
	cfg   config.RiskConfig
	sizer Sizer
	log   logger.Logger
}

// New builds a Manager. A nil logger defaults to a no-op logger.
func New(cfg config.RiskConfig, sizer Sizer, log logger.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sizer == nil {
		s := NewATRSizer()
		sizer = s
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{cfg: cfg, sizer: sizer, log: log}, nil
}

// ProcessSignals converts signals into orders (spec.md §4.3's
// Signal -> Order policy). bars is the current bar's BarSet; hist is the
// feed used to pull ATR history strictly up to each signal's timestamp;
// equity is the current portfolio equity; openQty maps symbol to currently
// held (signed) quantity. gen mints order ids.
func (m *Manager) ProcessSignals(
	signals []core.Signal,
	bars feed.BarSet,
	hist *feed.BarFeed,
	equity float64,
	openQty map[string]float64,
	gen *core.IDGenerator,
) ([]core.Order, error) {
	var orders []core.Order

	openLongCount := 0
	for _, q := range openQty {
		if q > 0 {
			openLongCount++
		}
	}

	for _, sig := range signals {
		bar, ok := bars[sig.Symbol]
		if !ok {
			continue
		}
		price := bar.Close

		history, err := hist.History(sig.Symbol, sig.Timestamp, m.cfg.ATRPeriod+5)
		if err != nil {
			return nil, err
		}
		atr := ComputeATR(history, m.cfg.ATRPeriod)
		held := openQty[sig.Symbol]

		switch sig.Direction {
		case core.Long:
			order, ok := m.buildEntry(sig, bar, price, atr, equity, held, openLongCount, core.Buy, gen)
			if ok {
				orders = append(orders, order)
				openLongCount++
			}

		case core.Flat:
			if order, ok := m.buildExit(sig, held, gen); ok {
				orders = append(orders, order)
			}

		case core.Short:
			if !m.cfg.AllowShort {
				continue
			}
			order, ok := m.buildEntry(sig, bar, price, atr, equity, held, 0, core.Sell, gen)
			if ok {
				orders = append(orders, order)
			}
		}
	}

	return orders, nil
}

func (m *Manager) buildEntry(
	sig core.Signal,
	bar core.MarketBar,
	price, atr, equity, held float64,
	openLongCount int,
	side core.Side,
	gen *core.IDGenerator,
) (core.Order, bool) {
	if side == core.Buy {
		if held > 0 {
			return core.Order{}, false // already long
		}
		if openLongCount >= m.cfg.MaxOpenPositions {
			m.log.Info("max open positions reached, skipping signal",
				logger.String("symbol", sig.Symbol), logger.String("strategy", sig.StrategyID))
			return core.Order{}, false
		}
	} else {
		if held < 0 {
			return core.Order{}, false // already short
		}
	}

	qty := m.sizer.Size(equity, price, atr, sig.ClampStrength())
	if qty <= 0 {
		return core.Order{}, false
	}

	sl := sig.StopLoss
	tp := sig.TakeProfit
	if !math.IsNaN(atr) {
		if sl == nil {
			v := stopLevel(side, price, atr*m.cfg.StopATRMultiple)
			sl = &v
		}
		if tp == nil {
			v := takeProfitLevel(side, price, atr*m.cfg.TPATRMultiple)
			tp = &v
		}
	}

	return core.Order{
		Timestamp:  sig.Timestamp,
		Symbol:     sig.Symbol,
		OrderType:  core.Market,
		Side:       side,
		Quantity:   qty,
		StopLoss:   sl,
		TakeProfit: tp,
		OrderID:    gen.Next(),
		Status:     core.Pending,
	}, true
}

func (m *Manager) buildExit(sig core.Signal, held float64, gen *core.IDGenerator) (core.Order, bool) {
	switch {
	case held > 0:
		return core.Order{
			Timestamp: sig.Timestamp,
			Symbol:    sig.Symbol,
			OrderType: core.Market,
			Side:      core.Sell,
			Quantity:  held,
			OrderID:   gen.Next(),
			Status:    core.Pending,
		}, true
	case held < 0 && m.cfg.AllowShort:
		return core.Order{
			Timestamp: sig.Timestamp,
			Symbol:    sig.Symbol,
			OrderType: core.Market,
			Side:      core.Buy,
			Quantity:  -held,
			OrderID:   gen.Next(),
			Status:    core.Pending,
		}, true
	default:
		return core.Order{}, false
	}
}

func stopLevel(side core.Side, price, distance float64) float64 {
	if side == core.Buy {
		return price - distance
	}
	return price + distance
}

func takeProfitLevel(side core.Side, price, distance float64) float64 {
	if side == core.Buy {
		return price + distance
	}
	return price - distance
}

// CheckStopConditions sweeps open positions for intrabar stop-loss /
// take-profit triggers using the CURRENT bar's high/low — the one
// intrabar construct in the model (spec.md §4.3, §9). Orders produced
// here are attributed to "__risk__" by the caller (engine), not here.
func (m *Manager) CheckStopConditions(
	positions map[string]PositionDetail,
	bars feed.BarSet,
	gen *core.IDGenerator,
) []core.Order {
	var orders []core.Order

	for symbol, pos := range positions {
		bar, ok := bars[symbol]
		if !ok || pos.Quantity == 0 {
			continue
		}

		if pos.Quantity > 0 { // long
			if pos.StopLoss != nil && bar.Low <= *pos.StopLoss {
				orders = append(orders, exitOrder(bar, core.Sell, pos.Quantity, gen))
			} else if pos.TakeProfit != nil && bar.High >= *pos.TakeProfit {
				orders = append(orders, exitOrder(bar, core.Sell, pos.Quantity, gen))
			}
			continue
		}

		// short
		qty := -pos.Quantity
		if pos.StopLoss != nil && bar.High >= *pos.StopLoss {
			orders = append(orders, exitOrder(bar, core.Buy, qty, gen))
		} else if pos.TakeProfit != nil && bar.Low <= *pos.TakeProfit {
			orders = append(orders, exitOrder(bar, core.Buy, qty, gen))
		}
	}

	return orders
}

func exitOrder(bar core.MarketBar, side core.Side, qty float64, gen *core.IDGenerator) core.Order {
	return core.Order{
		Timestamp: bar.Timestamp,
		Symbol:    bar.Symbol,
		OrderType: core.Market,
		Side:      side,
		Quantity:  qty,
		OrderID:   gen.Next(),
		Status:    core.Pending,
	}
}
