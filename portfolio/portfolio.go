// Package portfolio is the sole owner of cash and open positions. It
// applies fills, marks positions to market, and extracts the equity
// curve and trade log the engine returns to the caller (spec.md §4.5).
package portfolio

import (
	"time"

	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
	"github.com/quantcore/backtester/logger"
	"github.com/quantcore/backtester/metrics"
)

// Portfolio tracks cash, open positions, and the running trade/equity
// history for one backtest run. It is not safe for concurrent use — the
// engine's per-bar protocol is strictly sequential (spec.md §5).
type Portfolio struct {
	initialCapital  float64
	cash            float64
	positions       map[string]*core.Position
	trades          []core.TradeRecord
	equityCurve     []core.EquitySnapshot
	totalCommission float64
	totalSlippage   float64
	log             logger.Logger
}

// New builds a Portfolio seeded with initialCapital. A nil logger
// defaults to a no-op.
func New(initialCapital float64, log logger.Logger) *Portfolio {
	if log == nil {
		log = logger.Nop()
	}
	return &Portfolio{
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      make(map[string]*core.Position),
		log:            log,
	}
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 { return p.cash }

// OnFill applies a single Fill to the ledger: updating cash, the
// affected position, and appending a TradeRecord (spec.md §4.5).
func (p *Portfolio) OnFill(fill core.Fill) {
	var realized float64
	switch fill.Side {
	case core.Buy:
		realized = p.applyBuy(fill)
		p.cash -= fill.FillPrice*fill.Quantity + fill.Commission
	case core.Sell:
		realized = p.applySell(fill)
		p.cash += fill.FillPrice*fill.Quantity - fill.Commission
	}

	p.totalCommission += fill.Commission
	p.totalSlippage += fill.Slippage
	p.trades = append(p.trades, core.TradeRecord{
		Timestamp:  fill.Timestamp,
		Symbol:     fill.Symbol,
		Side:       fill.Side,
		Quantity:   fill.Quantity,
		FillPrice:  fill.FillPrice,
		Commission: fill.Commission,
		Slippage:   fill.Slippage,
		PnL:        realized,
		OrderID:    fill.OrderID,
		StrategyID: fill.StrategyID,
	})

	p.log.Info("fill applied",
		logger.String("symbol", fill.Symbol),
		logger.String("side", string(fill.Side)),
		logger.Float64("qty", fill.Quantity),
		logger.Float64("price", fill.FillPrice),
		logger.Float64("cash", p.cash))

	metrics.PositionsOpen.Set(float64(len(p.positions)))
}

// applyBuy handles a BUY fill: averaging up an existing long, covering
// (fully or partially) an existing short, or opening a new long.
func (p *Portfolio) applyBuy(fill core.Fill) float64 {
	pos, exists := p.positions[fill.Symbol]

	switch {
	case exists && pos.Quantity > 0:
		totalQty := pos.Quantity + fill.Quantity
		pos.AvgEntry = (pos.Quantity*pos.AvgEntry + fill.Quantity*fill.FillPrice) / totalQty
		pos.Quantity = totalQty
		return 0

	case exists && pos.Quantity < 0:
		covered := fill.Quantity
		short := -pos.Quantity
		if covered > short {
			covered = short
		}
		realized := (pos.AvgEntry - fill.FillPrice) * covered
		pos.RealizedPnL += realized
		pos.Quantity += covered

		if fill.Quantity > short {
			// Excess buy quantity flips into a fresh long position.
			leftover := fill.Quantity - short
			delete(p.positions, fill.Symbol)
			p.positions[fill.Symbol] = &core.Position{
				Symbol: fill.Symbol, Quantity: leftover, AvgEntry: fill.FillPrice,
			}
		} else if pos.Quantity > -core.Epsilon && pos.Quantity < core.Epsilon {
			delete(p.positions, fill.Symbol)
		}
		return realized

	default:
		p.positions[fill.Symbol] = &core.Position{
			Symbol: fill.Symbol, Quantity: fill.Quantity, AvgEntry: fill.FillPrice,
		}
		return 0
	}
}

// applySell handles a SELL fill: closing (fully or partially) an
// existing long, averaging down an existing short, or opening a new
// short.
func (p *Portfolio) applySell(fill core.Fill) float64 {
	pos, exists := p.positions[fill.Symbol]

	switch {
	case exists && pos.Quantity > 0:
		closed := fill.Quantity
		if closed > pos.Quantity {
			closed = pos.Quantity
		}
		realized := (fill.FillPrice - pos.AvgEntry) * closed
		pos.RealizedPnL += realized
		pos.Quantity -= closed

		if fill.Quantity > closed {
			leftover := fill.Quantity - closed
			delete(p.positions, fill.Symbol)
			p.positions[fill.Symbol] = &core.Position{
				Symbol: fill.Symbol, Quantity: -leftover, AvgEntry: fill.FillPrice,
			}
		} else if pos.Quantity > -core.Epsilon && pos.Quantity < core.Epsilon {
			delete(p.positions, fill.Symbol)
		}
		return realized

	case exists && pos.Quantity < 0:
		totalQty := -pos.Quantity + fill.Quantity
		pos.AvgEntry = (-pos.Quantity*pos.AvgEntry + fill.Quantity*fill.FillPrice) / totalQty
		pos.Quantity = -totalQty
		return 0

	default:
		p.positions[fill.Symbol] = &core.Position{
			Symbol: fill.Symbol, Quantity: -fill.Quantity, AvgEntry: fill.FillPrice,
		}
		return 0
	}
}

// AttachStopTP records stop-loss/take-profit levels on an open position,
// so the risk manager's stop sweep can read them back next bar.
func (p *Portfolio) AttachStopTP(symbol string, stopLoss, takeProfit *float64) {
	if pos, ok := p.positions[symbol]; ok {
		pos.StopLoss = stopLoss
		pos.TakeProfit = takeProfit
	}
}

// MarkToMarket values every open position at bars[symbol].close (falling
// back to avg_entry when the symbol has no bar this step) and appends an
// equity snapshot (spec.md §4.5). Drawdown is left at zero; it is filled
// in by EquityCurve on extraction.
func (p *Portfolio) MarkToMarket(ts time.Time, bars feed.BarSet) float64 {
	var holdingsValue, unrealizedPnL float64

	for sym, pos := range p.positions {
		price := pos.AvgEntry
		if bar, ok := bars[sym]; ok {
			price = bar.Close
		}
		holdingsValue += pos.MarketValue(price)
		unrealizedPnL += pos.UnrealizedPnL(price)
	}

	equity := p.cash + holdingsValue
	var realizedPnL float64
	for _, t := range p.trades {
		realizedPnL += t.PnL
	}

	p.equityCurve = append(p.equityCurve, core.EquitySnapshot{
		Timestamp:     ts,
		Cash:          p.cash,
		HoldingsValue: holdingsValue,
		Equity:        equity,
		RealizedPnL:   realizedPnL,
		UnrealizedPnL: unrealizedPnL,
	})

	metrics.EquityGauge.Set(equity)
	return equity
}

// Equity returns the most recently marked equity, or initial capital if
// no bar has been marked yet.
func (p *Portfolio) Equity() float64 {
	if len(p.equityCurve) == 0 {
		return p.initialCapital
	}
	return p.equityCurve[len(p.equityCurve)-1].Equity
}

// OpenQuantities returns symbol -> signed held quantity for every open
// position, the shape the risk manager needs to suppress redundant
// entries.
func (p *Portfolio) OpenQuantities() map[string]float64 {
	out := make(map[string]float64, len(p.positions))
	for sym, pos := range p.positions {
		out[sym] = pos.Quantity
	}
	return out
}

// OpenPositionsDetail returns the subset of position state the risk
// manager needs to run its stop/take-profit sweep.
func (p *Portfolio) OpenPositionsDetail() map[string]PositionView {
	out := make(map[string]PositionView, len(p.positions))
	for sym, pos := range p.positions {
		out[sym] = PositionView{
			Quantity:   pos.Quantity,
			AvgEntry:   pos.AvgEntry,
			StopLoss:   pos.StopLoss,
			TakeProfit: pos.TakeProfit,
		}
	}
	return out
}

// PositionView is a read-only snapshot of a Position, decoupled from the
// portfolio's internal pointer so callers cannot mutate the ledger.
type PositionView struct {
	Quantity   float64
	AvgEntry   float64
	StopLoss   *float64
	TakeProfit *float64
}

// EquityCurve returns the full snapshot history with drawdown recomputed
// over the whole curve as a fraction of the running peak (-0.10 for a
// 10% drop; zero at a new peak).
func (p *Portfolio) EquityCurve() []core.EquitySnapshot {
	out := make([]core.EquitySnapshot, len(p.equityCurve))
	copy(out, p.equityCurve)

	peak := p.initialCapital
	for i := range out {
		if out[i].Equity > peak {
			peak = out[i].Equity
		}
		if peak > 0 {
			out[i].Drawdown = (out[i].Equity - peak) / peak
		}
	}
	return out
}

// TradeLog returns every recorded trade in fill order.
func (p *Portfolio) TradeLog() []core.TradeRecord {
	out := make([]core.TradeRecord, len(p.trades))
	copy(out, p.trades)
	return out
}

// Summary is the small post-run bookkeeping report carried over from the
// reference implementation's summary_stats (see SPEC_FULL.md §5): no
// Sharpe/Sortino/CAGR here, those require the external analytics layer.
type Summary struct {
	InitialCapital  float64
	FinalEquity     float64
	TotalReturnPct  float64
	TotalCommission float64
	TotalSlippage   float64
	NTrades         int
	NPositionsOpen  int
}

// SummaryStats computes the Summary from the portfolio's current state.
func (p *Portfolio) SummaryStats() Summary {
	equity := p.Equity()
	return Summary{
		InitialCapital:  p.initialCapital,
		FinalEquity:     equity,
		TotalReturnPct:  (equity/p.initialCapital - 1) * 100,
		TotalCommission: p.totalCommission,
		TotalSlippage:   p.totalSlippage,
		NTrades:         len(p.trades),
		NPositionsOpen:  len(p.positions),
	}
}
