// Package engine drives the six-step per-bar protocol that ties the
// feed, strategies, risk manager, broker, and portfolio together into a
// single deterministic backtest run (spec.md §4.7).
package engine

import (
	"time"

	"github.com/quantcore/backtester/broker"
	"github.com/quantcore/backtester/config"
	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
	"github.com/quantcore/backtester/logger"
	"github.com/quantcore/backtester/metrics"
	"github.com/quantcore/backtester/portfolio"
	"github.com/quantcore/backtester/risk"
	"github.com/quantcore/backtester/strategy"
)

// riskAttribution is the strategy_id stamped on orders generated from the
// intrabar stop/take-profit sweep (spec.md §4.6).
const riskAttribution = "__risk__"

// Engine owns every component for the lifetime of a single run: the feed
// (borrowed by strategies too), the strategy collection, the risk
// manager, the broker, the portfolio, and the order-id generator
// (spec.md §5, §9 Ownership). After Run, the portfolio stays reachable
// through Portfolio for inspection.
type Engine struct {
	feed       *feed.BarFeed
	strategies []strategy.Strategy
	risk       *risk.Manager
	broker     *broker.Broker
	portfolio  *portfolio.Portfolio
	idgen      *core.IDGenerator
	cfg        config.EngineConfig
	log        logger.Logger

	// stopTP carries an entry order's stop-loss/take-profit levels from
	// submission (step 1/3) through to fill application (step 5), since
	// core.Fill itself does not carry them — only the order that
	// produced it does.
	stopTP map[string]stopTPLevels
}

type stopTPLevels struct {
	stopLoss   *float64
	takeProfit *float64
}

// New builds an Engine from its components. strategies are dispatched in
// the order given — that order is stable across runs, which is what
// spec.md §5 requires for determinism among strategies within step 2.
// A nil logger defaults to a no-op.
func New(
	f *feed.BarFeed,
	strategies []strategy.Strategy,
	riskMgr *risk.Manager,
	brk *broker.Broker,
	cfg config.EngineConfig,
	log logger.Logger,
) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	for _, s := range strategies {
		s.AttachFeed(f)
	}

	return &Engine{
		feed:       f,
		strategies: strategies,
		risk:       riskMgr,
		broker:     brk,
		portfolio:  portfolio.New(cfg.InitialCapital, log),
		idgen:      core.NewIDGenerator(),
		cfg:        cfg,
		log:        log,
		stopTP:     make(map[string]stopTPLevels),
	}, nil
}

// Result is what the engine hands back after a completed run: the two
// artifacts spec.md §6 says downstream analytics consume, plus the
// portfolio's starting capital and configured risk-free rate.
type Result struct {
	EquityCurve    []core.EquitySnapshot
	TradeLog       []core.TradeRecord
	InitialCapital float64
	RiskFreeRate   float64
}

// Run executes the full bar-by-bar protocol to completion and returns the
// accumulated equity curve and trade log. In-loop strategy errors are not
// caught (spec.md §7): a panicking strategy aborts the run visibly to the
// caller rather than being swallowed.
func (e *Engine) Run() (*Result, error) {
	cursor := e.feed.Iter()

	for {
		ts, bars, ok := cursor.Next()
		if !ok {
			break
		}
		e.processBar(ts, bars)
		metrics.BarsProcessed.Inc()
	}

	return &Result{
		EquityCurve:    e.portfolio.EquityCurve(),
		TradeLog:       e.portfolio.TradeLog(),
		InitialCapital: e.cfg.InitialCapital,
		RiskFreeRate:   e.cfg.RiskFreeRate,
	}, nil
}

// Summary returns the portfolio's post-run bookkeeping report.
func (e *Engine) Summary() portfolio.Summary { return e.portfolio.SummaryStats() }

// Portfolio exposes the engine's portfolio for deeper inspection after Run.
func (e *Engine) Portfolio() *portfolio.Portfolio { return e.portfolio }

// processBar runs the six-step protocol for a single (T, bars) pair.
func (e *Engine) processBar(ts time.Time, bars feed.BarSet) {
	// Step 1: stop/TP sweep. These orders cannot fill on bar T — they
	// join the broker's incoming queue and become eligible starting
	// with the ProcessBar call for T+1.
	positions := e.portfolio.OpenPositionsDetail()
	detail := make(map[string]risk.PositionDetail, len(positions))
	for sym, pv := range positions {
		detail[sym] = risk.PositionDetail{
			Quantity:   pv.Quantity,
			AvgEntry:   pv.AvgEntry,
			StopLoss:   pv.StopLoss,
			TakeProfit: pv.TakeProfit,
		}
	}
	stopOrders := e.risk.CheckStopConditions(detail, bars, e.idgen)
	for _, order := range stopOrders {
		e.broker.Submit(order, riskAttribution)
	}

	// Step 2: strategy dispatch, collecting every emitted signal in
	// strategy order, then within each strategy in emission order.
	var signals []core.Signal
	for _, s := range e.strategies {
		s.OnBar(ts, bars)
		for _, sig := range s.FlushSignals() {
			sig.StrategyID = s.StrategyID()
			signals = append(signals, sig)
		}
	}

	// Step 3: risk translation. Attribution is by symbol, first signal
	// wins (spec.md §4.7 step 3).
	attribution := make(map[string]string, len(signals))
	for _, sig := range signals {
		if _, seen := attribution[sig.Symbol]; !seen {
			attribution[sig.Symbol] = sig.StrategyID
		}
	}

	equity := e.portfolio.Equity()
	openQty := e.portfolio.OpenQuantities()
	orders, err := e.risk.ProcessSignals(signals, bars, e.feed, equity, openQty, e.idgen)
	if err != nil {
		e.log.Error("risk manager failed to process signals", logger.Err(err))
	} else {
		for _, order := range orders {
			strategyID := attribution[order.Symbol]
			if strategyID == "" {
				strategyID = riskAttribution
			}
			if order.StopLoss != nil || order.TakeProfit != nil {
				e.stopTP[order.OrderID] = stopTPLevels{stopLoss: order.StopLoss, takeProfit: order.TakeProfit}
			}
			e.broker.Submit(order, strategyID)
		}
	}

	// Step 4: broker fills.
	fills := e.broker.ProcessBar(bars)

	// Step 5: apply fills to the portfolio, then notify strategies. An
	// entry order's stop-loss/take-profit levels (computed by the risk
	// manager at order build time) are carried onto the resulting
	// position here, once the fill is known, so the next bar's sweep
	// (step 1) can see them.
	for _, fill := range fills {
		e.portfolio.OnFill(fill)
		if levels, ok := e.stopTP[fill.OrderID]; ok {
			e.portfolio.AttachStopTP(fill.Symbol, levels.stopLoss, levels.takeProfit)
			delete(e.stopTP, fill.OrderID)
		}
		for _, s := range e.strategies {
			s.OnFill(fill)
		}
	}

	// Step 6: mark-to-market and snapshot.
	e.portfolio.MarkToMarket(ts, bars)
}
