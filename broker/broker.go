// Package broker simulates order matching against subsequent bars. A
// Broker owns a FIFO queue of pending orders; nothing fills on the bar it
// was submitted on (spec.md §4.4, §4.7).
package broker

import (
	"sync"

	"github.com/google/uuid"
	"github.com/quantcore/backtester/config"
	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
	"github.com/quantcore/backtester/logger"
	"github.com/quantcore/backtester/metrics"
)

// pendingOrder wraps a core.Order with the broker's own bookkeeping. The
// id field is an internal handle distinct from core.Order.OrderID (the
// user-visible ORD-NNNNNN id minted by the risk manager); it exists only
// to give each queue entry a stable identity for logging.
type pendingOrder struct {
	id         string
	order      core.Order
	strategyID string
	barsWaited int
}

// Broker holds the pending-order queue and the slippage/commission models
// used to compute fills. Mirrored after a paper-trading executor's
// mutex-guarded design, even though the engine drives it single-threaded —
// it keeps the type safe to share with reporting goroutines started after
// a run completes.
//
// Orders live in one of two lists: incoming holds orders submitted since
// the last ProcessBar call (not yet eligible to fill); active holds
// orders that survived at least one ProcessBar boundary and are eligible
// this call. This split is what makes an order submitted during bar T's
// steps 1/3 ineligible for bar T's own step-4 fill pass — it only joins
// active once ProcessBar returns, so the earliest it can fill is bar T+1.
type Broker struct {
	mu        sync.Mutex
	active    []*pendingOrder
	incoming  []*pendingOrder
	slippage  SlippageModel
	commision CommissionModel
	cfg       config.BrokerConfig
	log       logger.Logger
}

// New builds a Broker. Nil slippage/commission models default to
// FixedSlippage/PerShareCommission; a nil logger defaults to a no-op.
func New(cfg config.BrokerConfig, slippage SlippageModel, commission CommissionModel, log logger.Logger) (*Broker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if slippage == nil {
		slippage = NewFixedSlippage()
	}
	if commission == nil {
		commission = NewPerShareCommission()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Broker{slippage: slippage, commision: commission, cfg: cfg, log: log}, nil
}

// Submit appends order to the incoming queue with bars_waited = 0.
// strategyID attributes any resulting Fill back to the strategy (or
// "__risk__") that caused the order. The order becomes eligible to fill
// starting with the NEXT call to ProcessBar, never the current bar's.
func (b *Broker) Submit(order core.Order, strategyID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.incoming = append(b.incoming, &pendingOrder{
		id:         uuid.NewString(),
		order:      order,
		strategyID: strategyID,
	})
	metrics.OrdersSubmitted.WithLabelValues(strategyID).Inc()
}

// PendingCount reports the number of orders awaiting a fill, whether or
// not they have become eligible yet.
func (b *Broker) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.active) + len(b.incoming)
}

// ProcessBar attempts to fill every eligible order against bars, in FIFO
// submission order, following the five-step algorithm of spec.md §4.4.
// Orders that remain unfilled stay eligible for the next call; orders
// that fill or get cancelled are removed. Orders submitted via Submit
// since the previous ProcessBar call are not considered this call — they
// are promoted to eligible only once this call returns, which is the
// structural enforcement of "no same-bar fill". Returned fills are in the
// same FIFO order the underlying orders were processed in.
func (b *Broker) ProcessBar(bars feed.BarSet) []core.Fill {
	b.mu.Lock()
	defer b.mu.Unlock()

	var fills []core.Fill
	var stillActive []*pendingOrder

	for _, po := range b.active {
		po.barsWaited++

		bar, ok := bars[po.order.Symbol]
		if !ok {
			stillActive = append(stillActive, po)
			continue
		}

		fillPrice, filled := trialFillPrice(po.order, bar)

		if !filled {
			if po.barsWaited >= b.cfg.MaxBarsPending {
				metrics.OrdersCancelled.WithLabelValues(po.order.Symbol).Inc()
				b.log.Warn("order cancelled: max bars pending exceeded",
					logger.String("order_id", po.order.OrderID),
					logger.String("symbol", po.order.Symbol))
				continue // drop: cancelled
			}
			stillActive = append(stillActive, po)
			continue
		}

		slip := b.slippage.Slippage(fillPrice, po.order.Quantity, bar.Volume, bar.Close)
		if po.order.Side == core.Buy {
			fillPrice += slip
		} else {
			fillPrice -= slip
		}
		comm := b.commision.Commission(fillPrice, po.order.Quantity)

		fill := core.Fill{
			Timestamp:  bar.Timestamp,
			Symbol:     po.order.Symbol,
			Side:       po.order.Side,
			Quantity:   po.order.Quantity,
			FillPrice:  fillPrice,
			Commission: comm,
			Slippage:   slip,
			OrderID:    po.order.OrderID,
			StrategyID: po.strategyID,
		}
		fills = append(fills, fill)

		metrics.FillsTotal.WithLabelValues(string(po.order.Side)).Inc()
		metrics.CommissionTotal.Add(comm)
		metrics.SlippageTotal.Add(slip)
	}

	b.active = append(stillActive, b.incoming...)
	b.incoming = nil
	return fills
}

// trialFillPrice computes the unadjusted (pre-slippage) fill price for
// order against bar, following spec.md §4.4 step 3.
func trialFillPrice(order core.Order, bar core.MarketBar) (float64, bool) {
	if order.OrderType == core.Market {
		return bar.Open, true
	}
	if order.LimitPrice == nil {
		return 0, false
	}
	limit := *order.LimitPrice
	switch order.Side {
	case core.Buy:
		if bar.Low <= limit {
			return minFloat(limit, bar.Open), true
		}
	case core.Sell:
		if bar.High >= limit {
			return maxFloat(limit, bar.Open), true
		}
	}
	return 0, false
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
