package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtester_orders_submitted_total",
			Help: "Total number of orders submitted, labeled by attributed strategy id.",
		},
		[]string{"strategy"},
	)

	FillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtester_fills_total",
			Help: "Total number of orders filled by the broker, labeled by side.",
		},
		[]string{"side"},
	)

	OrdersCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtester_orders_cancelled_total",
			Help: "Total number of pending orders cancelled after exceeding max_bars_pending.",
		},
		[]string{"symbol"},
	)

	PositionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtester_positions_open",
			Help: "Current number of open positions in the portfolio.",
		},
	)

	EquityGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtester_equity",
			Help: "Current mark-to-market equity of the running backtest.",
		},
	)

	CommissionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backtester_commission_total",
			Help: "Cumulative commission paid across all fills.",
		},
	)

	SlippageTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backtester_slippage_total",
			Help: "Cumulative slippage cost across all fills.",
		},
	)

	BarsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backtester_bars_processed_total",
			Help: "Total number of bar timestamps processed by the engine's event loop.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		OrdersSubmitted,
		FillsTotal,
		OrdersCancelled,
		PositionsOpen,
		EquityGauge,
		CommissionTotal,
		SlippageTotal,
		BarsProcessed,
	)
}
