package core

import "time"

// EquitySnapshot is appended once per bar after mark-to-market.
// Drawdown is left at zero by the portfolio and recomputed as a running
// peak over the whole curve when the curve is extracted (spec.md §4.5).
type EquitySnapshot struct {
	Timestamp     time.Time
	Cash          float64
	HoldingsValue float64
	Equity        float64
	RealizedPnL   float64
	UnrealizedPnL float64
	Drawdown      float64
}
