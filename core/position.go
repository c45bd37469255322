package core

// Epsilon is the tolerance below which a position's quantity is treated
// as zero and the position is erased (spec.md §3).
const Epsilon = 1e-9

// Position is a mutable ledger entry keyed by symbol. Quantity is signed:
// positive is long, negative is short.
type Position struct {
	Symbol      string
	Quantity    float64
	AvgEntry    float64
	StopLoss    *float64
	TakeProfit  *float64
	RealizedPnL float64
}

// CostBasis returns quantity * average entry price.
func (p Position) CostBasis() float64 {
	return p.Quantity * p.AvgEntry
}

// UnrealizedPnL returns the mark-to-market P&L at currentPrice.
func (p Position) UnrealizedPnL(currentPrice float64) float64 {
	return (currentPrice - p.AvgEntry) * p.Quantity
}

// MarketValue returns the position's notional value at currentPrice.
func (p Position) MarketValue(currentPrice float64) float64 {
	return p.Quantity * currentPrice
}

// IsLong reports whether the position is a net-long holding.
func (p Position) IsLong() bool { return p.Quantity > 0 }

// IsShort reports whether the position is a net-short holding.
func (p Position) IsShort() bool { return p.Quantity < 0 }

// IsFlat reports whether the position is within Epsilon of zero.
func (p Position) IsFlat() bool {
	return p.Quantity < Epsilon && p.Quantity > -Epsilon
}
