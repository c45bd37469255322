package risk

import "math"

// Sizer turns a signal's equity/price/volatility context into a whole-share
// quantity. Implementations must return 0 rather than a negative or
// fractional quantity when sizing isn't possible.
type Sizer interface {
	Size(equity, price, atr, signalStrength float64) float64
}

// ATRSizer risks a fixed fraction of equity per trade, scaled by the
// signal's strength, with the stop distance expressed in ATR units. This
// keeps dollar-risk per trade roughly constant regardless of volatility
// (spec.md §4.3).
type ATRSizer struct {
	RiskPct        float64 // fraction of equity risked per trade, e.g. 0.01
	ATRMultiple    float64 // stop distance in ATR units
	MaxPositionPct float64 // never exceed this fraction of equity in one name
}

// NewATRSizer returns an ATRSizer with the reference defaults: 1% risk per
// trade, a 2x ATR stop distance, capped at 20% of equity per position.
func NewATRSizer() ATRSizer {
	return ATRSizer{RiskPct: 0.01, ATRMultiple: 2.0, MaxPositionPct: 0.20}
}

// Size implements Sizer.
func (s ATRSizer) Size(equity, price, atr, signalStrength float64) float64 {
	if math.IsNaN(atr) || atr <= 0 || price <= 0 {
		return 0
	}
	stopDistance := atr * s.ATRMultiple
	dollarRisk := equity * s.RiskPct * signalStrength
	rawQty := dollarRisk / stopDistance

	maxQty := (equity * s.MaxPositionPct) / price
	qty := math.Min(rawQty, maxQty)
	if qty < 0 {
		qty = 0
	}
	return math.Floor(qty)
}

// FixedFractionSizer bets a fixed fraction of equity, ignoring volatility.
type FixedFractionSizer struct {
	Fraction float64
}

// NewFixedFractionSizer returns a sizer betting 5% of equity per trade.
func NewFixedFractionSizer() FixedFractionSizer {
	return FixedFractionSizer{Fraction: 0.05}
}

// Size implements Sizer. atr is ignored.
func (s FixedFractionSizer) Size(equity, price, _, signalStrength float64) float64 {
	if price <= 0 {
		return 0
	}
	qty := (equity * s.Fraction * signalStrength) / price
	if qty < 0 {
		qty = 0
	}
	return math.Floor(qty)
}
