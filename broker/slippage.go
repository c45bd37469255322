package broker

import "math"

// SlippageModel computes a per-share price adjustment applied on top of a
// trial fill price. Implementations must never return a negative value
// (spec.md §4.4).
type SlippageModel interface {
	Slippage(price, quantity, barVolume, barClose float64) float64
}

// FixedSlippage charges a constant number of basis points of price,
// regardless of order size or bar liquidity.
type FixedSlippage struct {
	BPS float64 // e.g. 0.0005 = 5 bps
}

// NewFixedSlippage returns a 5 bps fixed-slippage model.
func NewFixedSlippage() FixedSlippage {
	return FixedSlippage{BPS: 0.0005}
}

// Slippage implements SlippageModel.
func (s FixedSlippage) Slippage(price, _, _, _ float64) float64 {
	if price <= 0 || s.BPS <= 0 {
		return 0
	}
	return price * s.BPS
}

// VolumeSlippage models market impact growing with order size relative to
// the bar's traded volume: cost = price * (spread + k * sqrt(notional /
// max(barVolume*barClose, 1))).
type VolumeSlippage struct {
	SpreadBPS float64
	Impact    float64 // the k coefficient
}

// NewVolumeSlippage returns a model with a 2 bps half-spread and a modest
// impact coefficient.
func NewVolumeSlippage() VolumeSlippage {
	return VolumeSlippage{SpreadBPS: 0.0002, Impact: 0.1}
}

// Slippage implements SlippageModel.
func (s VolumeSlippage) Slippage(price, quantity, barVolume, barClose float64) float64 {
	if price <= 0 {
		return 0
	}
	notional := quantity * price
	dollarVolume := barVolume * barClose
	if dollarVolume < 1 {
		dollarVolume = 1
	}
	impact := s.Impact * math.Sqrt(notional/dollarVolume)
	cost := price * (s.SpreadBPS + impact)
	if cost < 0 {
		cost = 0
	}
	return cost
}
