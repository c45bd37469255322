package broker

import "sort"

// CommissionModel computes the commission owed on a fill. Implementations
// must never return a negative value (spec.md §4.4).
type CommissionModel interface {
	Commission(price, quantity float64) float64
}

// PerShareCommission charges a fixed amount per share, floored at Minimum.
type PerShareCommission struct {
	PerShare float64
	Minimum  float64
}

// NewPerShareCommission returns the reference default: $0.005/share, $1 min.
func NewPerShareCommission() PerShareCommission {
	return PerShareCommission{PerShare: 0.005, Minimum: 1.0}
}

// Commission implements CommissionModel.
func (c PerShareCommission) Commission(_, quantity float64) float64 {
	fee := c.PerShare * quantity
	if fee < c.Minimum {
		fee = c.Minimum
	}
	if fee < 0 {
		fee = 0
	}
	return fee
}

// PercentCommission charges a fixed percentage of notional value.
type PercentCommission struct {
	Rate float64 // e.g. 0.001 = 10 bps
}

// NewPercentCommission returns a 10 bps commission model.
func NewPercentCommission() PercentCommission {
	return PercentCommission{Rate: 0.001}
}

// Commission implements CommissionModel.
func (c PercentCommission) Commission(price, quantity float64) float64 {
	fee := price * quantity * c.Rate
	if fee < 0 {
		fee = 0
	}
	return fee
}

// CommissionTier is one breakpoint of a TieredCommission schedule.
type CommissionTier struct {
	NotionalThreshold float64
	Rate              float64
}

// TieredCommission applies the rate of the highest tier whose
// NotionalThreshold is <= the order's notional value.
type TieredCommission struct {
	Tiers []CommissionTier // need not be pre-sorted
}

// NewTieredCommission returns a three-tier schedule: 15 bps under $10k,
// 10 bps under $100k, 5 bps above.
func NewTieredCommission() TieredCommission {
	return TieredCommission{Tiers: []CommissionTier{
		{NotionalThreshold: 0, Rate: 0.0015},
		{NotionalThreshold: 10_000, Rate: 0.0010},
		{NotionalThreshold: 100_000, Rate: 0.0005},
	}}
}

// Commission implements CommissionModel.
func (c TieredCommission) Commission(price, quantity float64) float64 {
	notional := price * quantity
	tiers := make([]CommissionTier, len(c.Tiers))
	copy(tiers, c.Tiers)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].NotionalThreshold < tiers[j].NotionalThreshold
	})

	rate := 0.0
	for _, t := range tiers {
		if t.NotionalThreshold <= notional {
			rate = t.Rate
		} else {
			break
		}
	}
	fee := notional * rate
	if fee < 0 {
		fee = 0
	}
	return fee
}
