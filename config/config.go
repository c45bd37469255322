package config

import (
	"errors"
	"fmt"
)

// StrategyConfig holds the indicator thresholds consumed by strategies
// built on the goti.IndicatorSuite (see strategy.OscillatorConfluence).
// The risk-sizing fields on this struct are legacy from the live-trading
// precursor this package was adapted from; the backtest core's own sizing
// and stop/take-profit parameters live in RiskConfig below.
type StrategyConfig struct {
	// Indicator thresholds – you can tune them per‑strategy
	RSIOverbought   float64 // default 70
	RSIOversold     float64 // default 30
	MFIOverbought   float64 // default 80
	MFIOversold     float64 // default 20
	VWAOStrongTrend float64 // default 70
	HMAPeriod       int     // default 9
	ADMOOverbought  float64 // default 1.0
	ADMOOversold    float64 // default -1.0
	ATSEMAperiod    int     // default 5

	// Risk parameters
	MaxRiskPerTrade float64 // e.g. 0.01 = 1 % of equity
	StopLossPct     float64 // e.g. 0.015 = 1.5 %
	TakeProfitPct   float64 // e.g. 0.03  = 3 %
	TrailingPct     float64 // optional, 0 = disabled

	// ---- NEW PRODUCTION SETTINGS -------------------------------------------------
	// QuantityPrecision defines the number of decimal places to round to
	// (e.g. 2 for crypto/futures, 0 for equities).
	QuantityPrecision int

	// Minimum order size accepted by the broker (e.g. 0.001 BTC).
	MinQty float64

	// StepSize – the increment allowed by the exchange (e.g. 0.0001).
	StepSize float64
}

// Validate checks that all numeric fields are within sensible bounds.
// It returns the first encountered error, allowing the caller to surface a
// clear configuration problem before any trading starts.
func (c *StrategyConfig) Validate() error {
	// -----------------------------------------------------------------
	// RSIOverbought would normally be > RSIOversold, but only equal
	// values are rejected here; inverted thresholds pass validation.
	// -----------------------------------------------------------------
	if c.RSIOverbought == c.RSIOversold {
		return errors.New("RSIOverbought and RSIOversold cannot be equal")
	}
	if c.HMAPeriod <= 0 {
		return errors.New("HMAPeriod must be positive")
	}
	if c.ATSEMAperiod <= 0 {
		return errors.New("ATSEMAperiod must be positive")
	}
	if c.MaxRiskPerTrade <= 0 || c.MaxRiskPerTrade > 0.5 {
		return fmt.Errorf("MaxRiskPerTrade (%f) must be >0 and <=0.5", c.MaxRiskPerTrade)
	}
	if c.StopLossPct <= 0 || c.StopLossPct > 0.2 {
		return fmt.Errorf("StopLossPct (%f) must be >0 and <=0.2", c.StopLossPct)
	}
	if c.TakeProfitPct < 0 || c.TakeProfitPct > 5 {
		return fmt.Errorf("TakeProfitPct (%f) out of realistic range", c.TakeProfitPct)
	}
	if c.TrailingPct < 0 || c.TrailingPct > 1 {
		return fmt.Errorf("TrailingPct (%f) must be between 0 and 1", c.TrailingPct)
	}
	if c.QuantityPrecision < 0 {
		return errors.New("QuantityPrecision cannot be negative")
	}
	if c.MinQty < 0 {
		return errors.New("MinQty cannot be negative")
	}
	if c.StepSize <= 0 {
		return errors.New("StepSize must be positive")
	}
	// -----------------------------------------------------------------
	// MFI thresholds – same story as RSI.
	// -----------------------------------------------------------------
	if c.MFIOverbought == c.MFIOversold {
		return errors.New("MFIOverbought and MFIOversold cannot be equal")
	}
	return nil
}

// EngineConfig controls the orchestrator itself (spec.md §6's Engine
// configuration surface).
type EngineConfig struct {
	InitialCapital float64
	RiskFreeRate   float64
	Verbose        bool
}

// DefaultEngineConfig starts from $100,000 with a zero risk-free rate.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{InitialCapital: 100_000.0}
}

// Validate checks EngineConfig's numeric fields are within sensible bounds.
func (c EngineConfig) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("InitialCapital (%f) must be positive", c.InitialCapital)
	}
	if c.RiskFreeRate < 0 || c.RiskFreeRate > 1 {
		return fmt.Errorf("RiskFreeRate (%f) must be between 0 and 1", c.RiskFreeRate)
	}
	return nil
}

// BrokerConfig controls order-matching behavior (spec.md §6's Broker
// configuration surface). SlippageModel and CommissionModel are supplied
// directly to broker.New — they're interfaces implemented in the broker
// package, and keeping them out of this struct avoids a config->broker
// import cycle.
type BrokerConfig struct {
	MaxBarsPending int
}

// DefaultBrokerConfig allows exactly one bar of pending time.
func DefaultBrokerConfig() BrokerConfig {
	return BrokerConfig{MaxBarsPending: 1}
}

// Validate checks BrokerConfig's numeric fields are within sensible bounds.
func (c BrokerConfig) Validate() error {
	if c.MaxBarsPending < 1 {
		return errors.New("MaxBarsPending must be >= 1")
	}
	return nil
}

// RiskConfig controls the RiskManager's sizing and stop/take-profit
// behavior (spec.md §6's RiskManager configuration surface). Sizer is
// supplied directly to risk.New for the same reason BrokerConfig keeps
// its models out-of-struct.
type RiskConfig struct {
	ATRPeriod        int
	StopATRMultiple  float64
	TPATRMultiple    float64
	MaxOpenPositions int
	AllowShort       bool
}

// DefaultRiskConfig mirrors the reference implementation: a 14-bar ATR, a
// 2x stop and 4x take-profit, up to 10 concurrent long positions,
// shorting disabled.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		ATRPeriod:        14,
		StopATRMultiple:  2.0,
		TPATRMultiple:    4.0,
		MaxOpenPositions: 10,
		AllowShort:       false,
	}
}

// Validate checks RiskConfig's numeric fields are within sensible bounds.
func (c RiskConfig) Validate() error {
	if c.ATRPeriod <= 0 {
		return errors.New("ATRPeriod must be positive")
	}
	if c.StopATRMultiple <= 0 {
		return errors.New("StopATRMultiple must be positive")
	}
	if c.TPATRMultiple <= 0 {
		return errors.New("TPATRMultiple must be positive")
	}
	if c.MaxOpenPositions <= 0 {
		return errors.New("MaxOpenPositions must be positive")
	}
	return nil
}
