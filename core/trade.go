package core

import "time"

// TradeRecord is appended once per Fill. PnL is realized P&L, populated
// only on the Fill that closes or reduces a position (zero on entries).
type TradeRecord struct {
	Timestamp  time.Time
	Symbol     string
	Side       Side
	Quantity   float64
	FillPrice  float64
	Commission float64
	Slippage   float64
	PnL        float64
	OrderID    string
	StrategyID string
}
