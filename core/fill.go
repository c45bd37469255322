package core

import "time"

// Fill is produced by the Broker. Exactly one Fill exists per filled
// Order; partial fills are not modeled.
type Fill struct {
	Timestamp  time.Time
	Symbol     string
	Side       Side
	Quantity   float64
	FillPrice  float64
	Commission float64
	Slippage   float64
	OrderID    string
	StrategyID string
}
