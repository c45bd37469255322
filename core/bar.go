package core

import "time"

// MarketBar is a single symbol's OHLCV bar at a timestamp. Values are
// immutable once constructed.
type MarketBar struct {
	Timestamp time.Time
	Symbol    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}
