package feed

import (
	"fmt"
	"math"
	"sort"

	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/logger"
)

// Validate cleans and sanity-checks a single symbol's bar series before it
// is handed to New, per spec.md §6:
//
//   - index must be sorted ascending; duplicates are dropped keeping last
//   - rows where high < low are repaired by swap
//   - small gaps (<= maxFFGap rows) are forward-filled
//   - leading rows that still have no valid close after fill are dropped
//   - non-finite values are treated as missing and coerced the same way
//
// Unlike the CSV/DataFrame ingestion layer (out of scope, spec.md §1),
// Validate operates directly on []core.MarketBar, since this is the
// algorithm that must run before loop construction regardless of source.
func Validate(symbol string, bars []core.MarketBar, log logger.Logger) ([]core.MarketBar, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: [%s] no bars supplied", core.ErrValidation, symbol)
	}
	if log == nil {
		log = logger.Nop()
	}

	cleaned := make([]core.MarketBar, len(bars))
	copy(cleaned, bars)

	if !sort.SliceIsSorted(cleaned, func(i, j int) bool {
		return cleaned[i].Timestamp.Before(cleaned[j].Timestamp)
	}) {
		log.Warn("index not sorted — sorting", logger.String("symbol", symbol))
		sort.SliceStable(cleaned, func(i, j int) bool {
			return cleaned[i].Timestamp.Before(cleaned[j].Timestamp)
		})
	}

	cleaned = dropDuplicatesKeepLast(cleaned)

	bad := 0
	for i := range cleaned {
		if cleaned[i].High < cleaned[i].Low {
			bad++
			cleaned[i].High, cleaned[i].Low = math.Max(cleaned[i].High, cleaned[i].Low), math.Min(cleaned[i].High, cleaned[i].Low)
		}
	}
	if bad > 0 {
		log.Warn("bars with high < low — repaired by swap",
			logger.String("symbol", symbol), logger.Int("count", bad))
	}

	cleaned = forwardFillSmallGaps(cleaned, 5)
	cleaned = dropInvalid(cleaned)

	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: [%s] no valid bars after cleaning", core.ErrValidation, symbol)
	}
	log.Info("validated bar series",
		logger.String("symbol", symbol), logger.Int("bars", len(cleaned)))
	return cleaned, nil
}

func dropDuplicatesKeepLast(bars []core.MarketBar) []core.MarketBar {
	out := make([]core.MarketBar, 0, len(bars))
	for i, b := range bars {
		if i+1 < len(bars) && bars[i+1].Timestamp.Equal(b.Timestamp) {
			continue // a later bar at the same timestamp wins
		}
		out = append(out, b)
	}
	return out
}

func forwardFillSmallGaps(bars []core.MarketBar, maxGap int) []core.MarketBar {
	out := make([]core.MarketBar, len(bars))
	copy(out, bars)

	run := 0
	var last *core.MarketBar
	for i := range out {
		if isFiniteBar(out[i]) {
			last = &out[i]
			run = 0
			continue
		}
		run++
		if last != nil && run <= maxGap {
			filled := *last
			filled.Timestamp = out[i].Timestamp
			out[i] = filled
		}
	}
	return out
}

func dropInvalid(bars []core.MarketBar) []core.MarketBar {
	out := make([]core.MarketBar, 0, len(bars))
	for _, b := range bars {
		if isFiniteBar(b) {
			out = append(out, b)
		}
	}
	return out
}

func isFiniteBar(b core.MarketBar) bool {
	vals := []float64{b.Open, b.High, b.Low, b.Close, b.Volume}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
