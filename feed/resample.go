package feed

import (
	"strings"
	"time"

	"github.com/quantcore/backtester/core"
)

// resampleAliases maps the friendly names spec.md §6 names to calendar
// rules; any other rule is upper-cased and handed to bucketFunc, which
// treats rules it does not know as calendar-month buckets.
var resampleAliases = map[string]string{
	"weekly":    "W",
	"monthly":   "ME",
	"quarterly": "QE",
}

// Resample downsamples a symbol's bars under rule, aggregating
// open=first, high=max, low=min, close=last, volume=sum. Resampling must
// run before a BarFeed is constructed — doing it during iteration would
// require bars from the future to close out the current bucket
// (spec.md §9).
func Resample(bars []core.MarketBar, rule string) []core.MarketBar {
	if len(bars) == 0 {
		return nil
	}
	if alias, ok := resampleAliases[strings.ToLower(rule)]; ok {
		rule = alias
	} else {
		rule = strings.ToUpper(rule)
	}

	bucketOf := bucketFunc(rule)
	out := make([]core.MarketBar, 0, len(bars))

	start := 0
	currentBucket := bucketOf(bars[0].Timestamp)
	for i := 1; i <= len(bars); i++ {
		if i < len(bars) && bucketOf(bars[i].Timestamp).Equal(currentBucket) {
			continue
		}
		out = append(out, aggregate(bars[start:i]))
		if i < len(bars) {
			start = i
			currentBucket = bucketOf(bars[i].Timestamp)
		}
	}
	return out
}

func aggregate(group []core.MarketBar) core.MarketBar {
	agg := core.MarketBar{
		Timestamp: group[len(group)-1].Timestamp,
		Symbol:    group[0].Symbol,
		Open:      group[0].Open,
		High:      group[0].High,
		Low:       group[0].Low,
		Close:     group[len(group)-1].Close,
	}
	for _, b := range group {
		if b.High > agg.High {
			agg.High = b.High
		}
		if b.Low < agg.Low {
			agg.Low = b.Low
		}
		agg.Volume += b.Volume
	}
	return agg
}

// bucketFunc returns a function mapping a timestamp to a key identifying
// the calendar bucket it falls in, for the handful of rules this core
// needs. "W" keys on the Monday of the ISO week, "QE" on the first day of
// the quarter's last month, and "ME" on the first day of the month. The
// key only groups bars; each aggregated bar carries the timestamp of the
// last bar in its bucket (see aggregate).
func bucketFunc(rule string) func(time.Time) time.Time {
	switch rule {
	case "W":
		return func(t time.Time) time.Time {
			wd := int(t.Weekday())
			if wd == 0 {
				wd = 7 // ISO: Sunday is day 7 of its own week
			}
			y, m, d := t.AddDate(0, 0, -(wd - 1)).Date()
			return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		}
	case "QE":
		return func(t time.Time) time.Time {
			q := ((int(t.Month()) - 1) / 3) + 1
			return time.Date(t.Year(), time.Month(q*3), 1, 0, 0, 0, 0, t.Location())
		}
	default: // "ME" and anything else falls back to calendar-month buckets
		return func(t time.Time) time.Time {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		}
	}
}
