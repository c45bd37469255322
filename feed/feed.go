// Package feed owns the historical dataset the engine iterates over. It is
// the sole structural anti-lookahead mechanism: History never returns a bar
// whose timestamp exceeds the caller's up_to bound, and Iter yields bars in
// strict ascending timestamp order (spec.md §4.1).
package feed

import (
	"fmt"
	"sort"
	"time"

	"github.com/quantcore/backtester/core"
)

// BarFeed merges multiple symbols' OHLCV series and exposes both a
// chronological iterator and bounded historical lookups.
type BarFeed struct {
	data  map[string][]core.MarketBar
	index []time.Time
}

// New builds a BarFeed from per-symbol ordered bar slices. Each slice must
// already be sorted ascending by Timestamp with no duplicates; use
// Validate before calling New if the data came from an untrusted source.
func New(data map[string][]core.MarketBar) *BarFeed {
	seen := make(map[int64]time.Time)
	for _, bars := range data {
		for _, b := range bars {
			seen[b.Timestamp.UnixNano()] = b.Timestamp
		}
	}
	index := make([]time.Time, 0, len(seen))
	for _, ts := range seen {
		index = append(index, ts)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	cp := make(map[string][]core.MarketBar, len(data))
	for sym, bars := range data {
		dup := make([]core.MarketBar, len(bars))
		copy(dup, bars)
		cp[sym] = dup
	}
	return &BarFeed{data: cp, index: index}
}

// Symbols returns the known symbols, sorted alphabetically.
func (f *BarFeed) Symbols() []string {
	out := make([]string, 0, len(f.data))
	for s := range f.data {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// BarSet maps symbol to its bar at the current iteration timestamp.
type BarSet map[string]core.MarketBar

// Cursor walks a BarFeed's master timestamp index in strict ascending
// order, handing back one BarSet per timestamp. It holds per-symbol
// position state so repeated calls to Next are O(1) amortized.
type Cursor struct {
	feed   *BarFeed
	pos    int
	cursor map[string]int
}

// Iter returns a fresh Cursor positioned before the first bar.
func (f *BarFeed) Iter() *Cursor {
	return &Cursor{feed: f, cursor: make(map[string]int, len(f.data))}
}

// Next advances the cursor and returns the next (timestamp, bars) pair.
// ok is false once the feed is exhausted. Timestamps with no bars for any
// symbol cannot occur given how the master index is built from the union
// of per-symbol timestamps, but the empty case is still skipped explicitly
// so the invariant holds even against a hand-built BarFeed.
func (c *Cursor) Next() (time.Time, BarSet, bool) {
	for c.pos < len(c.feed.index) {
		ts := c.feed.index[c.pos]
		c.pos++

		bars := BarSet{}
		for sym, series := range c.feed.data {
			i := c.cursor[sym]
			if i < len(series) && series[i].Timestamp.Equal(ts) {
				bars[sym] = series[i]
				c.cursor[sym] = i + 1
			}
		}
		if len(bars) == 0 {
			continue
		}
		return ts, bars, true
	}
	return time.Time{}, nil, false
}

// History returns the ordered subsequence of symbol's bars with timestamp
// <= upTo, optionally truncated to the last n. It fails with
// core.ErrUnknownSymbol if symbol is not present in the feed.
func (f *BarFeed) History(symbol string, upTo time.Time, n int) ([]core.MarketBar, error) {
	series, ok := f.data[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownSymbol, symbol)
	}
	end := sort.Search(len(series), func(i int) bool {
		return series[i].Timestamp.After(upTo)
	})
	hist := series[:end]
	if n > 0 && len(hist) > n {
		hist = hist[len(hist)-n:]
	}
	out := make([]core.MarketBar, len(hist))
	copy(out, hist)
	return out, nil
}
