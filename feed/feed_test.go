package feed

import (
	"testing"
	"time"

	"github.com/quantcore/backtester/core"
)

func mkBar(day int, close float64) core.MarketBar {
	ts := time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	return core.MarketBar{Timestamp: ts, Symbol: "AAPL", Open: close, High: close, Low: close, Close: close, Volume: 1000}
}

func TestHistoryNeverLeaksFuture(t *testing.T) {
	bars := []core.MarketBar{mkBar(1, 100), mkBar(2, 101), mkBar(3, 102), mkBar(4, 103)}
	f := New(map[string][]core.MarketBar{"AAPL": bars})

	upTo := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	hist, err := f.History("AAPL", upTo, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range hist {
		if b.Timestamp.After(upTo) {
			t.Fatalf("History leaked a bar after up_to: %v", b.Timestamp)
		}
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(hist))
	}
}

func TestHistoryUnknownSymbol(t *testing.T) {
	f := New(map[string][]core.MarketBar{"AAPL": {mkBar(1, 100)}})
	_, err := f.History("MSFT", time.Now(), 0)
	if err == nil {
		t.Fatal("expected error for unknown symbol")
	}
}

func TestHistoryTruncatesToN(t *testing.T) {
	bars := []core.MarketBar{mkBar(1, 1), mkBar(2, 2), mkBar(3, 3), mkBar(4, 4), mkBar(5, 5)}
	f := New(map[string][]core.MarketBar{"AAPL": bars})
	hist, err := f.History("AAPL", mkBar(5, 5).Timestamp, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 || hist[0].Close != 4 || hist[1].Close != 5 {
		t.Fatalf("unexpected truncated history: %+v", hist)
	}
}

func TestIterSkipsTimestampsMissingAllSymbols(t *testing.T) {
	a := []core.MarketBar{mkBar(1, 1), mkBar(3, 3)}
	b := []core.MarketBar{mkBar(2, 2), mkBar(3, 33)}
	f := New(map[string][]core.MarketBar{"A": a, "B": b})

	var seen []time.Time
	c := f.Iter()
	for {
		ts, bars, ok := c.Next()
		if !ok {
			break
		}
		seen = append(seen, ts)
		if ts.Day() == 1 {
			if _, has := bars["A"]; !has {
				t.Fatal("expected symbol A bar on day 1")
			}
			if _, has := bars["B"]; has {
				t.Fatal("did not expect symbol B bar on day 1")
			}
		}
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct timestamps, got %d", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if !seen[i].After(seen[i-1]) {
			t.Fatalf("timestamps not strictly ascending: %v then %v", seen[i-1], seen[i])
		}
	}
}

func TestIterOnlyIncludesSymbolsWithABar(t *testing.T) {
	a := []core.MarketBar{mkBar(1, 1), mkBar(2, 2)}
	b := []core.MarketBar{mkBar(2, 2)}
	f := New(map[string][]core.MarketBar{"A": a, "B": b})

	c := f.Iter()
	_, bars, _ := c.Next()
	if len(bars) != 1 {
		t.Fatalf("expected only symbol A on first bar, got %v", bars)
	}
	_, bars, _ = c.Next()
	if len(bars) != 2 {
		t.Fatalf("expected both symbols on second bar, got %v", bars)
	}
}

func TestValidateRepairsHighLowSwap(t *testing.T) {
	bars := []core.MarketBar{{
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Symbol:    "AAPL", Open: 10, High: 5, Low: 12, Close: 10, Volume: 100,
	}}
	cleaned, err := Validate("AAPL", bars, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cleaned[0].High < cleaned[0].Low {
		t.Fatalf("expected high >= low after repair, got %+v", cleaned[0])
	}
}

func TestValidateDropsDuplicatesKeepingLast(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []core.MarketBar{
		{Timestamp: ts, Symbol: "AAPL", Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Timestamp: ts, Symbol: "AAPL", Open: 2, High: 2, Low: 2, Close: 2, Volume: 2},
	}
	cleaned, err := Validate("AAPL", bars, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 1 || cleaned[0].Close != 2 {
		t.Fatalf("expected the later duplicate to win, got %+v", cleaned)
	}
}

func TestResampleWeeklyAggregation(t *testing.T) {
	var bars []core.MarketBar
	for d := 1; d <= 7; d++ {
		bars = append(bars, mkBar(d, float64(d)))
	}
	out := Resample(bars, "weekly")
	if len(out) == 0 {
		t.Fatal("expected at least one resampled bucket")
	}
	total := 0.0
	for _, b := range out {
		total += b.Volume
	}
	if total != 7000 {
		t.Fatalf("expected total volume preserved across buckets, got %v", total)
	}
}
