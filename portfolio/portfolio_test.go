package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
)

func TestOnFillOpensLongPosition(t *testing.T) {
	p := New(100_000, nil)
	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Buy, Quantity: 10, FillPrice: 100, Commission: 1, OrderID: "ORD-1"})

	qty := p.OpenQuantities()["AAPL"]
	if qty != 10 {
		t.Fatalf("expected qty 10, got %v", qty)
	}
	wantCash := 100_000.0 - (100*10 + 1)
	if math.Abs(p.Cash()-wantCash) > 1e-9 {
		t.Fatalf("expected cash %v, got %v", wantCash, p.Cash())
	}
}

func TestOnFillAveragesUpLong(t *testing.T) {
	p := New(100_000, nil)
	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Buy, Quantity: 10, FillPrice: 100})
	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Buy, Quantity: 10, FillPrice: 110})

	det := p.OpenPositionsDetail()["AAPL"]
	if det.Quantity != 20 {
		t.Fatalf("expected qty 20, got %v", det.Quantity)
	}
	wantAvg := (10*100.0 + 10*110.0) / 20
	if math.Abs(det.AvgEntry-wantAvg) > 1e-9 {
		t.Fatalf("expected avg entry %v, got %v", wantAvg, det.AvgEntry)
	}
}

func TestOnFillClosesLongRealizesPnL(t *testing.T) {
	p := New(100_000, nil)
	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Buy, Quantity: 10, FillPrice: 100})
	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Sell, Quantity: 10, FillPrice: 120})

	trades := p.TradeLog()
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[1].PnL != 200 {
		t.Fatalf("expected realized pnl 200, got %v", trades[1].PnL)
	}
	if _, ok := p.OpenQuantities()["AAPL"]; ok {
		t.Fatalf("expected position closed and removed")
	}
}

func TestOnFillShortOpenAndCover(t *testing.T) {
	p := New(100_000, nil)
	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Sell, Quantity: 10, FillPrice: 100})

	det := p.OpenPositionsDetail()["AAPL"]
	if det.Quantity != -10 {
		t.Fatalf("expected short qty -10, got %v", det.Quantity)
	}

	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Buy, Quantity: 10, FillPrice: 90})
	trades := p.TradeLog()
	wantPnL := (100.0 - 90.0) * 10
	if math.Abs(trades[1].PnL-wantPnL) > 1e-9 {
		t.Fatalf("expected short-cover pnl %v, got %v", wantPnL, trades[1].PnL)
	}
	if _, ok := p.OpenQuantities()["AAPL"]; ok {
		t.Fatalf("expected short fully covered and removed")
	}
}

func TestOnFillPartialCoverKeepsRemainderShort(t *testing.T) {
	p := New(100_000, nil)
	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Sell, Quantity: 10, FillPrice: 100})
	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Buy, Quantity: 4, FillPrice: 90})

	det := p.OpenPositionsDetail()["AAPL"]
	if det.Quantity != -6 {
		t.Fatalf("expected remaining short qty -6, got %v", det.Quantity)
	}
	if det.AvgEntry != 100 {
		t.Fatalf("expected avg entry unchanged at 100, got %v", det.AvgEntry)
	}
}

func TestMarkToMarketFallsBackToAvgEntryWhenNoBar(t *testing.T) {
	p := New(100_000, nil)
	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Buy, Quantity: 10, FillPrice: 100})

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	equity := p.MarkToMarket(ts, feed.BarSet{}) // no bar for AAPL this step
	wantEquity := (100_000.0 - 1000) + 1000     // holdings valued at avg_entry, stale
	if equity != wantEquity {
		t.Fatalf("expected equity %v, got %v", wantEquity, equity)
	}
}

func TestEquityCurveDrawdownIsRunningPeakToTrough(t *testing.T) {
	p := New(100_000, nil)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p.MarkToMarket(ts, feed.BarSet{})
	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Buy, Quantity: 100, FillPrice: 100})
	p.MarkToMarket(ts.AddDate(0, 0, 1), feed.BarSet{"AAPL": {Timestamp: ts, Symbol: "AAPL", Close: 120}})
	p.MarkToMarket(ts.AddDate(0, 0, 2), feed.BarSet{"AAPL": {Timestamp: ts, Symbol: "AAPL", Close: 90}})

	curve := p.EquityCurve()
	if curve[0].Drawdown != 0 {
		t.Fatalf("expected zero drawdown at first snapshot")
	}
	if curve[1].Drawdown != 0 {
		t.Fatalf("expected zero drawdown at new peak, got %v", curve[1].Drawdown)
	}
	if curve[2].Drawdown >= 0 {
		t.Fatalf("expected negative drawdown after the drop, got %v", curve[2].Drawdown)
	}
}

func TestAttachStopTPStoresOnPosition(t *testing.T) {
	p := New(100_000, nil)
	p.OnFill(core.Fill{Symbol: "AAPL", Side: core.Buy, Quantity: 10, FillPrice: 100})

	sl, tp := 95.0, 110.0
	p.AttachStopTP("AAPL", &sl, &tp)

	det := p.OpenPositionsDetail()["AAPL"]
	if det.StopLoss == nil || *det.StopLoss != 95 {
		t.Fatalf("expected stop loss 95, got %+v", det.StopLoss)
	}
	if det.TakeProfit == nil || *det.TakeProfit != 110 {
		t.Fatalf("expected take profit 110, got %+v", det.TakeProfit)
	}
}

func TestSummaryStatsNoTradesYet(t *testing.T) {
	p := New(50_000, nil)
	s := p.SummaryStats()
	if s.FinalEquity != 50_000 || s.TotalReturnPct != 0 || s.NTrades != 0 {
		t.Fatalf("unexpected summary for fresh portfolio: %+v", s)
	}
}
