package risk

import (
	"testing"
	"time"

	"github.com/quantcore/backtester/config"
	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
)

func buildFeed(t *testing.T, n int, start float64) *feed.BarFeed {
	t.Helper()
	var bars []core.MarketBar
	price := start
	for i := 0; i < n; i++ {
		bars = append(bars, core.MarketBar{
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Symbol:    "AAPL", Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1e6,
		})
		price++
	}
	return feed.New(map[string][]core.MarketBar{"AAPL": bars})
}

func TestProcessSignalsLongEmitsMarketBuy(t *testing.T) {
	f := buildFeed(t, 30, 100)
	mgr, err := New(config.DefaultRiskConfig(), NewATRSizer(), nil)
	if err != nil {
		t.Fatal(err)
	}

	ts := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
	sig := core.Signal{Timestamp: ts, Symbol: "AAPL", StrategyID: "test", Direction: core.Long, Strength: 1.0}

	barSet := feed.BarSet{"AAPL": {Timestamp: ts, Open: 129, High: 130, Low: 128, Close: 129, Volume: 1e6}}
	gen := core.NewIDGenerator()

	orders, err := mgr.ProcessSignals([]core.Signal{sig}, barSet, f, 100_000, map[string]float64{}, gen)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	o := orders[0]
	if o.Side != core.Buy || o.OrderType != core.Market {
		t.Fatalf("expected MARKET BUY, got %v %v", o.OrderType, o.Side)
	}
	if o.StopLoss == nil || o.TakeProfit == nil {
		t.Fatal("expected ATR-derived stop/take-profit to be set")
	}
}

func TestProcessSignalsLongSuppressedWhenAlreadyLong(t *testing.T) {
	f := buildFeed(t, 30, 100)
	mgr, _ := New(config.DefaultRiskConfig(), NewATRSizer(), nil)

	ts := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
	sig := core.Signal{Timestamp: ts, Symbol: "AAPL", Direction: core.Long, Strength: 1.0}
	barSet := feed.BarSet{"AAPL": {Timestamp: ts, Open: 129, High: 130, Low: 128, Close: 129, Volume: 1e6}}

	orders, err := mgr.ProcessSignals([]core.Signal{sig}, barSet, f, 100_000, map[string]float64{"AAPL": 10}, core.NewIDGenerator())
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected signal suppressed, got %d orders", len(orders))
	}
}

func TestProcessSignalsFlatClosesLong(t *testing.T) {
	f := buildFeed(t, 30, 100)
	mgr, _ := New(config.DefaultRiskConfig(), NewATRSizer(), nil)

	ts := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
	sig := core.Signal{Timestamp: ts, Symbol: "AAPL", Direction: core.Flat}
	barSet := feed.BarSet{"AAPL": {Timestamp: ts, Open: 129, High: 130, Low: 128, Close: 129, Volume: 1e6}}

	orders, err := mgr.ProcessSignals([]core.Signal{sig}, barSet, f, 100_000, map[string]float64{"AAPL": 10}, core.NewIDGenerator())
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].Side != core.Sell || orders[0].Quantity != 10 {
		t.Fatalf("expected SELL 10 to flatten, got %+v", orders)
	}
}

func TestProcessSignalsShortBlockedWhenDisallowed(t *testing.T) {
	f := buildFeed(t, 30, 100)
	cfg := config.DefaultRiskConfig()
	cfg.AllowShort = false
	mgr, _ := New(cfg, NewATRSizer(), nil)

	ts := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
	sig := core.Signal{Timestamp: ts, Symbol: "AAPL", Direction: core.Short, Strength: 1.0}
	barSet := feed.BarSet{"AAPL": {Timestamp: ts, Open: 129, High: 130, Low: 128, Close: 129, Volume: 1e6}}

	orders, err := mgr.ProcessSignals([]core.Signal{sig}, barSet, f, 100_000, map[string]float64{}, core.NewIDGenerator())
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no orders when shorting disallowed, got %d", len(orders))
	}
}

func TestCheckStopConditionsTriggersStopLoss(t *testing.T) {
	mgr, _ := New(config.DefaultRiskConfig(), NewATRSizer(), nil)
	sl := 98.0
	positions := map[string]PositionDetail{
		"AAPL": {Quantity: 10, AvgEntry: 100, StopLoss: &sl},
	}
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	barSet := feed.BarSet{"AAPL": {Timestamp: ts, Symbol: "AAPL", Open: 99, High: 99, Low: 97, Close: 98, Volume: 1e6}}

	orders := mgr.CheckStopConditions(positions, barSet, core.NewIDGenerator())
	if len(orders) != 1 || orders[0].Side != core.Sell || orders[0].Quantity != 10 {
		t.Fatalf("expected stop-loss SELL 10, got %+v", orders)
	}
}

func TestCheckStopConditionsNoTriggerWhenInsideBand(t *testing.T) {
	mgr, _ := New(config.DefaultRiskConfig(), NewATRSizer(), nil)
	sl, tp := 90.0, 120.0
	positions := map[string]PositionDetail{
		"AAPL": {Quantity: 10, AvgEntry: 100, StopLoss: &sl, TakeProfit: &tp},
	}
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	barSet := feed.BarSet{"AAPL": {Timestamp: ts, Symbol: "AAPL", Open: 101, High: 103, Low: 99, Close: 102, Volume: 1e6}}

	orders := mgr.CheckStopConditions(positions, barSet, core.NewIDGenerator())
	if len(orders) != 0 {
		t.Fatalf("expected no trigger, got %+v", orders)
	}
}
