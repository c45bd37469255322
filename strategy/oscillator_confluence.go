package strategy

import (
	"time"

	"github.com/evdnx/goti"
	"github.com/quantcore/backtester/config"
	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
	"github.com/quantcore/backtester/logger"
)

// OscillatorConfluence requires RSI, MFI, and VWAO to agree on direction
// before emitting a signal. Unlike the other example strategies it does
// not reach into feed history for each bar; it feeds goti's
// IndicatorSuite incrementally, one bar at a time, which is itself
// no-lookahead-safe since the suite only ever sees bars up to the
// current timestamp.
type OscillatorConfluence struct {
	BaseStrategy
	cfg    oscillatorConfig
	suites map[string]*goti.IndicatorSuite
	warm   map[string]int
}

// oscillatorConfig mirrors the oscillator threshold knobs a caller may
// want to tune; it is unexported because it only configures this one
// strategy.
type oscillatorConfig struct {
	RSIOverbought, RSIOversold float64
	MFIOverbought, MFIOversold float64
	VWAOStrongTrend            float64
	WarmupBars                 int
}

// NewOscillatorConfluence builds an OscillatorConfluence with the
// reference thresholds (RSI 70/30, MFI 80/20, VWAO strong-trend 70).
func NewOscillatorConfluence(id string, symbols []string, log logger.Logger) *OscillatorConfluence {
	return &OscillatorConfluence{
		BaseStrategy: NewBaseStrategy(id, symbols, log),
		cfg: oscillatorConfig{
			RSIOverbought: 70, RSIOversold: 30,
			MFIOverbought: 80, MFIOversold: 20,
			VWAOStrongTrend: 70,
			WarmupBars:      14,
		},
		suites: make(map[string]*goti.IndicatorSuite),
		warm:   make(map[string]int),
	}
}

// NewOscillatorConfluenceFromConfig builds an OscillatorConfluence using
// the oscillator thresholds carried on a config.StrategyConfig, so a
// caller tuning that struct (e.g. from a config file) affects this
// strategy's crossover sensitivity without touching its source.
func NewOscillatorConfluenceFromConfig(id string, symbols []string, cfg config.StrategyConfig, log logger.Logger) *OscillatorConfluence {
	s := NewOscillatorConfluence(id, symbols, log)
	s.cfg = oscillatorConfig{
		RSIOverbought: cfg.RSIOverbought, RSIOversold: cfg.RSIOversold,
		MFIOverbought: cfg.MFIOverbought, MFIOversold: cfg.MFIOversold,
		VWAOStrongTrend: cfg.VWAOStrongTrend,
		WarmupBars:      s.cfg.WarmupBars,
	}
	return s
}

func (s *OscillatorConfluence) suiteFor(symbol string) (*goti.IndicatorSuite, error) {
	if suite, ok := s.suites[symbol]; ok {
		return suite, nil
	}
	ic := goti.DefaultConfig()
	ic.RSIOverbought = s.cfg.RSIOverbought
	ic.RSIOversold = s.cfg.RSIOversold
	ic.MFIOverbought = s.cfg.MFIOverbought
	ic.MFIOversold = s.cfg.MFIOversold
	ic.VWAOStrongTrend = s.cfg.VWAOStrongTrend

	suite, err := goti.NewIndicatorSuiteWithConfig(ic)
	if err != nil {
		return nil, err
	}
	s.suites[symbol] = suite
	return suite, nil
}

// OnBar implements Strategy.
func (s *OscillatorConfluence) OnBar(ts time.Time, bars feed.BarSet) {
	for _, symbol := range s.Symbols() {
		bar, ok := bars[symbol]
		if !ok {
			continue
		}

		suite, err := s.suiteFor(symbol)
		if err != nil {
			continue
		}
		if err := suite.Add(bar.High, bar.Low, bar.Close, bar.Volume); err != nil {
			continue
		}
		s.warm[symbol]++
		if s.warm[symbol] < s.cfg.WarmupBars {
			continue
		}

		rsiBull, _ := suite.GetRSI().IsBullishCrossover()
		rsiBear, _ := suite.GetRSI().IsBearishCrossover()
		mfiBull, _ := suite.GetMFI().IsBullishCrossover()
		mfiBear, _ := suite.GetMFI().IsBearishCrossover()
		vwaoBull, _ := suite.GetVWAO().IsBullishCrossover()
		vwaoBear, _ := suite.GetVWAO().IsBearishCrossover()

		switch {
		case rsiBull && mfiBull && vwaoBull:
			s.EmitSignal(ts, symbol, core.Long, 1.0, nil, nil)
		case rsiBear && mfiBear && vwaoBear:
			s.EmitSignal(ts, symbol, core.Flat, 1.0, nil, nil)
		}
	}
}
