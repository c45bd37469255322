package testutils

import (
	"time"

	"github.com/quantcore/backtester/core"
	"github.com/quantcore/backtester/feed"
)

// ScriptedSignal is one entry in a MockStrategy's program: emit Signal on
// the bar matching At.
type ScriptedSignal struct {
	At     time.Time
	Signal core.Signal
}

// MockStrategy is a scriptable strategy.Strategy implementation that
// emits a fixed sequence of signals and records every on_bar/on_fill
// invocation it receives, for driving engine tests deterministically.
type MockStrategy struct {
	id      string
	symbols []string
	script  []ScriptedSignal
	feed    *feed.BarFeed
	pending []core.Signal

	BarsSeen  []time.Time
	FillsSeen []core.Fill
}

// NewMockStrategy builds a MockStrategy that fires script's entries as
// their At timestamp is reached, in script order.
func NewMockStrategy(id string, symbols []string, script []ScriptedSignal) *MockStrategy {
	return &MockStrategy{id: id, symbols: symbols, script: script}
}

// OnBar implements strategy.Strategy.
func (m *MockStrategy) OnBar(ts time.Time, bars feed.BarSet) {
	m.BarsSeen = append(m.BarsSeen, ts)
	for i := 0; i < len(m.script); i++ {
		if m.script[i].At.Equal(ts) {
			m.pending = append(m.pending, m.script[i].Signal)
		}
	}
}

// FlushSignals implements strategy.Strategy.
func (m *MockStrategy) FlushSignals() []core.Signal {
	out := m.pending
	m.pending = nil
	return out
}

// OnFill implements strategy.Strategy, recording every fill it observes.
func (m *MockStrategy) OnFill(fill core.Fill) {
	m.FillsSeen = append(m.FillsSeen, fill)
}

// AttachFeed implements strategy.Strategy.
func (m *MockStrategy) AttachFeed(f *feed.BarFeed) { m.feed = f }

// StrategyID implements strategy.Strategy.
func (m *MockStrategy) StrategyID() string { return m.id }

// Symbols implements strategy.Strategy.
func (m *MockStrategy) Symbols() []string { return m.symbols }
