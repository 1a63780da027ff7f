package domain

import "time"

const (
	// HistoryLen bounds every per-instrument price history.
	HistoryLen = 50
	// MovingAvgWindow is the number of trailing raw prices smoothed together.
	MovingAvgWindow = 5
	// DefaultInstruments is the number of tracked symbols at startup.
	DefaultInstruments = 3
	// SeedPrice is the starting price of every instrument.
	SeedPrice = 100.0
)

// Instrument is one tracked synthetic symbol. The price is unconstrained:
// it may drift unboundedly and go negative.
type Instrument struct {
	ID         int
	Price      float64
	LastUpdate time.Time
	History    []float64
}

// Apply adds delta to the current price and records the result in the
// bounded history.
func (in *Instrument) Apply(delta float64, now time.Time) {
	in.Price += delta
	in.LastUpdate = now
	in.History = appendBounded(in.History, in.Price)
}

// DerivedInstrument carries the smoothed series for one instrument. Value is
// replaced wholesale on every recompute, never mutated in place, so prior
// holders keep a valid stale copy.
type DerivedInstrument struct {
	ID         int
	Value      *float64
	LastUpdate time.Time
	History    []float64
}

// SetValue replaces the smoothed value and records it in the bounded history.
func (d *DerivedInstrument) SetValue(v float64, now time.Time) {
	d.Value = &v
	d.LastUpdate = now
	d.History = appendBounded(d.History, v)
}

// TickRecord is one generator emission destined for the best-effort sinks.
type TickRecord struct {
	ID    int
	Price float64
}

func appendBounded(history []float64, v float64) []float64 {
	history = append(history, v)
	if len(history) > HistoryLen {
		history = history[1:]
	}
	return history
}
