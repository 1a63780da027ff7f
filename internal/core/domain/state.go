package domain

import (
	"sync"
	"time"
)

// MarketState is the ordered collection of raw instruments, one per tracked
// symbol, guarded by a single reader-writer lock. It is created once at
// startup and fixed in size for the process lifetime.
type MarketState struct {
	mu          sync.RWMutex
	instruments []Instrument
}

// NewMarketState seeds n instruments at the given price with a full history
// of seed values.
func NewMarketState(n int, seed float64) *MarketState {
	instruments := make([]Instrument, n)
	now := time.Now()
	for i := range instruments {
		history := make([]float64, HistoryLen)
		for j := range history {
			history[j] = seed
		}
		instruments[i] = Instrument{
			ID:         i,
			Price:      seed,
			LastUpdate: now,
			History:    history,
		}
	}
	return &MarketState{instruments: instruments}
}

func (s *MarketState) Len() int {
	return len(s.instruments)
}

// Sweep runs update over every instrument under one exclusive lock, so a
// whole pass is observed atomically by readers.
func (s *MarketState) Sweep(update func(i int, inst *Instrument)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.instruments {
		update(i, &s.instruments[i])
	}
}

// View runs read under the shared lock. The slice must not be retained or
// mutated past the callback.
func (s *MarketState) View(read func(instruments []Instrument)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	read(s.instruments)
}

// Snapshot returns a self-contained deep copy taken under the shared lock.
func (s *MarketState) Snapshot() []Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyInstruments(s.instruments)
}

// UiState is the ordered collection of derived instruments, written only by
// the aggregator. Where both aggregates are locked together, MarketState is
// always taken first.
type UiState struct {
	mu          sync.RWMutex
	instruments []DerivedInstrument
}

// NewUiState seeds n derived instruments at the given value with empty
// histories.
func NewUiState(n int, seed float64) *UiState {
	instruments := make([]DerivedInstrument, n)
	now := time.Now()
	for i := range instruments {
		v := seed
		instruments[i] = DerivedInstrument{
			ID:         i,
			Value:      &v,
			LastUpdate: now,
		}
	}
	return &UiState{instruments: instruments}
}

func (s *UiState) Len() int {
	return len(s.instruments)
}

// Update runs update over every derived instrument under the exclusive lock.
func (s *UiState) Update(update func(i int, d *DerivedInstrument)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.instruments {
		update(i, &s.instruments[i])
	}
}

// Snapshot returns a self-contained deep copy taken under the shared lock.
func (s *UiState) Snapshot() []DerivedInstrument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DerivedInstrument, len(s.instruments))
	for i, d := range s.instruments {
		cp := d
		cp.History = append([]float64(nil), d.History...)
		out[i] = cp
	}
	return out
}

func copyInstruments(instruments []Instrument) []Instrument {
	out := make([]Instrument, len(instruments))
	for i, inst := range instruments {
		cp := inst
		cp.History = append([]float64(nil), inst.History...)
		out[i] = cp
	}
	return out
}
