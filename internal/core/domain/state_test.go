package domain

import (
	"sync"
	"testing"
	"time"
)

func TestNewMarketStateSeedsFullHistory(t *testing.T) {
	s := NewMarketState(3, 100.0)

	if s.Len() != 3 {
		t.Fatalf("wrong instrument count: %d != 3", s.Len())
	}

	for _, inst := range s.Snapshot() {
		if inst.Price != 100.0 {
			t.Fatalf("instrument %d: seed price %v != 100.0", inst.ID, inst.Price)
		}
		if len(inst.History) != HistoryLen {
			t.Fatalf("instrument %d: seeded history length %d != %d", inst.ID, len(inst.History), HistoryLen)
		}
		for _, v := range inst.History {
			if v != 100.0 {
				t.Fatalf("instrument %d: seeded history entry %v != 100.0", inst.ID, v)
			}
		}
	}
}

func TestNewUiStateStartsWithEmptyHistory(t *testing.T) {
	s := NewUiState(3, 100.0)

	for _, d := range s.Snapshot() {
		if *d.Value != 100.0 {
			t.Fatalf("derived %d: seed value %v != 100.0", d.ID, *d.Value)
		}
		if len(d.History) != 0 {
			t.Fatalf("derived %d: history should start empty, got %d entries", d.ID, len(d.History))
		}
	}
}

func TestHistoryNeverExceedsCapacity(t *testing.T) {
	inst := Instrument{ID: 0, Price: 100.0}

	for i := 0; i < HistoryLen*3; i++ {
		inst.Apply(1.0, time.Now())

		if len(inst.History) > HistoryLen {
			t.Fatalf("history grew to %d after %d updates", len(inst.History), i+1)
		}
		if last := inst.History[len(inst.History)-1]; last != inst.Price {
			t.Fatalf("latest history entry %v != current price %v", last, inst.Price)
		}
	}

	if len(inst.History) != HistoryLen {
		t.Fatalf("history length %d != %d after overflow", len(inst.History), HistoryLen)
	}
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	inst := Instrument{ID: 0, Price: 0}

	for i := 0; i < HistoryLen+1; i++ {
		inst.Apply(1.0, time.Now())
	}

	// First entry (price 1.0) must be gone, second (2.0) now oldest.
	if inst.History[0] != 2.0 {
		t.Fatalf("oldest entry %v != 2.0 after eviction", inst.History[0])
	}
}

func TestDerivedValueReplacedWholesale(t *testing.T) {
	d := DerivedInstrument{ID: 0}
	d.SetValue(100.0, time.Now())

	stale := d.Value
	d.SetValue(105.0, time.Now())

	if d.Value == stale {
		t.Fatal("SetValue mutated the value in place instead of replacing it")
	}
	if *stale != 100.0 {
		t.Fatalf("stale holder's copy changed: %v != 100.0", *stale)
	}
	if *d.Value != 105.0 {
		t.Fatalf("new value %v != 105.0", *d.Value)
	}
}

// Snapshots taken around concurrent sweeps must never observe a partially
// updated instrument: every sweep stamps all instruments with one marker
// price, so a consistent snapshot is uniform across instruments and each
// price matches its history tail.
func TestSnapshotNeverObservesPartialSweep(t *testing.T) {
	s := NewMarketState(3, 0)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		marker := 0.0
		for {
			select {
			case <-done:
				return
			default:
			}
			marker++
			s.Sweep(func(_ int, inst *Instrument) {
				inst.Price = marker
				inst.LastUpdate = time.Now()
				inst.History = appendBounded(inst.History, marker)
			})
		}
	}()

	for i := 0; i < 2000; i++ {
		snap := s.Snapshot()
		first := snap[0].Price
		for _, inst := range snap {
			if inst.Price != first {
				t.Fatalf("torn snapshot: instrument %d at %v, instrument 0 at %v", inst.ID, inst.Price, first)
			}
			if last := inst.History[len(inst.History)-1]; last != inst.Price {
				t.Fatalf("instrument %d: history tail %v != price %v", inst.ID, last, inst.Price)
			}
		}
	}

	close(done)
	wg.Wait()
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s := NewMarketState(1, 100.0)

	snap := s.Snapshot()
	snap[0].History[0] = -999

	if s.Snapshot()[0].History[0] == -999 {
		t.Fatal("snapshot shares history backing array with live state")
	}
}
