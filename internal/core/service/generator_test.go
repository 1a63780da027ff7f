package service

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"tickdash/internal/core/domain"
	"tickdash/internal/pkg/workerpool"
)

type recordingCache struct {
	mu     sync.Mutex
	prices map[int]float64
	calls  int
}

func (c *recordingCache) SetPrice(_ context.Context, id int, price float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prices == nil {
		c.prices = make(map[int]float64)
	}
	c.prices[id] = price
	c.calls++
	return nil
}

type recordingLog struct {
	mu      sync.Mutex
	appends int
}

func (l *recordingLog) Append(int, float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appends++
	return nil
}

func (l *recordingLog) Drain(func(string)) error { return nil }

func newTestGenerator(market *domain.MarketState, cache *recordingCache, tickLog *recordingLog) (*Generator, *workerpool.Dispatcher) {
	// Worker cap above the instrument count so nothing is dropped under test.
	dispatcher := workerpool.NewDispatcher(4)
	flusher := NewFlusher(tickLog, &fakeStore{}, slog.Default())
	rng := rand.New(rand.NewSource(1))
	return NewGenerator(market, cache, tickLog, dispatcher, flusher, rng, slog.Default()), dispatcher
}

func TestTickAppliesBoundedDeltas(t *testing.T) {
	market := domain.NewMarketState(3, 100.0)
	gen, dispatcher := newTestGenerator(market, &recordingCache{}, &recordingLog{})
	defer dispatcher.Stop()

	for i := 0; i < 100; i++ {
		before := market.Snapshot()
		gen.tick()
		after := market.Snapshot()

		for j := range after {
			delta := after[j].Price - before[j].Price
			if math.Abs(delta) > maxDelta {
				t.Fatalf("tick %d instrument %d: delta %v outside [-%v, %v]", i, j, delta, maxDelta, maxDelta)
			}
			if last := after[j].History[len(after[j].History)-1]; last != after[j].Price {
				t.Fatalf("instrument %d: history tail %v != price %v", j, last, after[j].Price)
			}
		}
	}
}

func TestTickFansOutToBothSinks(t *testing.T) {
	market := domain.NewMarketState(3, 100.0)
	cache := &recordingCache{}
	tickLog := &recordingLog{}
	gen, dispatcher := newTestGenerator(market, cache, tickLog)

	gen.tick()
	dispatcher.Stop() // waits for dispatched sink work

	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.calls != market.Len() {
		t.Fatalf("cache received %d writes, want %d", cache.calls, market.Len())
	}

	snap := market.Snapshot()
	for _, inst := range snap {
		if cached, ok := cache.prices[inst.ID]; !ok || cached != inst.Price {
			t.Fatalf("instrument %d: cached price %v != swept price %v", inst.ID, cached, inst.Price)
		}
	}

	tickLog.mu.Lock()
	defer tickLog.mu.Unlock()
	if tickLog.appends != market.Len() {
		t.Fatalf("tick log received %d appends, want %d", tickLog.appends, market.Len())
	}
}

func TestRunCoSchedulesFlushes(t *testing.T) {
	market := domain.NewMarketState(1, 100.0)
	store := &fakeStore{}
	tickLog := &fakeLog{content: "0,5.0\n"}
	flusher := NewFlusher(tickLog, store, slog.Default())
	dispatcher := workerpool.NewDispatcher(2)
	defer dispatcher.Stop()

	gen := NewGenerator(market, &recordingCache{}, &recordingLog{}, dispatcher, flusher,
		rand.New(rand.NewSource(1)), slog.Default())
	gen.interval = 5 * time.Millisecond
	gen.flushEvery = 20 * time.Millisecond

	gen.Start()
	time.Sleep(200 * time.Millisecond)
	gen.Stop()

	// Timing is best-effort; assert the flush fired, not how often.
	if !tickLog.truncated {
		t.Fatal("co-scheduled flush never fired")
	}
	if len(store.inserts) == 0 || store.inserts[0] != (insertedTick{0, 5.0}) {
		t.Fatalf("flushed inserts %+v, want {0 5} first", store.inserts)
	}
}
