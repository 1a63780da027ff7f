package service

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"tickdash/internal/core/domain"
	"tickdash/internal/core/port"
	"tickdash/internal/pkg/workerpool"
)

const (
	tickInterval  = 100 * time.Millisecond
	flushInterval = time.Second
	maxDelta      = 2.0
)

// Generator mutates MarketState on a fixed period and fans ticks out to the
// best-effort sinks. The flusher is co-scheduled inside the same loop, gated
// by elapsed time rather than a dedicated timer.
type Generator struct {
	market     *domain.MarketState
	cache      port.CacheSink
	tickLog    port.TickLog
	dispatcher *workerpool.Dispatcher
	flusher    *Flusher
	rng        *rand.Rand
	logger     *slog.Logger

	interval   time.Duration
	flushEvery time.Duration

	serviceCtx    context.Context
	serviceCancel context.CancelFunc
	wg            sync.WaitGroup
}

func NewGenerator(
	market *domain.MarketState,
	cache port.CacheSink,
	tickLog port.TickLog,
	dispatcher *workerpool.Dispatcher,
	flusher *Flusher,
	rng *rand.Rand,
	logger *slog.Logger,
) *Generator {
	serviceCtx, serviceCancel := context.WithCancel(context.Background())

	return &Generator{
		market:        market,
		cache:         cache,
		tickLog:       tickLog,
		dispatcher:    dispatcher,
		flusher:       flusher,
		rng:           rng,
		logger:        logger,
		interval:      tickInterval,
		flushEvery:    flushInterval,
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}
}

func (g *Generator) Start() {
	g.logger.Info("starting generator",
		slog.Int("instruments", g.market.Len()),
		slog.Duration("interval", g.interval))

	g.wg.Add(1)
	go g.run()
}

func (g *Generator) Stop() {
	g.serviceCancel()
	g.wg.Wait()
}

// run is a plain sleep loop: no drift correction, no catch-up on overrun.
func (g *Generator) run() {
	defer g.wg.Done()

	lastFlush := time.Now()
	for {
		g.tick()

		if time.Since(lastFlush) >= g.flushEvery {
			if err := g.flusher.Flush(g.serviceCtx); err != nil {
				g.logger.Error("flush failed", slog.Any("error", err))
			}
			lastFlush = time.Now()
		}

		select {
		case <-g.serviceCtx.Done():
			return
		case <-time.After(g.interval):
		}
	}
}

// tick sweeps every instrument under one exclusive lock, then hands the
// collected records to the dispatcher so sink latency never extends the lock
// hold time.
func (g *Generator) tick() {
	records := make([]domain.TickRecord, 0, g.market.Len())
	now := time.Now()

	g.market.Sweep(func(_ int, inst *domain.Instrument) {
		delta := g.rng.Float64()*2*maxDelta - maxDelta
		inst.Apply(delta, now)
		records = append(records, domain.TickRecord{ID: inst.ID, Price: inst.Price})
	})

	for _, rec := range records {
		rec := rec // per-iteration copy; module targets Go 1.22+ loop semantics but builds under 1.21
		g.dispatcher.Submit(func() {
			g.emit(rec)
		})
	}
}

// emit pushes one record to both sinks. Failures are logged, never retried,
// and never surface beyond the log line. No cancellation reaches in-flight
// sink work; process exit abandons it.
func (g *Generator) emit(rec domain.TickRecord) {
	if err := g.tickLog.Append(rec.ID, rec.Price); err != nil {
		g.logger.Error("tick log append failed",
			slog.Int("instrument", rec.ID),
			slog.Any("error", err))
	}

	if err := g.cache.SetPrice(context.Background(), rec.ID, rec.Price); err != nil {
		g.logger.Error("cache set failed",
			slog.Int("instrument", rec.ID),
			slog.Any("error", err))
	}
}
