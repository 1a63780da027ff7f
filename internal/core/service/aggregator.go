package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tickdash/internal/core/domain"
)

const aggregateInterval = 300 * time.Millisecond

// Aggregator derives the smoothed series from MarketState into UiState on
// its own period. When both aggregates are locked, the order is always
// MarketState then UiState.
type Aggregator struct {
	market *domain.MarketState
	ui     *domain.UiState
	logger *slog.Logger

	interval time.Duration

	serviceCtx    context.Context
	serviceCancel context.CancelFunc
	wg            sync.WaitGroup
}

func NewAggregator(market *domain.MarketState, ui *domain.UiState, logger *slog.Logger) *Aggregator {
	serviceCtx, serviceCancel := context.WithCancel(context.Background())

	return &Aggregator{
		market:        market,
		ui:            ui,
		logger:        logger,
		interval:      aggregateInterval,
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}
}

func (a *Aggregator) Start() {
	a.logger.Info("starting aggregator", slog.Duration("interval", a.interval))

	a.wg.Add(1)
	go a.run()
}

func (a *Aggregator) Stop() {
	a.serviceCancel()
	a.wg.Wait()
}

func (a *Aggregator) run() {
	defer a.wg.Done()

	for {
		a.recompute()

		select {
		case <-a.serviceCtx.Done():
			return
		case <-time.After(a.interval):
		}
	}
}

// recompute holds the shared MarketState lock and the exclusive UiState lock
// together. Generator sweeps are serialized under their own exclusive lock,
// so the raw histories read here form a consistent cross-instrument view.
func (a *Aggregator) recompute() {
	now := time.Now()

	a.market.View(func(instruments []domain.Instrument) {
		a.ui.Update(func(i int, d *domain.DerivedInstrument) {
			avg := movingAverage(instruments[i].History, domain.MovingAvgWindow)
			d.SetValue(avg, now)
		})
	})
}

// movingAverage returns the arithmetic mean of the last min(window, len)
// entries.
func movingAverage(history []float64, window int) float64 {
	if len(history) == 0 {
		return 0
	}

	start := len(history) - window
	if start < 0 {
		start = 0
	}

	sum := 0.0
	for _, v := range history[start:] {
		sum += v
	}
	return sum / float64(len(history)-start)
}
