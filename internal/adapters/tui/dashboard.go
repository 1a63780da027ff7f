package tui

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"tickdash/internal/core/domain"
)

const (
	frameInterval = 50 * time.Millisecond
	panelHeight   = 9
)

var seriesColors = []ui.Color{ui.ColorRed, ui.ColorGreen, ui.ColorYellow}

// Dashboard owns the terminal session and renders both aggregates. It moves
// Running -> ShuttingDown on the quit key or a fatal terminal error, and
// ShuttingDown -> Terminated once the terminal is released.
type Dashboard struct {
	market *domain.MarketState
	ui     *domain.UiState
	logger *slog.Logger

	frame       time.Duration
	releaseOnce sync.Once

	// Terminal session hooks, swappable in tests.
	initFn   func() error
	closeFn  func()
	eventsFn func() <-chan ui.Event
}

func NewDashboard(market *domain.MarketState, uiState *domain.UiState, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		market:   market,
		ui:       uiState,
		logger:   logger,
		frame:    frameInterval,
		initFn:   ui.Init,
		closeFn:  ui.Close,
		eventsFn: ui.PollEvents,
	}
}

// Run drives the render loop until the quit key is pressed or ctx is
// cancelled. The terminal is restored exactly once on every exit path.
func (d *Dashboard) Run(ctx context.Context) error {
	if err := d.initFn(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	defer d.release()

	events := d.eventsFn()
	ticker := time.NewTicker(d.frame)
	defer ticker.Stop()

	d.logger.Info("dashboard running", slog.Duration("frame", d.frame))

	for {
		select {
		case e := <-events:
			if e.Type == ui.KeyboardEvent && (e.ID == "q" || e.ID == "<C-c>") {
				d.logger.Info("quit key received, shutting down")
				return nil
			}
			if e.Type == ui.ResizeEvent {
				d.draw()
			}
		case <-ctx.Done():
			d.logger.Info("context cancelled, shutting down")
			return nil
		case <-ticker.C:
			d.draw()
		}
	}
}

// release restores the terminal. Best-effort and idempotent under repeated
// quit signals.
func (d *Dashboard) release() {
	d.releaseOnce.Do(func() {
		d.closeFn()
		d.logger.Info("terminal released")
	})
}

// draw snapshots each aggregate under its own shared lock, sequentially.
// Only per-aggregate internal consistency is needed for display, not
// cross-aggregate atomicity.
func (d *Dashboard) draw() {
	market := d.market.Snapshot()
	derived := d.ui.Snapshot()

	w, h := ui.TerminalDimensions()

	panel := widgets.NewParagraph()
	panel.Title = "Prices"
	panel.Text = panelText(market, derived, time.Now())
	panel.SetRect(0, 0, w, panelHeight)

	rawPlot := seriesPlot("Raw", rawSeries(market), widgets.MarkerDot)
	rawPlot.SetRect(0, panelHeight, w/2, h)

	smaPlot := seriesPlot("Moving Avg", derivedSeries(derived), widgets.MarkerBraille)
	smaPlot.SetRect(w/2, panelHeight, w, h)

	ui.Render(panel, rawPlot, smaPlot)
}

// seriesPlot builds one chart. termui plots scale from zero, so every series
// is shifted down by the lower bound and the upper bound becomes MaxVal;
// the real bounds are shown in the title.
func seriesPlot(title string, series [][]float64, marker widgets.PlotMarker) *widgets.Plot {
	lo, hi := chartBounds(series)

	p := widgets.NewPlot()
	p.Title = fmt.Sprintf("%s  [%.1f, %.1f]  x 0..%d", title, lo, hi, domain.HistoryLen)
	p.Data = shiftSeries(series, lo)
	p.MaxVal = hi - lo
	p.Marker = marker
	p.HorizontalScale = 1
	for i := range p.Data {
		p.LineColors = append(p.LineColors, seriesColors[i%len(seriesColors)])
	}

	return p
}

func panelText(market []domain.Instrument, derived []domain.DerivedInstrument, now time.Time) string {
	text := ""
	for _, inst := range market {
		text += fmt.Sprintf("raw %d    price %9.2f   updated %s ago\n",
			inst.ID, inst.Price, now.Sub(inst.LastUpdate).Round(time.Millisecond))
	}
	for _, d := range derived {
		text += fmt.Sprintf("sma %d    value %9.2f   updated %s ago\n",
			d.ID, *d.Value, now.Sub(d.LastUpdate).Round(time.Millisecond))
	}
	return text
}

func rawSeries(market []domain.Instrument) [][]float64 {
	series := make([][]float64, len(market))
	for i, inst := range market {
		series[i] = inst.History
	}
	return series
}

func derivedSeries(derived []domain.DerivedInstrument) [][]float64 {
	series := make([][]float64, len(derived))
	for i, d := range derived {
		series[i] = d.History
	}
	return series
}

// chartBounds returns [min-1, max+1] over every visible point. A chart with
// no points gets [-1, 1].
func chartBounds(series [][]float64) (float64, float64) {
	seen := false
	var min, max float64
	for _, s := range series {
		for _, v := range s {
			if !seen {
				min, max = v, v
				seen = true
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	if !seen {
		return -1, 1
	}
	return min - 1, max + 1
}

// shiftSeries rebases every series onto the lower bound, dropping series too
// short to draw a line.
func shiftSeries(series [][]float64, lo float64) [][]float64 {
	out := make([][]float64, 0, len(series))
	for _, s := range series {
		if len(s) < 2 {
			continue
		}
		shifted := make([]float64, len(s))
		for i, v := range s {
			shifted[i] = v - lo
		}
		out = append(out, shifted)
	}
	return out
}
