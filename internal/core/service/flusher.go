package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"tickdash/internal/core/port"
)

// Flusher drains the append-only tick log into the persistence store. Writes
// are sequential and awaited; there is no ordering guarantee beyond file
// order.
type Flusher struct {
	tickLog port.TickLog
	store   port.TickStore
	logger  *slog.Logger
}

func NewFlusher(tickLog port.TickLog, store port.TickStore, logger *slog.Logger) *Flusher {
	return &Flusher{
		tickLog: tickLog,
		store:   store,
		logger:  logger,
	}
}

// Flush drains the log in one atomic read-persist-truncate pass, so ticks
// appended concurrently by dispatcher workers are never truncated away
// unpersisted. Malformed lines and per-record store failures are logged and
// skipped; only read and truncate failures abort the flush.
func (f *Flusher) Flush(ctx context.Context) error {
	flushed := false

	err := f.tickLog.Drain(func(content string) {
		flushed = true

		lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
		f.logger.Info("flushing tick log", slog.Int("lines", len(lines)))

		for _, line := range lines {
			id, price, err := parseTickLine(line)
			if err != nil {
				f.logger.Error("skipping malformed tick line",
					slog.String("line", line),
					slog.Any("error", err))
				continue
			}

			if err := f.store.InsertTick(ctx, id, price); err != nil {
				f.logger.Error("failed to persist tick",
					slog.Int("instrument", id),
					slog.Any("error", err))
			}
		}
	})
	if err != nil {
		return fmt.Errorf("drain tick log: %w", err)
	}

	if flushed {
		f.logger.Info("tick log flushed")
	}
	return nil
}

func parseTickLine(line string) (int, float64, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want 2 fields, got %d", len(parts))
	}

	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse instrument id %q: %w", parts[0], err)
	}

	price, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse price %q: %w", parts[1], err)
	}

	return id, price, nil
}
