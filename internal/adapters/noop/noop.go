// Package noop provides sink implementations that discard everything, so the
// dashboard can run without Redis or Postgres.
package noop

import (
	"context"

	"tickdash/internal/core/port"
)

var (
	_ port.CacheSink = (*Cache)(nil)
	_ port.TickStore = (*Store)(nil)
	_ port.TickLog   = (*Log)(nil)
)

type Cache struct{}

func (Cache) SetPrice(context.Context, int, float64) error { return nil }

type Store struct{}

func (Store) InsertTick(context.Context, int, float64) error { return nil }

type Log struct{}

func (Log) Append(int, float64) error { return nil }

func (Log) Drain(func(string)) error { return nil }
