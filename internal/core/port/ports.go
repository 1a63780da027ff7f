package port

import "context"

// CacheSink receives a best-effort copy of every tick.
type CacheSink interface {
	SetPrice(ctx context.Context, id int, price float64) error
}

// TickStore persists flushed tick records; the store stamps the insert time.
type TickStore interface {
	InsertTick(ctx context.Context, id int, price float64) error
}

// TickLog is the durable append-only log sitting between the generator and
// the store. Lines are `<id>,<price>`.
type TickLog interface {
	Append(id int, price float64) error
	// Drain hands the whole log to process and truncates it afterwards,
	// atomically with respect to concurrent appends: a record appended
	// while a drain is in progress lands after the truncate and survives
	// to the next drain. An empty log is not processed. Read and truncate
	// failures are returned; process itself reports nothing.
	Drain(process func(content string)) error
}
