package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"tickdash/internal/core/port"
)

var _ port.TickStore = (*TickRepository)(nil)

type TickRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewTickRepository(db *pgxpool.Pool, logger *slog.Logger) *TickRepository {
	return &TickRepository{
		db:     db,
		logger: logger,
	}
}

// InsertTick persists one flushed record. The insert timestamp is stamped by
// the database.
func (r *TickRepository) InsertTick(ctx context.Context, id int, price float64) error {
	query := `
		INSERT INTO stock_data (stock_id, price, ts)
		VALUES ($1, $2, NOW())
	`

	_, err := r.db.Exec(ctx, query, id, price)
	if err != nil {
		r.logger.Error("failed to insert tick", slog.Any("error", err))
		return err
	}

	return nil
}

// Ping checks the connection to the database.
func (r *TickRepository) Ping(ctx context.Context) string {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Sprintf("down: %v", err)
	}
	return "up"
}
