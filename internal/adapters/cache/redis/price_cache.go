package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"tickdash/internal/core/port"
)

var _ port.CacheSink = (*PriceCache)(nil)

type PriceCache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewPriceCache(rdb *redis.Client, logger *slog.Logger) *PriceCache {
	return &PriceCache{
		rdb:    rdb,
		logger: logger,
	}
}

func key(id int) string {
	return fmt.Sprintf("stock:%d", id)
}

// SetPrice stores the latest price for an instrument, overwriting any prior
// value.
func (c *PriceCache) SetPrice(ctx context.Context, id int, price float64) error {
	if err := c.rdb.Set(ctx, key(id), price, 0).Err(); err != nil {
		c.logger.Error("failed to set price in redis cache",
			slog.Int("instrument", id),
			slog.Any("error", err))
		return err
	}

	return nil
}

// LatestPrice retrieves the most recent cached price for an instrument.
func (c *PriceCache) LatestPrice(ctx context.Context, id int) (float64, error) {
	res, err := c.rdb.Get(ctx, key(id)).Result()
	if err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(res, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse cached price %q: %w", res, err)
	}

	return price, nil
}

// Ping checks the connection to the Redis server.
func (c *PriceCache) Ping(ctx context.Context) string {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Sprintf("down: %v", err)
	}
	return "up"
}
