package redis

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*PriceCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewPriceCache(rdb, slog.Default()), mr
}

func TestSetPrice(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	if err := cache.SetPrice(ctx, 0, 101.5); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}

	got, err := mr.Get("stock:0")
	if err != nil {
		t.Fatalf("failed to read key back: %v", err)
	}
	if got != "101.5" {
		t.Fatalf("cached value %q, want %q", got, "101.5")
	}
}

func TestSetPriceOverwrites(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	if err := cache.SetPrice(ctx, 1, 100.0); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}
	if err := cache.SetPrice(ctx, 1, -3.25); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}

	price, err := cache.LatestPrice(ctx, 1)
	if err != nil {
		t.Fatalf("LatestPrice failed: %v", err)
	}
	if price != -3.25 {
		t.Fatalf("latest price %v, want -3.25", price)
	}
}

func TestLatestPriceMissingKey(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	if _, err := cache.LatestPrice(ctx, 42); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestSetPriceFailureSurfacesError(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	mr.Close()

	if err := cache.SetPrice(ctx, 0, 100.0); err == nil {
		t.Fatal("expected error with cache down")
	}
}

func TestPing(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	if got := cache.Ping(ctx); got != "up" {
		t.Fatalf("Ping = %q, want up", got)
	}

	mr.Close()
	if got := cache.Ping(ctx); got == "up" {
		t.Fatal("Ping reported up with server closed")
	}
}
