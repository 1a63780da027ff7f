package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"tickdash/config"
	"tickdash/internal/adapters/cache/redis"
	"tickdash/internal/adapters/noop"
	"tickdash/internal/adapters/repository/postgres"
	"tickdash/internal/adapters/ticklog"
	"tickdash/internal/adapters/tui"
	"tickdash/internal/core/domain"
	"tickdash/internal/core/port"
	"tickdash/internal/core/service"
	"tickdash/internal/pkg/workerpool"
	pkgconfig "tickdash/pkg/config"
)

func init() {
	initialLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(initialLogger)
}

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	liveSinks := cfg.Pipeline.Sinks == "on"

	opts := []pkgconfig.Option{
		pkgconfig.WithLogger(cfg.Logging.LogLvl, cfg.Logging.File),
	}
	if liveSinks {
		opts = append(opts,
			pkgconfig.WithPostgres(
				cfg.Postgres.User,
				cfg.Postgres.Pass,
				cfg.Postgres.Host,
				cfg.Postgres.Port,
				cfg.Postgres.DBName,
			),
			pkgconfig.WithRedis(cfg.Redis.Addr, cfg.Redis.DB),
		)
	}

	deps, err := pkgconfig.NewDependencies(ctx, opts...)
	if err != nil {
		slog.Error("failed to load dependencies", slog.Any("error", err))
		os.Exit(1)
	}
	defer deps.Close()
	logger := deps.Logger

	var (
		cacheSink port.CacheSink = noop.Cache{}
		store     port.TickStore = noop.Store{}
		tickLog   port.TickLog   = noop.Log{}
	)
	if liveSinks {
		priceCache := redis.NewPriceCache(deps.Redis, logger)
		tickRepo := postgres.NewTickRepository(deps.Postgres, logger)
		logger.Info("sink health",
			slog.String("postgres", tickRepo.Ping(ctx)),
			slog.String("redis", priceCache.Ping(ctx)))

		cacheSink = priceCache
		store = tickRepo
		tickLog = ticklog.NewFileLog(cfg.Pipeline.TickLogPath)
	}

	market := domain.NewMarketState(domain.DefaultInstruments, domain.SeedPrice)
	uiState := domain.NewUiState(domain.DefaultInstruments, domain.SeedPrice)

	dispatcher := workerpool.NewDispatcher(4)
	flusher := service.NewFlusher(tickLog, store, logger)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	generator := service.NewGenerator(market, cacheSink, tickLog, dispatcher, flusher, rng, logger)
	aggregator := service.NewAggregator(market, uiState, logger)

	generator.Start()
	aggregator.Start()

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	dashboard := tui.NewDashboard(market, uiState, logger)
	err = dashboard.Run(runCtx)

	generator.Stop()
	aggregator.Stop()
	dispatcher.Stop()

	if err != nil {
		slog.Error("dashboard terminated", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("tickdash exited")
}
