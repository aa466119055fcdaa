// Package main provides the loot daemon: it listens for host events on
// Redis and answers them with coin, loot, and treasure piles.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/config"
	"github.com/cory-johannsen/lootable/internal/engine"
	"github.com/cory-johannsen/lootable/internal/events"
	"github.com/cory-johannsen/lootable/internal/game/dice"
	"github.com/cory-johannsen/lootable/internal/game/pocket"
	"github.com/cory-johannsen/lootable/internal/game/randomloot"
	"github.com/cory-johannsen/lootable/internal/game/treasure"
	"github.com/cory-johannsen/lootable/internal/observability"
	"github.com/cory-johannsen/lootable/internal/server"
	"github.com/cory-johannsen/lootable/internal/storage/postgres"
	"github.com/cory-johannsen/lootable/internal/storage/session"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the configuration")
	flag.Parse()

	// A missing dotenv file is normal outside development.
	_ = godotenv.Load(*envFile)

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	src := dice.NewCryptoSource()
	lifecycle := server.NewLifecycle(logger)

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	lifecycle.OnShutdown("postgres", pool.Close)
	if err := pool.Health(ctx, cfg.Database.HealthTimeout); err != nil {
		logger.Fatal("database health check", zap.Error(err))
	}
	lifecycle.Add("postgres-health", server.ServiceFunc(func(ctx context.Context) error {
		return pool.Watch(ctx, cfg.Database.HealthInterval, cfg.Database.HealthTimeout, logger)
	}))
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	actors := postgres.NewActorRepository(pool.DB())
	journals := postgres.NewJournalRepository(pool.DB())
	items := postgres.NewItemRepository(pool.DB())

	registry, err := engine.LoadItems(cfg.Catalog, logger)
	if err != nil {
		logger.Fatal("loading world items", zap.Error(err))
	}
	if n, err := items.Upsert(ctx, registry.All()); err != nil {
		logger.Fatal("storing world items", zap.Error(err))
	} else if n > 0 {
		logger.Info("world items stored", zap.Int("count", n))
	}

	catalogs, err := engine.Catalogs(cfg.Catalog, logger)
	if err != nil {
		logger.Fatal("configuring catalogs", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("connecting to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	lifecycle.OnShutdown("redis", func() { _ = rdb.Close() })

	eng, err := engine.Build(cfg.Scripting, items, catalogs, src, logger)
	if err != nil {
		logger.Fatal("building draw engine", zap.Error(err))
	}
	lifecycle.OnShutdown("scripts", eng.Close)

	lootSettings, err := cfg.RandomLoot.Settings()
	if err != nil {
		logger.Fatal("loading loot rules", zap.Error(err))
	}
	drafts, err := session.NewStore[randomloot.Draft](&session.Config{Client: rdb, Prefix: "draft:", TTL: cfg.Redis.SessionTTL})
	if err != nil {
		logger.Fatal("creating draft store", zap.Error(err))
	}
	piles, err := session.NewStore[treasure.Snapshot](&session.Config{Client: rdb, Prefix: "treasure:", TTL: cfg.Redis.SessionTTL})
	if err != nil {
		logger.Fatal("creating treasure store", zap.Error(err))
	}

	chat := events.NewChatPublisher(rdb, cfg.Redis.ChatChannel)
	pocketSvc := pocket.NewService(cfg.PocketChange.Settings, actors, chat, src, logger)
	lootSvc := randomloot.NewService(func() randomloot.Settings { return lootSettings },
		eng.Processor, actors, chat, drafts, logger)
	composer := treasure.NewComposer(cfg.TreasurePile.Settings, eng.Processor,
		treasure.Host{Actors: actors, Ledger: actors, Inventory: actors, Journals: journals}, src, logger)
	desk := treasure.NewDesk(composer, piles, eng.Sources)

	dispatcher := events.NewDispatcher(pocketSvc, lootSvc, logger).
		WithReplies(rdb).
		WithDrafts(lootSvc, rdb).
		WithTreasure(desk, rdb)
	lifecycle.Add("events", events.NewSubscriber(rdb, cfg.Redis.EventsChannel, dispatcher, logger))

	logger.Info("loot daemon initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("events_channel", cfg.Redis.EventsChannel),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("loot daemon stopped", zap.Error(err))
	}
}
