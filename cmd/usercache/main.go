package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TemirB/usercache/internal/application/handler"
	"github.com/TemirB/usercache/internal/application/service"
	"github.com/TemirB/usercache/internal/config"
	"github.com/TemirB/usercache/internal/database"
	"github.com/TemirB/usercache/internal/domain"
	"github.com/TemirB/usercache/internal/httpapi"
	"github.com/TemirB/usercache/internal/kafka"
	"github.com/TemirB/usercache/internal/observability"
	"github.com/TemirB/usercache/internal/pkg/breaker"
	"github.com/TemirB/usercache/internal/pkg/logger"
	"github.com/TemirB/usercache/internal/storage/memory"
	"github.com/TemirB/usercache/internal/storage/redisdir"
	"github.com/TemirB/usercache/internal/usercache"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("usercache stopped with error", zap.Error(err))
	}
	zl.Info("usercache stopped")
}

func run(ctx context.Context, cfg config.Config, zl *zap.Logger) error {
	repo, closeRepo, err := openDirectory(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer closeRepo()

	metrics := observability.NewInmem(256)

	guard := usercache.NewGuard(repo, breaker.New(cfg.Breaker), cfg.Retry, zl.Named("directory"))
	users, err := usercache.New(guard,
		usercache.WithCapacity(cfg.Cache.Capacity),
		usercache.WithShards(cfg.Cache.Shards),
		usercache.WithEvictHook(func(uint32, string) { metrics.IncEviction() }),
	)
	if err != nil {
		return err
	}
	zl.Info("user cache ready",
		zap.String("source", cfg.Source),
		zap.Int("capacity", users.Cap()),
		zap.Int("shards", cfg.Cache.Shards),
	)

	if cfg.Cache.Warm {
		warm(ctx, repo, users, cfg.Cache.Capacity, zl)
	}

	svc := service.NewService(users, repo, zl, metrics)
	api := httpapi.New(svc, zl, metrics)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return api.ListenAndServe(gctx, cfg.HTTPAddr) })

	if cfg.KafkaEnabled() {
		if err := kafka.EnsureTopic(ctx, cfg.Kafka, 3, 1, zl); err != nil {
			zl.Warn("could not ensure kafka topic", zap.Error(err))
		}
		reader := kafka.NewReader(cfg.Kafka)
		defer func() { _ = reader.Close() }()

		h := handler.NewHandler(svc, breaker.New(cfg.Breaker), cfg.Retry, zl)
		consumer := kafka.NewConsumer(h, reader, cfg.Kafka.Workers, zl,
			kafka.WithMetrics(metrics),
			kafka.WithSkip(handler.IsPoison),
		)
		g.Go(func() error {
			consumer.Start(gctx)
			return nil
		})
	} else {
		zl.Info("KAFKA_BROKERS is empty, event ingestion disabled")
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openDirectory(ctx context.Context, cfg config.Config, zl *zap.Logger) (domain.UserRepository, func(), error) {
	switch cfg.Source {
	case config.SourcePostgres:
		pool, err := database.Connect(ctx, cfg.DSN(), zl)
		if err != nil {
			return nil, nil, err
		}
		return database.New(pool, cfg.Pg), pool.Close, nil

	case config.SourceRedis:
		client, err := redisdir.Connect(ctx, cfg.Redis.URL, 5, time.Second)
		if err != nil {
			return nil, nil, err
		}
		return redisdir.New(client, cfg.Redis.UsersKey), func() { _ = client.Close() }, nil

	default:
		zl.Warn("using the in-memory directory, data is lost on restart")
		return memory.NewTable(map[uint32]string{
			1:  "Frank Sinatra",
			5:  "Darth Vader",
			10: "John Lennon",
		}), func() {}, nil
	}
}

func warm(ctx context.Context, repo domain.UserRepository, users *usercache.UserCache, limit int, zl *zap.Logger) {
	lister, ok := repo.(domain.RecentLister)
	if !ok || limit == 0 {
		return
	}

	wctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	ids, err := lister.RecentUserIDs(wctx, limit)
	if err != nil {
		zl.Warn("cache warm-up skipped", zap.Error(err))
		return
	}
	start := time.Now()
	loaded := users.Warm(wctx, ids)
	zl.Info("cache warmed",
		zap.Int("requested", len(ids)),
		zap.Int("loaded", loaded),
		zap.Duration("elapsed", time.Since(start)),
	)
}
