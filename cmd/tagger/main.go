// Command tagger consumes product-created events and writes generated tags back
// through the catalog so listing caches are invalidated.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artify-catalog/internal/cache"
	"artify-catalog/internal/config"
	"artify-catalog/internal/database"
	"artify-catalog/internal/enrichment"
	"artify-catalog/internal/events"
	"artify-catalog/internal/logger"
	"artify-catalog/internal/repository"
	"artify-catalog/internal/service"
	"artify-catalog/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	base, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer base.Sync()
	log := logger.Component(base, "tagger")

	if d := cfg.Events.Driver; d != "" && d != "redis" {
		log.Fatal("The tagger consumes Redis streams only", zap.String("events_driver", cfg.Events.Driver))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Telemetry.ServiceName += "-tagger"
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Warn("Tracing disabled", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// The tagger never publishes, so its catalog gets the no-op emitter.
	catalog := service.NewCatalogService(
		repository.NewProductRepository(db),
		cache.NewRedisCache(redisClient),
		events.NewEmitter(events.NopPublisher{}, cfg.Events.ProductCreatedTopic, 0),
		service.CatalogOptions{
			CacheTTL: cfg.Cache.TTL,
			Keys:     cache.Keys{Prefix: cfg.Cache.KeyPrefix},
		},
		logger.Component(base, "catalog"),
	)

	consumerName := cfg.Events.ConsumerName
	if consumerName == "" {
		if consumerName, err = os.Hostname(); err != nil || consumerName == "" {
			consumerName = "tagger"
		}
	}
	consumer := events.NewStreamConsumer(redisClient, events.ConsumerConfig{
		Stream:       cfg.Events.ProductCreatedTopic,
		Group:        cfg.Events.ConsumerGroup,
		Consumer:     consumerName,
		Block:        5 * time.Second,
		ClaimMinIdle: cfg.Events.ClaimMinIdle,
	}, log)

	log.Info("Tagger listening",
		zap.String("stream", cfg.Events.ProductCreatedTopic),
		zap.String("group", cfg.Events.ConsumerGroup),
		zap.String("consumer", consumerName),
	)

	if err := consumer.Run(ctx, enrichment.NewHandler(catalog, log).Handle); err != nil {
		log.Fatal("Tagger stopped", zap.Error(err))
	}

	log.Info("Tagger exiting")
}
