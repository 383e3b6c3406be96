package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/thomas/eva-cart-go/internal/config"
	"github.com/thomas/eva-cart-go/internal/store"
)

const (
	redisRetries    = 5
	redisRetryDelay = 2 * time.Second
)

// OpenStore returns the configured cart store and an optional closer.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, func() error, error) {
	switch cfg.Store {
	case config.StoreFile:
		st, err := store.NewFile(cfg.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file cart store", "dir", cfg.StoreDir)
		return st, nil, nil

	case config.StoreRedis:
		client, err := connectRedisWithRetry(ctx, redisOptions(cfg), redisRetries, redisRetryDelay, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis cart store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
		return store.NewRedis(client, store.WithTTL(cfg.SessionTTL)), client.Close, nil

	default:
		logger.Info("using in-memory cart store", "ttl", cfg.SessionTTL)
		return store.NewMemory(cfg.SessionTTL), nil, nil
	}
}

func redisOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func connectRedisWithRetry(ctx context.Context, opts *redis.Options, maxRetries int, delay time.Duration, logger *log.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(opts)

	var err error
	for i := 1; i <= maxRetries; i++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			logger.Info("connected to redis", "addr", opts.Addr)
			return rdb, nil
		}

		logger.Warn("redis ping failed", "attempt", i, "max", maxRetries, "err", err)
		if i == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			rdb.Close()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	rdb.Close()
	return nil, fmt.Errorf("failed to connect redis: %w", err)
}
