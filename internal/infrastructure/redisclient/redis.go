// Package redisclient opens the Redis connection used by the kv record store.
package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/crm/internal/infrastructure/config"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
)

const (
	maxAttempts  = 5
	initialDelay = 2 * time.Second
)

// Connect dials Redis and pings it, retrying with exponential backoff until
// the server answers, the attempts run out or ctx is done.
func Connect(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	return connect(ctx, cfg, log, maxAttempts, initialDelay)
}

func connect(ctx context.Context, cfg config.RedisConfig, log *logger.Logger, attempts int, delay time.Duration) (*redis.Client, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.GetAddr(),
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 3,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			log.Infow("Redis connected", "addr", cfg.GetAddr(), "db", cfg.DB)
			return client, nil
		}
		client.Close()

		log.Warnw("Redis connection failed", "attempt", attempt, "max_attempts", attempts, "error", lastErr)
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to redis: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", attempts, lastErr)
}
