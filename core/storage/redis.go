package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/polbot/core/logger"
	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "polbot:document"

// RedisBackend keeps the document under a single key.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// ConnectRedis parses the url, pings the server and returns a backend.
func ConnectRedis(cfg RedisConfig) (*RedisBackend, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.STORAGE.Error("redis connect failed",
			slog.String("event", "storage.connect"),
			slog.String("driver", DriverRedis),
			slog.String("host", opts.Addr),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.STORAGE.Info("redis connected",
		slog.String("event", "storage.connect"),
		slog.String("driver", DriverRedis),
		slog.String("host", opts.Addr),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return NewRedisBackend(client, cfg.Key), nil
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	key = strings.TrimSpace(key)
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisBackend{client: client, key: key}
}

// Name identifies the backend in logs.
func (r *RedisBackend) Name() string { return DriverRedis }

// Load fetches the document body.
func (r *RedisBackend) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Save overwrites the document body. SET replaces the value atomically.
func (r *RedisBackend) Save(ctx context.Context, body []byte) error {
	if err := r.client.Set(ctx, r.key, body, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the client.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
