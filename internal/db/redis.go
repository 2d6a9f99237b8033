package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/qpaperai/qpaper-api/internal/config"
)

// RedisDB wraps the go-redis client used for caching.
type RedisDB struct {
	Client *redis.Client
}

// NewRedisDB connects to Redis using the configured URL
// (redis://[:password@]host:port/db).
func NewRedisDB(cfg *config.Config) (*RedisDB, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to establish redis connection: %w", err)
	}

	return &RedisDB{Client: client}, nil
}

// Ping checks redis connectivity
func (r *RedisDB) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Close closes the client
func (r *RedisDB) Close() error {
	return r.Client.Close()
}
