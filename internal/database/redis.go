package database

import (
	"context"
	"fmt"

	"property-bidding/internal/config"
	"property-bidding/utils"

	"github.com/go-redis/redis/v8"
)

// InitRedis creates a Redis client and checks it is reachable
func InitRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := ping(ctx, client); err != nil {
		client.Close()
		return nil, err
	}

	utils.Info("Connected to Redis", map[string]any{"addr": cfg.Addr(), "db": cfg.DB})
	return client, nil
}

func ping(ctx context.Context, client redis.Cmdable) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}
