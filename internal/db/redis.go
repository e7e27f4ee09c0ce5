package db

import (
	"context"
	"log"

	"travelmate-web/internal/config"

	"github.com/redis/go-redis/v9"
)

var pingRedisFn = func(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// ConnectRedis returns nil when Redis is not configured or does not answer.
// Editor events then stay in process and the deletion record falls back to
// memory.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := pingRedisFn(ctx, client); err != nil {
		log.Printf("redis %s unreachable: %v; running without redis", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	return client
}
