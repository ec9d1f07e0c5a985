package redisinfra

import (
	"github.com/cartify-api/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewClient builds a go-redis client from the REDIS_* settings. It does not
// dial; the first command or Ping does.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
