package bootstrap

import (
	"context"

	"github.com/redis/go-redis/v9"

	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	infraredis "github.com/cybersalt/cs-sponsored-articles/infrastructure/redis"
	"github.com/cybersalt/cs-sponsored-articles/internal/config"
)

// SetupRedis connects the optional alias cache. It returns nil when Redis is
// disabled or unreachable; lookups then go straight to the database.
func SetupRedis(ctx context.Context, cfg *config.Config, log infralogger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	client, err := infraredis.NewClient(ctx, infraredis.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis not available, alias cache disabled",
			infralogger.Error(err),
		)
		return nil
	}

	log.Info("Alias cache initialized",
		infralogger.String("redis_address", cfg.Redis.Address),
		infralogger.Duration("ttl", cfg.Redis.TTL),
	)
	return client
}

func closeRedis(client *redis.Client, log infralogger.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Error("Failed to close Redis", infralogger.Error(err))
	}
}
