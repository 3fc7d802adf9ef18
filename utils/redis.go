package utils

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/shiftwise/shiftwise-backend/config"
)

var (
	RedisClient *redis.Client
	Ctx         = context.Background()
)

// InitRedis connects the shared Redis client used for the in-app bell channels.
func InitRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := RedisClient.Ping(Ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	log.Println("✅ Redis connected")
	return nil
}

// PublishUserEvent pushes a payload onto a per-user notification channel.
// Failures are logged, not returned; the bell mirror is best-effort.
func PublishUserEvent(userID string, payload string) {
	if RedisClient == nil {
		return
	}
	channel := fmt.Sprintf("notifications:user:%s", userID)
	if err := RedisClient.Publish(Ctx, channel, payload).Err(); err != nil {
		log.Printf("⚠️  Redis publish failed for %s: %v", channel, err)
	}
}
