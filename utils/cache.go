// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"remindful/config"

	"github.com/go-redis/redis/v8"
)

var (
	// SessionClient is the dedicated client for account sessions.
	SessionClient *redis.Client
	// LockClient is the dedicated client for cross-process run locks.
	LockClient *redis.Client
)

// InitSessionStore initializes the Redis client backing account sessions.
func InitSessionStore() {
	SessionClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := SessionClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Sessions): %v", err)
	}
}

// GetSessionClient returns the session store client.
func GetSessionClient() *redis.Client {
	if SessionClient == nil {
		InitSessionStore()
	}
	return SessionClient
}

// InitLockStore initializes the Redis client backing run locks.
func InitLockStore() {
	LockClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisLockDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := LockClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Locks): %v", err)
	}
}

// GetLockClient returns the lock store client.
func GetLockClient() *redis.Client {
	if LockClient == nil {
		InitLockStore()
	}
	return LockClient
}
