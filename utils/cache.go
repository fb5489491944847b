// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"visaflow/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient caches slot-discovery results.
	CacheClient *redis.Client
	// RegistryClient is the dedicated client for the confirmed-appointment registry.
	RegistryClient *redis.Client
)

// InitCache initializes the Redis client for slot-discovery caching.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the discovery cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitRegistry initializes the Redis client for the appointment registry.
func InitRegistry() {
	RegistryClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisRegistryDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := RegistryClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Registry): %v", err)
	}
}

// GetRegistryClient returns the appointment-registry client.
func GetRegistryClient() *redis.Client {
	if RegistryClient == nil {
		InitRegistry()
	}
	return RegistryClient
}
