// Package cache provides weather snapshot caching backends
package cache

import (
	"time"

	"climascope.app/config"
	"climascope.app/models"
)

// Cache stores weather snapshots keyed by city, with per-entry TTL.
type Cache interface {
	Get(key string) (*models.WeatherSnapshot, bool)
	Set(key string, value *models.WeatherSnapshot, ttl time.Duration)
}

// New creates the cache backend selected by configuration.
func New(cfg *config.CacheConfig) (Cache, error) {
	if cfg.Type == "redis" {
		return NewRedisCache(&RedisCacheConfig{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
	}
	return NewMemoryCache(), nil
}
