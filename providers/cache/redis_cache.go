package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"climascope.app/metrics"
	"climascope.app/models"
	"github.com/go-redis/redis/v8"
)

// RedisCache is a redis-backed weather cache.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

// RedisCacheConfig holds redis connection settings.
type RedisCacheConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisCache connects to redis and returns a cache backend
func NewRedisCache(config *RedisCacheConfig) (*RedisCache, error) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	slog.Info("Redis cache connected successfully", "addr", config.Addr)

	return &RedisCache{
		client: client,
		ctx:    ctx,
	}, nil
}

func (r *RedisCache) Get(key string) (*models.WeatherSnapshot, bool) {
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Error("Redis get error", "error", err, "key", key)
		}
		metrics.RecordCacheMiss("redis")
		return nil, false
	}

	var snapshot models.WeatherSnapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		slog.Error("Redis unmarshal error", "error", err, "key", key)
		metrics.RecordCacheMiss("redis")
		return nil, false
	}

	metrics.RecordCacheHit("redis")
	return &snapshot, true
}

func (r *RedisCache) Set(key string, value *models.WeatherSnapshot, ttl time.Duration) {
	if value == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("Redis marshal error", "error", err, "key", key)
		return
	}

	if err := r.client.Set(r.ctx, key, data, ttl).Err(); err != nil {
		slog.Error("Redis set error", "error", err, "key", key)
	}
}

// Close releases the redis connection.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
