package cache

import (
	"sync"
	"time"

	"climascope.app/metrics"
	"climascope.app/models"
)

type memoryEntry struct {
	snapshot  models.WeatherSnapshot
	expiresAt time.Time
}

// MemoryCache is an in-process weather cache with background expiry.
type MemoryCache struct {
	data   map[string]memoryEntry
	mutex  sync.RWMutex
	ticker *time.Ticker
	stopCh chan struct{}
}

// NewMemoryCache creates an in-memory cache backend
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		data:   make(map[string]memoryEntry),
		ticker: time.NewTicker(5 * time.Minute),
		stopCh: make(chan struct{}),
	}

	go cache.cleanup()
	return cache
}

func (c *MemoryCache) Get(key string) (*models.WeatherSnapshot, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.data[key]
	if !exists || time.Now().After(entry.expiresAt) {
		metrics.RecordCacheMiss("memory")
		return nil, false
	}

	metrics.RecordCacheHit("memory")
	snapshot := entry.snapshot
	return &snapshot, true
}

func (c *MemoryCache) Set(key string, value *models.WeatherSnapshot, ttl time.Duration) {
	if value == nil {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = memoryEntry{
		snapshot:  *value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Stop terminates the background expiry goroutine.
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}

func (c *MemoryCache) cleanup() {
	for {
		select {
		case <-c.ticker.C:
			c.removeExpiredEntries()
		case <-c.stopCh:
			c.ticker.Stop()
			return
		}
	}
}

func (c *MemoryCache) removeExpiredEntries() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.After(entry.expiresAt) {
			delete(c.data, key)
		}
	}
}
