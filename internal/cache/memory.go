package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value     interface{}
	expiresAt time.Time
}

// MemoryCache is a mutex-guarded TTL cache. Eviction is time-based only:
// expired entries are dropped lazily on read and by CleanupExpired.
// Concurrent misses for the same key may both produce; the last writer wins.
type MemoryCache struct {
	mu    sync.RWMutex
	cache map[string]memoryEntry
	ttl   time.Duration
}

// NewMemoryCache creates a cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: make(map[string]memoryEntry),
		ttl:   ttl,
	}
}

// Get retrieves a value if present and not expired.
func (mc *MemoryCache) Get(key string) (interface{}, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	entry, exists := mc.cache[key]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with the cache TTL.
func (mc *MemoryCache) Set(key string, value interface{}) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.cache[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(mc.ttl),
	}
}

// Clear removes all entries.
func (mc *MemoryCache) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.cache = make(map[string]memoryEntry)
}

// CleanupExpired removes expired entries and returns how many were dropped.
func (mc *MemoryCache) CleanupExpired() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	dropped := 0
	for key, entry := range mc.cache {
		if now.After(entry.expiresAt) {
			delete(mc.cache, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.cache)
}
