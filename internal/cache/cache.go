// internal/cache/cache.go
package cache

import (
	"container/list"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache stores raw provider payloads (autocomplete answers, map bounds)
// keyed by request identity.
type Cache interface {
	// Get returns the cached payload and whether the key was found and fresh.
	Get(key string) ([]byte, bool)

	// Set stores a payload with the given TTL, replacing any existing entry.
	Set(key string, data []byte, ttl time.Duration) error

	// Stats reports occupancy and hit counters.
	Stats() Stats

	// Close stops background cleanup.
	Close()
}

// Stats is a point-in-time snapshot of cache usage
type Stats struct {
	Entries   int
	SizeBytes int64
	MaxSize   int64
	Hits      uint64
	Misses    uint64
	HitRate   float64
}

type cacheEntry struct {
	Data      []byte
	ExpiresAt time.Time
	Key       string
}

func (e *cacheEntry) size() int64 {
	return int64(len(e.Data)+len(e.Key)) + 64
}

// MemoryCache is an in-memory byte cache with LRU eviction and TTL expiry
type MemoryCache struct {
	store   map[string]*list.Element
	lruList *list.List
	mu      sync.Mutex
	maxSize int64
	size    int64
	ctx     context.Context
	cancel  context.CancelFunc
	hits    uint64
	misses  uint64
}

// NewMemoryCache creates a new in-memory cache with LRU eviction
func NewMemoryCache(maxSizeBytes int64) *MemoryCache {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 16 * 1024 * 1024
	}

	ctx, cancel := context.WithCancel(context.Background())

	cache := &MemoryCache{
		store:   make(map[string]*list.Element),
		lruList: list.New(),
		maxSize: maxSizeBytes,
		ctx:     ctx,
		cancel:  cancel,
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves a cached payload and marks it most recently used
func (mc *MemoryCache) Get(key string) ([]byte, bool) {
	mc.mu.Lock()
	element, exists := mc.store[key]
	if !exists {
		mc.misses++
		mc.mu.Unlock()
		return nil, false
	}

	entry := element.Value.(*cacheEntry)

	if time.Now().After(entry.ExpiresAt) {
		mc.removeElement(element)
		mc.misses++
		mc.mu.Unlock()
		return nil, false
	}

	mc.lruList.MoveToFront(element)
	mc.hits++
	mc.mu.Unlock()

	log.Debug().Str("key", key).Msg("Cache hit")
	return entry.Data, true
}

// Set stores a payload with TTL
func (mc *MemoryCache) Set(key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry := &cacheEntry{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
		Key:       key,
	}

	if element, exists := mc.store[key]; exists {
		mc.size -= element.Value.(*cacheEntry).size()
		element.Value = entry
		mc.lruList.MoveToFront(element)
		mc.size += entry.size()
		return nil
	}

	for mc.size+entry.size() > mc.maxSize && mc.lruList.Len() > 0 {
		mc.evictLRU()
	}

	mc.store[key] = mc.lruList.PushFront(entry)
	mc.size += entry.size()

	log.Debug().
		Str("key", key).
		Dur("ttl", ttl).
		Int("size_bytes", len(data)).
		Msg("Cached payload")

	return nil
}

// Close stops the background cleanup goroutine
func (mc *MemoryCache) Close() {
	mc.cancel()
}

// Len returns the number of live entries
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.lruList.Len()
}

// must be called with lock held
func (mc *MemoryCache) removeElement(element *list.Element) {
	entry := element.Value.(*cacheEntry)
	mc.lruList.Remove(element)
	delete(mc.store, entry.Key)
	mc.size -= entry.size()
}

// must be called with lock held
func (mc *MemoryCache) evictLRU() {
	element := mc.lruList.Back()
	if element == nil {
		return
	}
	log.Debug().Str("key", element.Value.(*cacheEntry).Key).Msg("Evicted from cache (LRU)")
	mc.removeElement(element)
}

func (mc *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			now := time.Now()
			var next *list.Element
			for element := mc.lruList.Front(); element != nil; element = next {
				next = element.Next()
				if now.After(element.Value.(*cacheEntry).ExpiresAt) {
					mc.removeElement(element)
				}
			}
			mc.mu.Unlock()
		case <-mc.ctx.Done():
			return
		}
	}
}

// Stats returns cache statistics including hit rate
func (mc *MemoryCache) Stats() Stats {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	hitRate := 0.0
	total := mc.hits + mc.misses
	if total > 0 {
		hitRate = float64(mc.hits) / float64(total) * 100
	}

	return Stats{
		Entries:   mc.lruList.Len(),
		SizeBytes: mc.size,
		MaxSize:   mc.maxSize,
		Hits:      mc.hits,
		Misses:    mc.misses,
		HitRate:   hitRate,
	}
}

// Key builds a stable cache key from a URL and its query parameters
func Key(method, url string, params map[string]string) string {
	if len(params) == 0 {
		return method + " " + url
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(url)
	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}
