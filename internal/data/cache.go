package data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"pfline/internal/model"
)

// CacheEntry is a cached API response.
type CacheEntry struct {
	Response  *model.GridStatusLMPResponse
	ExpiresAt time.Time
}

// ResponseCache keeps GridStatus responses in memory for a fixed TTL.
//
// WARNING: for local development only. Caching API responses may violate
// the GridStatus Terms of Use; the server never enables it when API_ENV is
// "production".
type ResponseCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewResponseCache returns an empty cache. A non-positive ttl means one hour.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResponseCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves a cached response if available and not expired.
func (c *ResponseCache) Get(key string) (*model.GridStatusLMPResponse, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists || c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Response, true
}

// Set stores a response in the cache.
func (c *ResponseCache) Set(key string, response *model.GridStatusLMPResponse) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Response:  response,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Clear removes all entries.
func (c *ResponseCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*CacheEntry)
}

// Len returns the number of stored entries, expired ones included.
func (c *ResponseCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Run removes expired entries every interval until ctx is done.
func (c *ResponseCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evict()
		}
	}
}

func (c *ResponseCache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

// GenerateCacheKey creates a cache key from query parameters.
func GenerateCacheKey(params QueryLocationParams) string {
	keyStr := fmt.Sprintf("%s:%s:%s:%s:%s:%v",
		params.DatasetID,
		params.LocationID,
		params.StartTime.Format("2006-01-02"),
		params.EndTime.Format("2006-01-02"),
		params.Timezone,
		params.Download,
	)
	// Hash the key to keep it reasonably sized
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
