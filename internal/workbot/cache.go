package workbot

import (
	"strings"
	"sync"
	"time"
)

// classificationCache stores recent classifier results so identical queries
// asked on the same day skip the model round trip. Keys include the reference
// date because relative phrases change meaning at midnight.
type classificationCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]classificationCacheEntry
}

type classificationCacheEntry struct {
	instruction Instruction
	expiresAt   time.Time
}

func newClassificationCache(ttl time.Duration, maxEntries int, now func() time.Time) *classificationCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &classificationCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]classificationCacheEntry),
	}
}

func (c *classificationCache) Get(key string) (Instruction, bool) {
	if c == nil {
		return Instruction{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Instruction{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return Instruction{}, false
	}
	return entry.instruction, true
}

func (c *classificationCache) Store(key string, instruction Instruction) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = classificationCacheEntry{instruction: instruction, expiresAt: expiry}
}

func (c *classificationCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *classificationCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func classificationKey(query, today string) string {
	return today + "|" + strings.ToLower(strings.TrimSpace(query))
}
