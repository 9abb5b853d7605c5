package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/porchlabs/porch/internal/config"
)

// Entry is a cached dispatch result. Tier travels with the content so a
// cache hit can still report degraded quality in response metadata.
type Entry struct {
	Content  string
	Tier     string
	Fallback bool
}

type record struct {
	entry     Entry
	timestamp time.Time
}

// ResponseCache is a TTL cache with one slot per key and a FIFO bound on
// entry count. Expiry is lazy: a lookup past TTL is a miss, and the slot is
// overwritten on the next Set.
type ResponseCache struct {
	mu        sync.Mutex
	entries   map[string]record
	order     []string // insertion order for FIFO eviction
	ttl       time.Duration
	max       int
	keyPrefix int
	now       func() time.Time
}

func New(cfg *config.CacheConfig) *ResponseCache {
	return &ResponseCache{
		entries:   make(map[string]record),
		ttl:       cfg.TTL,
		max:       cfg.MaxEntries,
		keyPrefix: cfg.KeyPrefix,
		now:       time.Now,
	}
}

// Key derives the deterministic cache key. The message is truncated so
// near-duplicate long messages still hit the same slot.
func (c *ResponseCache) Key(userID, model, message string) string {
	msg := strings.ToLower(strings.TrimSpace(message))
	if len(msg) > c.keyPrefix {
		msg = msg[:c.keyPrefix]
	}

	sum := sha256.Sum256([]byte(userID + "\x00" + model + "\x00" + msg))
	return hex.EncodeToString(sum[:])
}

func (c *ResponseCache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if c.now().Sub(rec.timestamp) >= c.ttl {
		return Entry{}, false
	}
	return rec.entry, true
}

func (c *ResponseCache) Set(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if c.max > 0 && len(c.entries) >= c.max {
			c.evictOldest()
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = record{entry: entry, timestamp: c.now()}
}

func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest drops the oldest slot regardless of freshness. Caller holds
// the lock.
func (c *ResponseCache) evictOldest() {
	for len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.entries[oldest]; ok {
			delete(c.entries, oldest)
			return
		}
	}
}
