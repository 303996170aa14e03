package quotecache

import (
	"hash/fnv"
	"sync"
	"time"

	"marketlens_backend/services/marketdata"
)

// DefaultTTL is how long a cached quote stays fresh
const DefaultTTL = 15 * time.Second

// Entry is a cached quote with its expiry
type Entry struct {
	Quote     marketdata.Quote
	ExpiresAt time.Time
}

type cacheShard struct {
	mu    sync.RWMutex
	store map[string]*Entry
}

// Cache is a sharded in-memory TTL cache for quotes
type Cache struct {
	shards    []*cacheShard
	numShards int
	ttl       time.Duration

	hits   int64
	misses int64
	statMu sync.Mutex
}

// Stats holds cache hit/miss counters
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Global quote cache
var GlobalCache = New(DefaultTTL)

// New creates a quote cache with the given TTL
func New(ttl time.Duration) *Cache {
	numShards := 16
	shards := make([]*cacheShard, numShards)
	for i := range shards {
		shards[i] = &cacheShard{store: make(map[string]*Entry)}
	}
	return &Cache{
		shards:    shards,
		numShards: numShards,
		ttl:       ttl,
	}
}

func (c *Cache) getShard(symbol string) *cacheShard {
	hash := fnv.New32a()
	hash.Write([]byte(symbol))
	return c.shards[hash.Sum32()%uint32(c.numShards)]
}

// Get returns the cached quote for a symbol if still fresh
func (c *Cache) Get(symbol string) (*marketdata.Quote, bool) {
	shard := c.getShard(symbol)
	shard.mu.RLock()
	entry, exists := shard.store[symbol]
	shard.mu.RUnlock()

	if !exists || time.Now().After(entry.ExpiresAt) {
		if exists {
			shard.mu.Lock()
			delete(shard.store, symbol)
			shard.mu.Unlock()
		}
		c.statMu.Lock()
		c.misses++
		c.statMu.Unlock()
		return nil, false
	}

	c.statMu.Lock()
	c.hits++
	c.statMu.Unlock()

	q := entry.Quote
	return &q, true
}

// Set stores a quote under its symbol
func (c *Cache) Set(q marketdata.Quote) {
	shard := c.getShard(q.Symbol)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.store[q.Symbol] = &Entry{
		Quote:     q,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// SetAll stores a batch of quotes
func (c *Cache) SetAll(quotes []marketdata.Quote) {
	for _, q := range quotes {
		c.Set(q)
	}
}

// Delete removes a symbol from the cache
func (c *Cache) Delete(symbol string) {
	shard := c.getShard(symbol)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.store, symbol)
}

// Stats returns hit/miss counters and the current entry count
func (c *Cache) Stats() Stats {
	c.statMu.Lock()
	s := Stats{Hits: c.hits, Misses: c.misses}
	c.statMu.Unlock()

	now := time.Now()
	for _, shard := range c.shards {
		shard.mu.RLock()
		for _, entry := range shard.store {
			if now.Before(entry.ExpiresAt) {
				s.Entries++
			}
		}
		shard.mu.RUnlock()
	}
	return s
}
