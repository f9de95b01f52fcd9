package coin

import (
	"sync"
	"time"

	"bitbucket.org/novatechnologies/marketview/domain"
	"bitbucket.org/novatechnologies/marketview/infra/metrics"
)

// DefaultTTL is how long a fetched detail is served without going back to the
// remote source.
const DefaultTTL = 5 * time.Minute

type entry struct {
	detail    domain.AssetDetail
	fetchedAt time.Time
}

// Cache keeps the last fetched detail per asset id for the whole life of the
// process. Staleness is computed on read; nothing is ever evicted, the tracked
// asset universe is small and fixed.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	timeNow func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		timeNow: time.Now,
	}
}

// Get returns the cached detail for id while it is no older than the TTL.
// A stale entry is reported as absent.
func (c *Cache) Get(id string) (*domain.AssetDetail, bool) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok {
		metrics.ObserveCacheLookup("miss")
		return nil, false
	}
	if c.timeNow().Sub(e.fetchedAt) > c.ttl {
		metrics.ObserveCacheLookup("stale")
		return nil, false
	}

	metrics.ObserveCacheLookup("hit")
	detail := e.detail.Clone()
	return &detail, true
}

// Put stores detail under its id, replacing whatever was there and restarting
// its TTL.
func (c *Cache) Put(detail domain.AssetDetail) {
	c.mu.Lock()

	c.entries[detail.ID] = entry{detail: detail.Clone(), fetchedAt: c.timeNow()}

	c.mu.Unlock()
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}
