package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-blocklist/internal/dns/repos/blocklist"
)

// decisionCache is an LRU-backed implementation of blocklist.DecisionCache.
// It tracks basic metrics: hits, misses, and evictions.
type decisionCache struct {
	lru       *lru.Cache[string, bool]
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// disabledCache is a no-op DecisionCache used when size <= 0.
type disabledCache struct{}

// newWithEvict is swapped in tests to simulate constructor failures.
var newWithEvict = lru.NewWithEvict[string, bool]

// New creates a new DecisionCache with the given capacity. If size <= 0, a
// disabled no-op cache is returned that always misses and tracks no metrics.
// New has the signature of blocklist.CacheFactory.
func New(size int) (blocklist.DecisionCache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}

	dc := &decisionCache{}
	cache, err := newWithEvict(size, func(string, bool) {
		dc.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	dc.lru = cache
	return dc, nil
}

// Get looks up a decision by key. When found, increments hits; otherwise increments misses.
func (c *decisionCache) Get(key string) (bool, bool) {
	if val, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return val, true
	}
	c.misses.Add(1)
	return false, false
}

// Put stores a decision by key.
func (c *decisionCache) Put(key string, blocked bool) {
	c.lru.Add(key, blocked)
}

// Len returns the number of entries in the cache.
func (c *decisionCache) Len() int { return c.lru.Len() }

// Stats returns cumulative hit/miss/eviction counters.
func (c *decisionCache) Stats() (hits, misses, evictions uint64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

func (d *disabledCache) Get(string) (bool, bool) { return false, false }

func (d *disabledCache) Put(string, bool) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

var _ blocklist.DecisionCache = (*decisionCache)(nil)
var _ blocklist.DecisionCache = (*disabledCache)(nil)
var _ blocklist.CacheFactory = New
