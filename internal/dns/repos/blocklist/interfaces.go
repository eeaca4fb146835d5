package blocklist

import (
	"context"
	"sync/atomic"

	"github.com/haukened/rr-blocklist/internal/dns/domain"
)

// ListParser converts raw list text into block rules.
// source identifies the list in rules and log fields.
type ListParser interface {
	Parse(source, raw string) ([]domain.BlockRule, error)
}

// SourceResolver produces the raw text of one list source.
// A false result means the source is skipped for this update.
type SourceResolver interface {
	EnsureCacheDir() error
	Resolve(ctx context.Context, src domain.Source, restoreFromCache bool) (string, bool)
}

// BloomSizer computes Bloom filter parameters from capacity (n) and target FP rate (p).
// It returns m (number of bits) and k (number of hash functions).
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// BloomFilter is the minimal interface the repository needs from Bloom filters.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds a filter sized for capacity keys at the given FP rate.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// DecisionCache caches lookup results by key with basic metrics.
type DecisionCache interface {
	Get(key string) (blocked bool, ok bool)
	Put(key string, blocked bool)
	Len() int
	Stats() (hits, misses, evictions uint64)
}

// CacheFactory builds a DecisionCache holding at most size entries.
// A size <= 0 yields a cache that never stores anything.
type CacheFactory func(size int) (DecisionCache, error)

// Repository owns the current blocklist snapshot.
// Update rebuilds it from sources and swaps it in; Contains answers from
// whichever snapshot is current at the time of the call.
type Repository interface {
	Update(ctx context.Context, sources []domain.Source, restoreFromCache bool, count *atomic.Uint64)
	Contains(name string, includeSubdomains bool) bool
	Stats() Stats
}
