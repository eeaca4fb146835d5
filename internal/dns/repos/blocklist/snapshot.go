package blocklist

import (
	"strings"
	"time"
)

// snapshot is one published generation of the blocklist. Nothing in it is
// written after publication except the decision cache, which is safe for
// concurrent use.
type snapshot struct {
	trie  *Trie
	bloom BloomFilter   // nil disables the pre-filter
	cache DecisionCache // nil disables caching

	generation    uint64
	updatedAt     time.Time
	sourcesOK     int
	sourcesFailed int
}

// contains applies the cache → bloom → trie pipeline.
func (s *snapshot) contains(name string, includeSubdomains bool) bool {
	key := decisionKey(name, includeSubdomains)
	if s.cache != nil {
		if blocked, ok := s.cache.Get(key); ok {
			return blocked
		}
	}
	blocked := s.mightContain(name, includeSubdomains) && s.trie.Contains(name, includeSubdomains)
	if s.cache != nil {
		s.cache.Put(key, blocked)
	}
	return blocked
}

// mightContain returns false only when the trie cannot match. With
// includeSubdomains every ancestor of name is a candidate as well.
func (s *snapshot) mightContain(name string, includeSubdomains bool) bool {
	if s.bloom == nil {
		return true
	}
	if s.bloom.MightContain([]byte(name)) {
		return true
	}
	if !includeSubdomains {
		return false
	}
	a := name
	for {
		i := strings.IndexByte(a, '.')
		if i < 0 {
			return false
		}
		a = a[i+1:]
		if a == "" {
			return false
		}
		if s.bloom.MightContain([]byte(a)) {
			return true
		}
	}
}

func (s *snapshot) cacheStats(capacity int) CacheStats {
	if s.cache == nil {
		return CacheStats{}
	}
	hits, misses, evictions := s.cache.Stats()
	return CacheStats{
		Capacity:  capacity,
		Size:      s.cache.Len(),
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
	}
}

// decisionKey separates exact and subdomain-inclusive answers for one name.
func decisionKey(name string, includeSubdomains bool) string {
	if includeSubdomains {
		return "s:" + name
	}
	return "e:" + name
}
