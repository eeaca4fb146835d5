package blocklist

import "time"

// CacheStats reports lightweight cache metrics.
// All fields are best-effort snapshots and may be updated concurrently.
type CacheStats struct {
	Capacity  int    // configured capacity (0 for disabled cache)
	Size      int    // current number of entries
	Hits      uint64 // total cache hits for the current snapshot
	Misses    uint64 // total cache misses for the current snapshot
	Evictions uint64 // total evictions for the current snapshot
}

// Stats describes the current snapshot and the update that produced it.
type Stats struct {
	Domains       uint64
	Generation    uint64 // 0 until the first update completes
	LastUpdate    time.Time
	SourcesOK     int
	SourcesFailed int
	Cache         CacheStats
}
