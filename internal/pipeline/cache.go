package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"ntrl/internal/logging"
	"ntrl/internal/types"
)

// =============================================================================
// RESULT CACHE - Content-Hash Keyed, Bounded
// =============================================================================

// CacheStats is a point-in-time snapshot of cache behavior.
type CacheStats struct {
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// resultCache stores pipeline results keyed by content hash. When full
// it evicts the oldest half by insertion order; article traffic is
// bursty enough that LRU bookkeeping buys nothing over FIFO here.
type resultCache struct {
	mu       sync.Mutex
	entries  map[string]*types.PipelineResult
	order    []string
	capacity int

	hits      int64
	misses    int64
	evictions int64
}

func newResultCache(capacity int) *resultCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &resultCache{
		entries:  make(map[string]*types.PipelineResult, capacity),
		capacity: capacity,
	}
}

// contentKey hashes title and body together; the NUL separator keeps
// ("ab","c") and ("a","bc") from colliding.
func contentKey(title, body string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *resultCache) get(key string) (*types.PipelineResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return r, ok
}

func (c *resultCache) put(key string, r *types.PipelineResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = r
		return
	}

	if len(c.entries) >= c.capacity {
		drop := len(c.order) / 2
		if drop == 0 {
			drop = 1
		}
		for _, old := range c.order[:drop] {
			delete(c.entries, old)
		}
		c.order = append([]string(nil), c.order[drop:]...)
		c.evictions += int64(drop)
		logging.PipelineDebug("cache evicted %d oldest entries", drop)
	}

	c.entries[key] = r
	c.order = append(c.order, key)
}

func (c *resultCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Size:      len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
