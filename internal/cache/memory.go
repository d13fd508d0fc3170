package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
)

// MemoryCache keeps summaries in process. Only the entry for the latest version is retained.
type MemoryCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	versions map[string]int64
	entries  map[string]memoryEntry
}

type memoryEntry struct {
	version int64
	summary *calculator.Summary
	expires time.Time
}

var _ BalanceCache = (*MemoryCache)(nil)

// NewMemoryCache returns an in-process cache. A zero ttl keeps entries until invalidated.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:      ttl,
		now:      time.Now,
		versions: make(map[string]int64),
		entries:  make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Version(_ context.Context, groupID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[groupID], nil
}

func (c *MemoryCache) Get(_ context.Context, groupID string, version int64) (*calculator.Summary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[groupID]
	if !ok || e.version != version {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, groupID)
		return nil, false, nil
	}
	return e.summary, true, nil
}

func (c *MemoryCache) Set(_ context.Context, groupID string, version int64, summary *calculator.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A slow reader must not overwrite the entry of a newer version.
	if version != c.versions[groupID] {
		return nil
	}
	e := memoryEntry{version: version, summary: summary}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[groupID] = e
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, groupID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[groupID]++
	delete(c.entries, groupID)
	return nil
}
