package memcache

import (
	"context"
	"sync"
	"time"

	"github.com/user/listing-risk-service/internal/entity"
)

type cacheEntry struct {
	verdict    *entity.RiskVerdict
	insertedAt time.Time
}

// VerdictCacheImpl is the in-memory freshness cache. Entries expire lazily on
// read; there is no background sweep. Lifetime is the process, matching the
// session-scoped cache contract.
type VerdictCacheImpl struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewVerdictCache creates an in-memory cache with the given freshness window.
func NewVerdictCache(ttl time.Duration) *VerdictCacheImpl {
	return &VerdictCacheImpl{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached verdict for a subject unless the entry has outlived
// the freshness window, in which case it is dropped and reported as a miss.
func (c *VerdictCacheImpl) Get(_ context.Context, subjectID string) (*entity.RiskVerdict, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[subjectID]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if c.now().Sub(entry.insertedAt) > c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a fresher entry may have landed.
		if cur, ok := c.entries[subjectID]; ok && c.now().Sub(cur.insertedAt) > c.ttl {
			delete(c.entries, subjectID)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.verdict, true, nil
}

// Put stores a verdict for a subject, unconditionally replacing any existing
// entry (last-writer-wins).
func (c *VerdictCacheImpl) Put(_ context.Context, subjectID string, verdict *entity.RiskVerdict) error {
	c.mu.Lock()
	c.entries[subjectID] = cacheEntry{verdict: verdict, insertedAt: c.now()}
	c.mu.Unlock()
	return nil
}

// Invalidate drops the entry for a subject.
func (c *VerdictCacheImpl) Invalidate(_ context.Context, subjectID string) error {
	c.mu.Lock()
	delete(c.entries, subjectID)
	c.mu.Unlock()
	return nil
}
