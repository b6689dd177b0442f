package bridge

import (
	"sync"
	"time"

	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/types"
)

// Cache TTLs. Handles go stale slowly; screen topology changes rarely but
// must be re-read after reconfiguration; window lists are queried on nearly
// every event and only need to absorb bursts.
const (
	HandleTTL     = 5 * time.Second
	ScreenTTL     = 1 * time.Second
	WindowListTTL = 50 * time.Millisecond
)

// Handle is an owned reference to a server-side accessibility element.
// The underlying OS resource is retained when the handle is resolved and
// released exactly once, on cache eviction or explicit invalidation.
type Handle struct {
	WindowID   types.WindowID
	Info       models.WindowInfo
	resolvedAt time.Time

	releaseOnce sync.Once
	releaseFn   func(types.WindowID)
}

// Release drops the server-side reference. Safe to call more than once.
func (h *Handle) Release() {
	h.releaseOnce.Do(func() {
		if h.releaseFn != nil {
			h.releaseFn(h.WindowID)
		}
	})
}

// handleCache is the TTL cache for resolved window handles. Read-mostly:
// resolution from concurrent callback threads takes the read lock, only
// refresh and invalidation write.
type handleCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[types.WindowID]*Handle
	now     func() time.Time
}

func newHandleCache(ttl time.Duration) *handleCache {
	return &handleCache{
		ttl:     ttl,
		entries: make(map[types.WindowID]*Handle),
		now:     time.Now,
	}
}

// get returns a fresh handle or nil. Expired entries are left in place for
// evictExpired; returning them would hand out a stale reference.
func (c *handleCache) get(id types.WindowID) *Handle {
	c.mu.RLock()
	defer c.mu.RUnlock()

	h, ok := c.entries[id]
	if !ok || c.now().Sub(h.resolvedAt) >= c.ttl {
		return nil
	}
	return h
}

// put stores a handle, releasing any entry it replaces.
func (c *handleCache) put(h *Handle) {
	c.mu.Lock()
	prev := c.entries[h.WindowID]
	c.entries[h.WindowID] = h
	c.mu.Unlock()

	if prev != nil {
		prev.Release()
	}
}

// invalidate removes and releases one entry. Called on untrack.
func (c *handleCache) invalidate(id types.WindowID) {
	c.mu.Lock()
	h, ok := c.entries[id]
	if ok {
		delete(c.entries, id)
	}
	c.mu.Unlock()

	if ok {
		h.Release()
	}
}

// misses partitions ids into cached handles and ids needing resolution.
func (c *handleCache) misses(ids []types.WindowID) (hits map[types.WindowID]*Handle, missing []types.WindowID) {
	hits = make(map[types.WindowID]*Handle, len(ids))
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	for _, id := range ids {
		if h, ok := c.entries[id]; ok && now.Sub(h.resolvedAt) < c.ttl {
			hits[id] = h
		} else {
			missing = append(missing, id)
		}
	}
	return hits, missing
}

// evictExpired removes and releases all entries past the TTL.
func (c *handleCache) evictExpired() {
	var expired []*Handle

	c.mu.Lock()
	now := c.now()
	for id, h := range c.entries {
		if now.Sub(h.resolvedAt) >= c.ttl {
			delete(c.entries, id)
			expired = append(expired, h)
		}
	}
	c.mu.Unlock()

	for _, h := range expired {
		h.Release()
	}
}

// snapshotCache is a single-value TTL cache used for screen and window-list
// enumeration.
type snapshotCache[T any] struct {
	mu        sync.RWMutex
	ttl       time.Duration
	value     []T
	fetchedAt time.Time
	valid     bool
	now       func() time.Time
}

func newSnapshotCache[T any](ttl time.Duration) *snapshotCache[T] {
	return &snapshotCache[T]{ttl: ttl, now: time.Now}
}

func (c *snapshotCache[T]) get() ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid || c.now().Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return c.value, true
}

func (c *snapshotCache[T]) set(value []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.fetchedAt = c.now()
	c.valid = true
}

func (c *snapshotCache[T]) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.value = nil
}
