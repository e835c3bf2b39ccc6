package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/IvanBrykalov/evictcache/internal/arena"
	"github.com/IvanBrykalov/evictcache/policy"
)

// LRU is the recency engine: a map from key to arena slot plus an
// index-linked list threaded through the slots (front=MRU, back=LRU).
// Every operation is O(1) except Sweep and Keys.
type LRU[K comparable, V any] struct {
	core[K, V]

	// ---- guarded by mu ----
	mu    sync.Mutex
	m     map[K]int32
	slots *arena.Arena[entry[K, V]]
	order arena.List
}

// NewLRU builds a recency engine. A non-positive capacity (or any other
// configuration error) yields an ErrConfiguration and no cache.
func NewLRU[K comparable, V any](opt Options[K, V]) (*LRU[K, V], error) {
	base, err := newCore(opt, EngineLRU)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{
		core:  base,
		m:     make(map[K]int32, opt.Capacity),
		slots: arena.New[entry[K, V]](opt.Capacity),
		order: arena.NewList(),
	}, nil
}

// Put inserts or updates k→v and promotes it to MRU.
// When a new key meets a full cache, the LRU entry is evicted first.
func (c *LRU[K, V]) Put(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(k, v, 0, false)
}

// PutWithTTL is Put with a per-key TTL. A negative ttl returns
// ErrNegativeTTL and leaves the cache untouched.
func (c *LRU[K, V]) PutWithTTL(k K, v V, ttl time.Duration) error {
	if err := c.checkTTL(ttl); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(k, v, ttl, true)
	return nil
}

// Get returns the value for k and promotes it to MRU.
// An expired entry is evicted (EvictTTL) and reported as a miss.
func (c *LRU[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	i, ok := c.m[k]
	if !ok {
		c.mon.OnMiss()
		return zero, false
	}
	e := c.entryAt(i, k)
	now := c.now()
	if e.expired(now) {
		e.stats.RecordMiss(now)
		c.evictLocked(i, EvictTTL)
		c.mon.OnMiss()
		return zero, false
	}

	e.stats.RecordHit(now)
	c.slots.MoveToFront(&c.order, i)
	c.mon.OnHit()
	c.assert(c.checkLocked)
	return e.val, true
}

// Remove deletes k and returns its value. Explicit removals are not
// counted as evictions.
func (c *LRU[K, V]) Remove(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.m[k]
	if !ok {
		var zero V
		return zero, false
	}
	v := c.entryAt(i, k).val
	c.dropLocked(i)
	c.mon.OnRemove()
	c.assert(c.checkLocked)
	return v, true
}

// Clear drops every entry. Calling it on an empty cache is a no-op.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.m)
	clear(c.m)
	c.slots.Reset()
	c.order = arena.NewList()
	c.mon.OnClear(n)
}

// Len returns the number of resident entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Stats returns a snapshot of the instance counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mon.Stats()
}

// Sweep evicts every expired entry (EvictTTL). O(n).
func (c *LRU[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for i := c.order.Front(); i != arena.Nil; {
		next := c.slots.Next(i)
		if c.slots.At(i).expired(now) {
			c.evictLocked(i, EvictTTL)
			removed++
		}
		i = next
	}
	return removed
}

// Keys returns the resident keys from most to least recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]K, 0, c.order.Len())
	for i := c.order.Front(); i != arena.Nil; i = c.slots.Next(i) {
		out = append(out, c.slots.At(i).key)
	}
	return out
}

// Peek returns the value for k without promoting it or touching counters.
// Expired entries are reported absent but left in place.
func (c *LRU[K, V]) Peek(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.m[k]
	if !ok {
		var zero V
		return zero, false
	}
	e := c.entryAt(i, k)
	if e.expired(c.now()) {
		var zero V
		return zero, false
	}
	return e.val, true
}

// Access returns a copy of k's access statistics.
func (c *LRU[K, V]) Access(k K) (policy.AccessStatistics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.m[k]
	if !ok {
		return policy.AccessStatistics{}, false
	}
	return c.entryAt(i, k).stats, true
}

// -------------------- internals (mu held) --------------------

func (c *LRU[K, V]) putLocked(k K, v V, ttl time.Duration, withTTL bool) {
	now := c.now()
	if i, ok := c.m[k]; ok {
		e := c.entryAt(i, k)
		if !e.expired(now) {
			c.update(e, v, now, ttl, withTTL)
			c.slots.MoveToFront(&c.order, i)
			c.assert(c.checkLocked)
			return
		}
		// An expired key is absent: drop it and insert afresh.
		c.evictLocked(i, EvictTTL)
	}

	if len(c.m) >= c.capacity {
		if tail := c.order.Back(); tail != arena.Nil {
			c.evictLocked(tail, EvictPolicy)
		} else {
			c.fail("full cache (%d keys) has an empty order list", len(c.m))
		}
	}

	i := c.slots.Alloc(c.newEntry(k, v, now, ttl, withTTL))
	c.slots.PushFront(&c.order, i)
	c.m[k] = i
	c.mon.OnPut()
	c.assert(c.checkLocked)
}

// entryAt resolves a map index and cross-checks the slot's key.
func (c *LRU[K, V]) entryAt(i int32, k K) *entry[K, V] {
	if !c.slots.Live(i) {
		c.fail("key %v maps to free slot %d", k, i)
	}
	e := c.slots.At(i)
	if e.key != k {
		c.fail("key %v maps to slot %d holding key %v", k, i, e.key)
	}
	return e
}

// dropLocked unlinks slot i and deletes its key.
func (c *LRU[K, V]) dropLocked(i int32) (K, V) {
	e := c.slots.At(i)
	k, v := e.key, e.val
	if j, ok := c.m[k]; !ok || j != i {
		c.fail("slot %d holds key %v not mapped to it", i, k)
	}
	c.slots.Unlink(&c.order, i)
	c.slots.Release(i)
	delete(c.m, k)
	return k, v
}

func (c *LRU[K, V]) evictLocked(i int32, reason EvictReason) {
	k, v := c.dropLocked(i)
	c.evicted(k, v, reason)
}

// checkLocked walks the order list and verifies it matches the map exactly.
func (c *LRU[K, V]) checkLocked() error {
	if c.order.Len() != len(c.m) || c.slots.Len() != len(c.m) {
		return fmt.Errorf("sizes diverge: list=%d map=%d slots=%d", c.order.Len(), len(c.m), c.slots.Len())
	}
	if len(c.m) > c.capacity {
		return fmt.Errorf("size %d exceeds capacity %d", len(c.m), c.capacity)
	}
	seen := 0
	prev := arena.Nil
	for i := c.order.Front(); i != arena.Nil; i = c.slots.Next(i) {
		if c.slots.Prev(i) != prev {
			return fmt.Errorf("slot %d: prev link %d, want %d", i, c.slots.Prev(i), prev)
		}
		k := c.slots.At(i).key
		if j, ok := c.m[k]; !ok || j != i {
			return fmt.Errorf("listed key %v at slot %d is mapped to %d (present=%v)", k, i, j, ok)
		}
		prev = i
		if seen++; seen > len(c.m) {
			return fmt.Errorf("order list has a cycle")
		}
	}
	if prev != c.order.Back() {
		return fmt.Errorf("tail %d, walk ended at %d", c.order.Back(), prev)
	}
	return nil
}

var _ Cache[string, int] = (*LRU[string, int])(nil)
