package cache

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/evictcache/policy"
	"github.com/IvanBrykalov/evictcache/policy/lru"
)

// Policy is the policy-driven cache shell: when a new key meets a full
// cache it asks Options.Policy which key to drop.
//
// The shell keeps entries in a map and exposes their statistics to the
// policy through a second map whose values point into the entries, so both
// views share one copy of each key's counters. If the policy declines (or
// fails), the shell evicts the entry with the oldest last access, reason
// EvictCapacity, so the capacity bound always holds.
type Policy[K comparable, V any] struct {
	core[K, V]
	pol policy.EvictionPolicy[K]

	// ---- guarded by mu ----
	mu    sync.Mutex
	items map[K]*entry[K, V]
	stats map[K]*policy.AccessStatistics
}

// NewPolicy builds a policy shell. A nil Options.Policy selects the recency
// policy, which with IdleTTL==0 degrades to plain LRU through the fallback.
func NewPolicy[K comparable, V any](opt Options[K, V]) (*Policy[K, V], error) {
	base, err := newCore(opt, EnginePolicy)
	if err != nil {
		return nil, err
	}
	pol := opt.Policy
	if pol == nil {
		pol = lru.New[K](opt.Clock)
	}
	return &Policy[K, V]{
		core:  base,
		pol:   pol,
		items: make(map[K]*entry[K, V], opt.Capacity),
		stats: make(map[K]*policy.AccessStatistics, opt.Capacity),
	}, nil
}

// Put inserts or updates k→v.
func (c *Policy[K, V]) Put(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(k, v, 0, false)
}

// PutWithTTL is Put with a per-key TTL. A negative ttl returns
// ErrNegativeTTL and leaves the cache untouched.
func (c *Policy[K, V]) PutWithTTL(k K, v V, ttl time.Duration) error {
	if err := c.checkTTL(ttl); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(k, v, ttl, true)
	return nil
}

// Get returns the value for k. An expired entry is evicted (EvictTTL) and
// reported as a miss.
func (c *Policy[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[k]
	if !ok {
		c.mon.OnMiss()
		return zero, false
	}
	now := c.now()
	if e.expired(now) {
		e.stats.RecordMiss(now)
		c.evictLocked(k, EvictTTL)
		c.mon.OnMiss()
		return zero, false
	}
	e.stats.RecordHit(now)
	c.mon.OnHit()
	return e.val, true
}

// Remove deletes k and returns its value.
func (c *Policy[K, V]) Remove(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[k]
	if !ok {
		var zero V
		return zero, false
	}
	c.dropLocked(k)
	c.mon.OnRemove()
	c.assert(c.checkLocked)
	return e.val, true
}

// Clear drops every entry. Idempotent.
func (c *Policy[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.items)
	clear(c.items)
	clear(c.stats)
	c.mon.OnClear(n)
}

// Len returns the number of resident entries.
func (c *Policy[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a snapshot of the instance counters.
func (c *Policy[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mon.Stats()
}

// Sweep evicts every expired entry (EvictTTL). O(n).
func (c *Policy[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.items {
		if e.expired(now) {
			c.evictLocked(k, EvictTTL)
			removed++
		}
	}
	return removed
}

// Access returns a copy of k's access statistics.
func (c *Policy[K, V]) Access(k K) (policy.AccessStatistics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[k]
	if !ok {
		return policy.AccessStatistics{}, false
	}
	return e.stats, true
}

// -------------------- internals (mu held) --------------------

func (c *Policy[K, V]) putLocked(k K, v V, ttl time.Duration, withTTL bool) {
	now := c.now()
	if e, ok := c.items[k]; ok {
		if !e.expired(now) {
			c.update(e, v, now, ttl, withTTL)
			return
		}
		c.evictLocked(k, EvictTTL)
	}

	if len(c.items) >= c.capacity {
		c.makeRoomLocked()
	}

	e := c.newEntry(k, v, now, ttl, withTTL)
	c.items[k] = &e
	c.stats[k] = &e.stats
	c.mon.OnPut()
	c.assert(c.checkLocked)
}

// makeRoomLocked evicts exactly one entry from a full cache.
func (c *Policy[K, V]) makeRoomLocked() {
	victim, ok, err := c.pol.ShouldEvict(len(c.items), c.opt.IdleTTL, c.stats)
	switch {
	case err != nil:
		c.log.Warn("eviction policy failed, evicting stalest entry", zap.Error(err))
	case ok:
		if _, live := c.items[victim]; !live {
			c.fail("policy chose non-resident key %v", victim)
		}
		c.evictLocked(victim, EvictPolicy)
		return
	}
	if k, found := c.stalestLocked(); found {
		c.evictLocked(k, EvictCapacity)
		return
	}
	c.fail("full cache (%d keys) has nothing to evict", len(c.items))
}

// stalestLocked returns the key with the oldest last access. It reads the
// entries, not the stats map, which a policy may have edited.
func (c *Policy[K, V]) stalestLocked() (K, bool) {
	var (
		victim K
		found  bool
		oldest int64
	)
	for k, e := range c.items {
		if !found || e.stats.LastAccess() < oldest {
			victim, oldest, found = k, e.stats.LastAccess(), true
		}
	}
	return victim, found
}

// dropLocked deletes k from both maps. The stats entry may already be gone
// when a policy removed it while choosing k.
func (c *Policy[K, V]) dropLocked(k K) *entry[K, V] {
	e, ok := c.items[k]
	if !ok {
		c.fail("drop of non-resident key %v", k)
	}
	if s, tracked := c.stats[k]; tracked && s != &e.stats {
		c.fail("statistics of key %v are detached from its entry", k)
	}
	delete(c.items, k)
	delete(c.stats, k)
	return e
}

func (c *Policy[K, V]) evictLocked(k K, reason EvictReason) {
	e := c.dropLocked(k)
	c.evicted(k, e.val, reason)
}

// checkLocked verifies that the entry map and the statistics map describe
// the same keys and share counters.
func (c *Policy[K, V]) checkLocked() error {
	if len(c.items) != len(c.stats) {
		return fmt.Errorf("sizes diverge: items=%d stats=%d", len(c.items), len(c.stats))
	}
	if len(c.items) > c.capacity {
		return fmt.Errorf("size %d exceeds capacity %d", len(c.items), c.capacity)
	}
	for k, e := range c.items {
		if e.key != k {
			return fmt.Errorf("key %v holds entry for %v", k, e.key)
		}
		if s, ok := c.stats[k]; !ok || s != &e.stats {
			return fmt.Errorf("key %v: statistics missing or detached", k)
		}
	}
	return nil
}

var _ Cache[string, int] = (*Policy[string, int])(nil)
