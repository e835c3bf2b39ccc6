package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/IvanBrykalov/evictcache/internal/arena"
	"github.com/IvanBrykalov/evictcache/policy"
)

// bucket holds the entries sharing one access count, in the order they
// entered it (front = oldest, evicted first). Buckets form an ascending
// chain; empty buckets are unlinked at once, so the chain head is always
// the minimum frequency.
type bucket struct {
	freq  int64
	items arena.List
	prev  *bucket
	next  *bucket
}

// LFU is the frequency engine. Put, Get, Remove and eviction are O(1):
// an access moves the entry from bucket f to bucket f+1, creating it right
// after f when missing.
type LFU[K comparable, V any] struct {
	core[K, V]

	// ---- guarded by mu ----
	mu    sync.Mutex
	m     map[K]int32
	slots *arena.Arena[entry[K, V]]
	head  *bucket // minFrequency bucket; nil when empty
}

// NewLFU builds a frequency engine. A non-positive capacity (or any other
// configuration error) yields an ErrConfiguration and no cache.
func NewLFU[K comparable, V any](opt Options[K, V]) (*LFU[K, V], error) {
	base, err := newCore(opt, EngineLFU)
	if err != nil {
		return nil, err
	}
	return &LFU[K, V]{
		core:  base,
		m:     make(map[K]int32, opt.Capacity),
		slots: arena.New[entry[K, V]](opt.Capacity),
	}, nil
}

// Put inserts or updates k→v. Updating an existing key counts as an access
// and raises its frequency by one, exactly like a Get hit. A new key meeting
// a full cache evicts the oldest entry of the lowest frequency first, then
// enters at frequency 1.
func (c *LFU[K, V]) Put(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(k, v, 0, false)
}

// PutWithTTL is Put with a per-key TTL. A negative ttl returns
// ErrNegativeTTL and leaves the cache untouched.
func (c *LFU[K, V]) PutWithTTL(k K, v V, ttl time.Duration) error {
	if err := c.checkTTL(ttl); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(k, v, ttl, true)
	return nil
}

// Get returns the value for k and raises its frequency.
// An expired entry is evicted (EvictTTL) and reported as a miss.
func (c *LFU[K, V]) Get(k K) (V, bool) {
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
	c.promoteLocked(i)
	c.mon.OnHit()
	c.assert(c.checkLocked)
	return e.val, true
}

// Remove deletes k and returns its value. Explicit removals are not
// counted as evictions.
func (c *LFU[K, V]) Remove(k K) (V, bool) {
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

// Clear drops every entry and every bucket. Idempotent.
func (c *LFU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.m)
	clear(c.m)
	c.slots.Reset()
	c.head = nil
	c.mon.OnClear(n)
}

// Len returns the number of resident entries.
func (c *LFU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Stats returns a snapshot of the instance counters.
func (c *LFU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mon.Stats()
}

// Sweep evicts every expired entry (EvictTTL). O(n).
func (c *LFU[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var dead []int32
	for b := c.head; b != nil; b = b.next {
		for i := b.items.Front(); i != arena.Nil; i = c.slots.Next(i) {
			if c.slots.At(i).expired(now) {
				dead = append(dead, i)
			}
		}
	}
	for _, i := range dead {
		c.evictLocked(i, EvictTTL)
	}
	return len(dead)
}

// Keys returns the resident keys in eviction order: ascending frequency,
// oldest first within a frequency.
func (c *LFU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]K, 0, len(c.m))
	for b := c.head; b != nil; b = b.next {
		for i := b.items.Front(); i != arena.Nil; i = c.slots.Next(i) {
			out = append(out, c.slots.At(i).key)
		}
	}
	return out
}

// MinFrequency returns the lowest access count present, or 0 when empty.
func (c *LFU[K, V]) MinFrequency() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.head == nil {
		return 0
	}
	return c.head.freq
}

// Peek returns the value for k without changing its frequency or counters.
// Expired entries are reported absent but left in place.
func (c *LFU[K, V]) Peek(k K) (V, bool) {
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

// Access returns a copy of k's access statistics; AccessCount is its frequency.
func (c *LFU[K, V]) Access(k K) (policy.AccessStatistics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.m[k]
	if !ok {
		return policy.AccessStatistics{}, false
	}
	return c.entryAt(i, k).stats, true
}

// -------------------- internals (mu held) --------------------

func (c *LFU[K, V]) putLocked(k K, v V, ttl time.Duration, withTTL bool) {
	now := c.now()
	if i, ok := c.m[k]; ok {
		e := c.entryAt(i, k)
		if !e.expired(now) {
			c.update(e, v, now, ttl, withTTL)
			c.promoteLocked(i)
			c.assert(c.checkLocked)
			return
		}
		// Expired: the old frequency dies with it, the write starts at 1.
		c.evictLocked(i, EvictTTL)
	}

	if len(c.m) >= c.capacity {
		if c.head == nil {
			c.fail("full cache (%d keys) has no buckets", len(c.m))
		}
		c.evictLocked(c.head.items.Front(), EvictPolicy)
	}

	i := c.slots.Alloc(c.newEntry(k, v, now, ttl, withTTL))
	b := c.head
	if b == nil || b.freq != 1 {
		b = &bucket{freq: 1, items: arena.NewList(), next: c.head}
		if c.head != nil {
			c.head.prev = b
		}
		c.head = b
	}
	c.slots.At(i).bucket = b
	c.slots.PushBack(&b.items, i)
	c.m[k] = i
	c.mon.OnPut()
	c.assert(c.checkLocked)
}

// promoteLocked moves slot i from its bucket f to bucket f+1. The caller
// has already bumped the entry's access count.
func (c *LFU[K, V]) promoteLocked(i int32) {
	e := c.slots.At(i)
	b := e.bucket
	nb := b.next
	if nb == nil || nb.freq != b.freq+1 {
		nb = &bucket{freq: b.freq + 1, items: arena.NewList(), prev: b, next: b.next}
		if b.next != nil {
			b.next.prev = nb
		}
		b.next = nb
	}
	c.slots.Unlink(&b.items, i)
	c.slots.PushBack(&nb.items, i)
	e.bucket = nb
	if b.items.Len() == 0 {
		c.unlinkBucket(b)
	}
}

// unlinkBucket removes an empty bucket from the chain. Removing the head
// advances the minimum frequency to the next bucket (nil when none).
func (c *LFU[K, V]) unlinkBucket(b *bucket) {
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		c.head = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	}
	b.prev, b.next = nil, nil
}

// entryAt resolves a map index and cross-checks the slot's key.
func (c *LFU[K, V]) entryAt(i int32, k K) *entry[K, V] {
	if !c.slots.Live(i) {
		c.fail("key %v maps to free slot %d", k, i)
	}
	e := c.slots.At(i)
	if e.key != k {
		c.fail("key %v maps to slot %d holding key %v", k, i, e.key)
	}
	return e
}

// dropLocked detaches slot i from its bucket and deletes its key.
func (c *LFU[K, V]) dropLocked(i int32) (K, V) {
	e := c.slots.At(i)
	k, v := e.key, e.val
	if j, ok := c.m[k]; !ok || j != i {
		c.fail("slot %d holds key %v not mapped to it", i, k)
	}
	b := e.bucket
	if b == nil {
		c.fail("key %v is in no bucket", k)
	}
	c.slots.Unlink(&b.items, i)
	if b.items.Len() == 0 {
		c.unlinkBucket(b)
	}
	c.slots.Release(i)
	delete(c.m, k)
	return k, v
}

func (c *LFU[K, V]) evictLocked(i int32, reason EvictReason) {
	k, v := c.dropLocked(i)
	c.evicted(k, v, reason)
}

// checkLocked verifies the bucket chain against the map: ascending, non-empty
// buckets; every listed slot mapped back to itself with a matching bucket and
// access count; and no key outside the chain.
func (c *LFU[K, V]) checkLocked() error {
	if c.slots.Len() != len(c.m) {
		return fmt.Errorf("sizes diverge: map=%d slots=%d", len(c.m), c.slots.Len())
	}
	if len(c.m) > c.capacity {
		return fmt.Errorf("size %d exceeds capacity %d", len(c.m), c.capacity)
	}
	if c.head != nil && c.head.prev != nil {
		return fmt.Errorf("head bucket %d has a prev link", c.head.freq)
	}
	seen := 0
	var prev *bucket
	for b := c.head; b != nil; b = b.next {
		if b.prev != prev {
			return fmt.Errorf("bucket %d: broken prev link", b.freq)
		}
		if prev != nil && b.freq <= prev.freq {
			return fmt.Errorf("bucket %d follows bucket %d", b.freq, prev.freq)
		}
		if b.items.Len() == 0 {
			return fmt.Errorf("empty bucket %d left in chain", b.freq)
		}
		n := 0
		for i := b.items.Front(); i != arena.Nil; i = c.slots.Next(i) {
			e := c.slots.At(i)
			if j, ok := c.m[e.key]; !ok || j != i {
				return fmt.Errorf("listed key %v at slot %d is mapped to %d (present=%v)", e.key, i, j, ok)
			}
			if e.bucket != b {
				return fmt.Errorf("key %v listed in bucket %d but points elsewhere", e.key, b.freq)
			}
			if e.stats.AccessCount() != b.freq {
				return fmt.Errorf("key %v has access count %d in bucket %d", e.key, e.stats.AccessCount(), b.freq)
			}
			if n++; n > b.items.Len() {
				return fmt.Errorf("bucket %d list has a cycle", b.freq)
			}
		}
		seen += n
		prev = b
	}
	if seen != len(c.m) {
		return fmt.Errorf("buckets hold %d keys, map holds %d", seen, len(c.m))
	}
	return nil
}

var _ Cache[string, int] = (*LFU[string, int])(nil)
