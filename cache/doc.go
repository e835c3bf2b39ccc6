// Package cache provides fast, generic, bounded in-memory caches with two
// built-in eviction disciplines (LRU and LFU), a shell that delegates
// eviction to a pluggable policy, per-entry TTL, and live statistics.
//
// Design
//
//   - Concurrency: every instance is guarded by one sync.Mutex held for the
//     whole of each public call; map and ordering structure always change
//     together under it. Options.Shards runs independent instances, so
//     eviction order becomes exact per shard only.
//
//   - Storage: the LRU and LFU engines keep entries in an arena of fixed
//     slots with a free list (internal/arena). The lookup map holds slot
//     indices; the index-linked lists own the slots. All operations are O(1).
//
//   - LRU: a single MRU↔LRU list; Get and Put promote to the front, a full
//     cache evicts the back.
//
//   - LFU: entries live in frequency buckets chained in ascending order.
//     The chain head is the minimum frequency; within a bucket the oldest
//     arrival is evicted first. New keys enter at frequency 1. Put on an
//     existing key counts as an access.
//
//   - Policy shell: Policy asks a policy.EvictionPolicy (policy/lfu,
//     policy/lru) which key to evict; it falls back to the stalest entry
//     when the policy declines so capacity is never exceeded.
//
//   - TTL: PutWithTTL attaches a deadline; negative TTLs are rejected with
//     ErrNegativeTTL before anything changes. Expiration is lazy on Get.
//     Sweep is an explicit maintenance call; SweepEvery drives it from a
//     goroutine the caller owns.
//
//   - Statistics: each key carries policy.AccessStatistics; each instance
//     owns a Monitor whose atomics back Stats(). Options.Metrics receives
//     the same hooks (see metrics/prom for a Prometheus adapter).
//
//   - Errors: constructors fail with ErrConfiguration; a divergence between
//     map and ordering panics with ErrInternalConsistency. Misses are
//     (zero, false), never errors.
//
// Basic usage
//
//	c, err := cache.NewLRU[string, []byte](cache.Options[string, []byte]{Capacity: 10_000})
//	if err != nil {
//	    return err
//	}
//	c.Put("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Remove("a")
//
// With TTL
//
//	if err := c.PutWithTTL("tmp", []byte("v"), 200*time.Millisecond); err != nil {
//	    return err // only for ttl < 0
//	}
//
// Frequency engine behind the common interface
//
//	c, err := cache.New[int, string](cache.Options[int, string]{
//	    Capacity: 1024,
//	    Engine:   cache.EngineLFU,
//	})
//
// Policy shell with the frequency policy
//
//	c, err := cache.NewPolicy[string, int](cache.Options[string, int]{
//	    Capacity: 512,
//	    Policy:   lfu.New[string](),
//	})
//
// OnEvict callbacks and Metrics hooks run under the instance lock; keep them
// short and never call back into the same cache.
package cache
