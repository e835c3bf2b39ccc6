package cache

import "time"

// Cache is a bounded in-memory key/value cache.
// All methods are safe for concurrent use by multiple goroutines; each
// instance serializes its operations under one lock.
//
// The LRU and LFU engines run every operation in O(1); the policy-driven
// shell pays whatever its EvictionPolicy costs when it has to evict.
type Cache[K comparable, V any] interface {
	// Put inserts or updates k→v.
	// A new key gets the cache's DefaultTTL (if any); a live key keeps its
	// current expiry. A key that is resident but expired is dropped (reason
	// ttl) and inserted as new. Updates count as an access for the eviction
	// order.
	Put(k K, v V)

	// PutWithTTL inserts or updates k→v with a per-key TTL (relative duration).
	// A negative ttl is rejected with ErrNegativeTTL and nothing changes.
	// ttl == 0 is honoured: the entry expires at any instant after now.
	PutWithTTL(k K, v V, ttl time.Duration) error

	// Get returns the value for k and a presence flag.
	// Expired entries are dropped on the spot and reported as a miss.
	Get(k K) (V, bool)

	// Remove deletes k if present and returns its previous value.
	Remove(k K) (V, bool)

	// Clear drops every entry. Hit, miss and eviction counters survive.
	Clear()

	// Len returns the number of resident entries, expired-but-unseen included.
	Len() int

	// Stats returns a point-in-time snapshot of the counters.
	Stats() Stats

	// Sweep eagerly removes every expired entry and returns how many it
	// dropped. The cache never calls it by itself; see SweepEvery.
	Sweep() int
}

// Sweeper is the maintenance surface driven by SweepEvery.
type Sweeper interface {
	Sweep() int
}
