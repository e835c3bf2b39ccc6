package cache

import (
	"math"
	"time"

	"github.com/IvanBrykalov/evictcache/policy"
)

// entry is the unit of storage. The engines keep entries in an arena slot
// (the slot's links give the entry its list position); the policy shell
// keeps them behind a pointer.
type entry[K comparable, V any] struct {
	key K
	val V

	// ttl is the last TTL supplied for the key; exp is the absolute
	// UnixNano deadline derived from it. expires=false means no TTL.
	ttl     time.Duration
	exp     int64
	expires bool

	stats policy.AccessStatistics

	// bucket is the owning frequency bucket (LFU engine only).
	bucket *bucket
}

// expired reports whether now is past the entry's deadline.
func (e *entry[K, V]) expired(now int64) bool {
	return e.expires && now > e.exp
}

// setTTL replaces the entry's TTL, measured from now.
func (e *entry[K, V]) setTTL(now int64, ttl time.Duration) {
	e.ttl = ttl
	e.exp = deadline(now, ttl)
	e.expires = true
}

// deadline converts a relative TTL into an absolute UnixNano deadline,
// saturating at MaxInt64 instead of wrapping.
func deadline(now int64, ttl time.Duration) int64 {
	if ttl > 0 && now > math.MaxInt64-int64(ttl) {
		return math.MaxInt64
	}
	return now + int64(ttl)
}
