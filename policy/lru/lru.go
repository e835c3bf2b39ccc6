// Package lru implements the recency (idle-time) eviction policy.
package lru

import (
	"time"

	"github.com/IvanBrykalov/evictcache/policy"
)

// Recency signals eviction of the least recently accessed key once that key
// has been idle for at least the caller's ttl. A non-positive ttl disables
// the policy. Recency never mutates the statistics it inspects.
type Recency[K comparable] struct {
	clock policy.Clock
}

// New returns a recency policy reading time from clock (nil => wall clock).
func New[K comparable](clock policy.Clock) *Recency[K] {
	return &Recency[K]{clock: clock}
}

// ShouldEvict reports the stalest key when its idle time reached ttl.
// Keys with equal last-access timestamps are resolved in map iteration order.
func (p *Recency[K]) ShouldEvict(size int, ttl time.Duration, stats map[K]*policy.AccessStatistics) (K, bool, error) {
	var victim K
	if size <= 0 {
		return victim, false, policy.ErrInvalidSize
	}
	if ttl <= 0 {
		return victim, false, nil
	}

	var (
		found  bool
		oldest int64
	)
	for k, s := range stats {
		if !found || s.LastAccess() < oldest {
			victim, oldest, found = k, s.LastAccess(), true
		}
	}
	if !found {
		return victim, false, nil
	}
	if stats[victim].Idle(policy.Now(p.clock)) < ttl {
		var zero K
		return zero, false, nil
	}
	return victim, true, nil
}

var _ policy.EvictionPolicy[string] = (*Recency[string])(nil)
