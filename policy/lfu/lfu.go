// Package lfu implements the frequency eviction policy.
package lfu

import (
	"time"

	"github.com/IvanBrykalov/evictcache/policy"
)

// Frequency evicts the key with the lowest access count.
//
// Selection is a full scan of the statistics map, O(n) per decision. Among
// keys sharing the lowest count the first one met in map iteration wins, so
// ties are resolved non-deterministically. Use the LFU engine when a
// deterministic age-ordered tie-break is required.
type Frequency[K comparable] struct{}

// New returns a frequency policy.
func New[K comparable]() *Frequency[K] { return &Frequency[K]{} }

// ShouldEvict picks the least-accessed key, removes it from stats and
// reports it. It returns false only when stats is empty. size and ttl do not
// influence a frequency decision.
func (*Frequency[K]) ShouldEvict(_ int, _ time.Duration, stats map[K]*policy.AccessStatistics) (K, bool, error) {
	var (
		victim K
		found  bool
		lowest int64
	)
	for k, s := range stats {
		if !found || s.AccessCount() < lowest {
			victim, lowest, found = k, s.AccessCount(), true
		}
	}
	if !found {
		return victim, false, nil
	}
	delete(stats, victim)
	return victim, true, nil
}

var _ policy.EvictionPolicy[string] = (*Frequency[string])(nil)
