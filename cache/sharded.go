package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/evictcache/internal/util"
)

// sharded partitions the key space over independent engine instances, each
// with its own lock, monitor and slice of the capacity. Eviction order is
// exact within a shard and approximate across the whole cache.
type sharded[K comparable, V any] struct {
	shards []Cache[K, V]
	hash   func(K) uint64
}

// newSharded splits opt.Capacity across n shards (n is a power of two and
// <= Capacity). The remainder goes to the first shards, so the per-shard
// capacities add up to exactly Capacity.
func newSharded[K comparable, V any](opt Options[K, V], n int, build func(Options[K, V]) (Cache[K, V], error)) (*sharded[K, V], error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	base, extra := opt.Capacity/n, opt.Capacity%n

	s := &sharded[K, V]{shards: make([]Cache[K, V], n), hash: util.Hash[K]}
	for i := range s.shards {
		so := opt
		so.Capacity = base
		if i < extra {
			so.Capacity++
		}
		so.Logger = log.With(zap.Int("shard", i))
		c, err := build(so)
		if err != nil {
			return nil, err
		}
		s.shards[i] = c
	}
	log.Debug("sharded cache created", zap.Int("shards", n), zap.Int("capacity", opt.Capacity))
	return s, nil
}

func (s *sharded[K, V]) shard(k K) Cache[K, V] {
	return s.shards[util.ShardIndex(s.hash(k), len(s.shards))]
}

func (s *sharded[K, V]) Put(k K, v V) { s.shard(k).Put(k, v) }

func (s *sharded[K, V]) PutWithTTL(k K, v V, ttl time.Duration) error {
	return s.shard(k).PutWithTTL(k, v, ttl)
}

func (s *sharded[K, V]) Get(k K) (V, bool)    { return s.shard(k).Get(k) }
func (s *sharded[K, V]) Remove(k K) (V, bool) { return s.shard(k).Remove(k) }

func (s *sharded[K, V]) Clear() {
	for _, c := range s.shards {
		c.Clear()
	}
}

func (s *sharded[K, V]) Len() int {
	total := 0
	for _, c := range s.shards {
		total += c.Len()
	}
	return total
}

// Stats sums the shard snapshots. Shards are read one after another, so the
// sum is not atomic across shards.
func (s *sharded[K, V]) Stats() Stats {
	var total Stats
	for _, c := range s.shards {
		total = total.add(c.Stats())
	}
	return total
}

func (s *sharded[K, V]) Sweep() int {
	removed := 0
	for _, c := range s.shards {
		removed += c.Sweep()
	}
	return removed
}
