package cache

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/evictcache/policy"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictPolicy: chosen by the eviction discipline (LRU tail, LFU minimum,
	// or the shell's EvictionPolicy).
	EvictPolicy EvictReason = iota
	// EvictTTL: expired; dropped by Get or Sweep.
	EvictTTL
	// EvictCapacity: dropped by the policy shell to hold the capacity bound
	// after its policy declined to pick a victim.
	EvictCapacity
)

// String returns a stable label ("policy", "ttl", "capacity").
func (r EvictReason) String() string {
	switch r {
	case EvictTTL:
		return "ttl"
	case EvictCapacity:
		return "capacity"
	default:
		return "policy"
	}
}

// Engine selects the cache implementation built by New.
type Engine int

const (
	// EngineLRU is the recency engine (default).
	EngineLRU Engine = iota
	// EngineLFU is the frequency engine.
	EngineLFU
	// EnginePolicy is the shell that delegates eviction to Options.Policy.
	EnginePolicy
)

func (e Engine) String() string {
	switch e {
	case EngineLRU:
		return "lru"
	case EngineLFU:
		return "lfu"
	case EnginePolicy:
		return "policy"
	default:
		return fmt.Sprintf("engine(%d)", int(e))
	}
}

// ParseEngine maps "lru", "lfu" or "policy" (case-insensitive) to an Engine.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lru", "":
		return EngineLRU, nil
	case "lfu":
		return EngineLFU, nil
	case "policy":
		return EnginePolicy, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	// Resize reports a change in the number of resident entries. Deltas from
	// several caches (or shards) sharing one sink add up correctly.
	Resize(delta int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock = policy.Clock

// Options configures a cache. Zero values are safe; defaults are applied by
// the constructors:
//   - Engine zero  => LRU
//   - Shards <= 1  => a single instance (exact global eviction order)
//   - nil Policy   => recency policy (EnginePolicy only)
//   - nil Metrics  => NoopMetrics
//   - nil Logger   => zap.NewNop()
//   - nil Clock    => time.Now()
type Options[K comparable, V any] struct {
	// Capacity is the entry count limit. Required, must be > 0.
	Capacity int

	// Engine picks the implementation built by New.
	Engine Engine

	// Shards splits the cache into independent instances (rounded up to a
	// power of two, capped by Capacity). Eviction order is then exact per
	// shard only. Honoured by New; the engine constructors ignore it.
	Shards int

	// DefaultTTL applies to Put on a new key (0 = no expiry).
	DefaultTTL time.Duration

	// Policy decides evictions for EnginePolicy.
	Policy policy.EvictionPolicy[K]
	// IdleTTL is the ttl handed to Policy.ShouldEvict (0 disables idle-based
	// policies such as recency).
	IdleTTL time.Duration

	// OnEvict is called for every eviction under the cache lock; keep it
	// lightweight and never call back into the same cache from it. With
	// Shards > 1 each shard calls it under its own lock, so it must be safe
	// for concurrent use.
	OnEvict func(k K, v V, reason EvictReason)
	Metrics Metrics
	Logger  *zap.Logger

	// Clock allows overriding the time source (tests). Nil => time.Now().
	Clock Clock

	// Debug walks the full map/ordering invariant after every mutation and
	// panics on divergence. O(n) per operation; meant for tests.
	Debug bool
}

// validate reports configuration errors; it never mutates o.
func (o *Options[K, V]) validate() error {
	if o.Capacity <= 0 || o.Capacity > math.MaxInt32 {
		return fmt.Errorf("%w (got %d)", ErrInvalidCapacity, o.Capacity)
	}
	if o.DefaultTTL < 0 {
		return fmt.Errorf("%w (got %v)", ErrInvalidDefaultTTL, o.DefaultTTL)
	}
	switch o.Engine {
	case EngineLRU, EngineLFU, EnginePolicy:
	default:
		return fmt.Errorf("%w: %v", ErrUnknownEngine, o.Engine)
	}
	return nil
}
