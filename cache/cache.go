package cache

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/evictcache/internal/util"
	"github.com/IvanBrykalov/evictcache/policy"
)

// New constructs the cache selected by opt.Engine.
// With opt.Shards > 1 the capacity is split across independent instances of
// that engine and keys are routed by hash.
func New[K comparable, V any](opt Options[K, V]) (Cache[K, V], error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	build := builder[K, V](opt.Engine)

	n := util.ShardCount(opt.Shards, opt.Capacity)
	if n == 1 {
		return build(opt)
	}
	return newSharded(opt, n, build)
}

// builder returns the constructor for engine as a func yielding the
// interface. A failed constructor yields a nil interface, not a typed nil.
func builder[K comparable, V any](engine Engine) func(Options[K, V]) (Cache[K, V], error) {
	switch engine {
	case EngineLFU:
		return func(o Options[K, V]) (Cache[K, V], error) {
			c, err := NewLFU(o)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	case EnginePolicy:
		return func(o Options[K, V]) (Cache[K, V], error) {
			c, err := NewPolicy(o)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	default:
		return func(o Options[K, V]) (Cache[K, V], error) {
			c, err := NewLRU(o)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	}
}

// core carries what every engine shares: options with defaults applied, the
// per-instance monitor and the logger. All methods assume the engine lock
// is held unless noted.
type core[K comparable, V any] struct {
	opt      Options[K, V]
	capacity int
	mon      *Monitor
	log      *zap.Logger
}

func newCore[K comparable, V any](opt Options[K, V], engine Engine) (core[K, V], error) {
	if err := opt.validate(); err != nil {
		return core[K, V]{}, err
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	log := opt.Logger.With(zap.Stringer("engine", engine))
	log.Debug("cache created",
		zap.Int("capacity", opt.Capacity),
		zap.Duration("default_ttl", opt.DefaultTTL),
	)
	return core[K, V]{
		opt:      opt,
		capacity: opt.Capacity,
		mon:      NewMonitor(opt.Metrics),
		log:      log,
	}, nil
}

func (c *core[K, V]) now() int64 { return policy.Now(c.opt.Clock) }

// newEntry builds an entry inserted at now. withTTL selects ttl; otherwise
// DefaultTTL applies when positive.
func (c *core[K, V]) newEntry(k K, v V, now int64, ttl time.Duration, withTTL bool) entry[K, V] {
	e := entry[K, V]{key: k, val: v, stats: *policy.NewAccessStatistics(now)}
	switch {
	case withTTL:
		e.setTTL(now, ttl)
	case c.opt.DefaultTTL > 0:
		e.setTTL(now, c.opt.DefaultTTL)
	}
	return e
}

// update overwrites an existing entry in place and counts the access.
// Without withTTL the entry keeps its current expiry.
func (c *core[K, V]) update(e *entry[K, V], v V, now int64, ttl time.Duration, withTTL bool) {
	e.val = v
	if withTTL {
		e.setTTL(now, ttl)
	}
	e.stats.RecordUpdate(now)
}

// checkTTL rejects negative TTLs before any lock or mutation. Lock-free.
func (c *core[K, V]) checkTTL(ttl time.Duration) error {
	if ttl >= 0 {
		return nil
	}
	c.log.Warn("rejected negative ttl", zap.Duration("ttl", ttl))
	return fmt.Errorf("%w (got %v)", ErrNegativeTTL, ttl)
}

// evicted reports an entry the cache dropped by itself.
func (c *core[K, V]) evicted(k K, v V, reason EvictReason) {
	c.mon.OnEviction(reason)
	if ce := c.log.Check(zap.DebugLevel, "evicted"); ce != nil {
		ce.Write(zap.Any("key", k), zap.Stringer("reason", reason))
	}
	if cb := c.opt.OnEvict; cb != nil {
		cb(k, v, reason)
	}
}

// fail logs and panics with a wrapped ErrInternalConsistency. Continuing
// after divergence could serve wrong values or leak capacity.
func (c *core[K, V]) fail(format string, args ...any) {
	err := fmt.Errorf("%w: %s", ErrInternalConsistency, fmt.Sprintf(format, args...))
	c.log.Error("cache invariant broken", zap.Error(err))
	panic(err)
}

// assert runs check after a mutation when Options.Debug is set.
func (c *core[K, V]) assert(check func() error) {
	if !c.opt.Debug {
		return
	}
	if err := check(); err != nil {
		c.fail("%v", err)
	}
}
