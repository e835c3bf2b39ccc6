// Package cachefx provides an fx module that builds a cache, optionally runs
// its TTL sweeper, and tears both down with the application.
package cachefx

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/IvanBrykalov/evictcache/cache"
)

// Params holds the dependencies the module consumes. Both are optional:
// without a logger the cache logs nowhere, without Metrics it counts only
// in its own Stats.
type Params struct {
	fx.In

	Logger    *zap.Logger   `optional:"true"`
	Metrics   cache.Metrics `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Module provides a cache.Cache[K, V] built from opt. Logger and Metrics in
// opt take precedence over the ones found in the graph. With sweep > 0 a
// SweepEvery loop runs between start and stop. On stop the final Stats are
// logged and the cache is cleared.
func Module[K comparable, V any](name string, opt cache.Options[K, V], sweep time.Duration) fx.Option {
	return fx.Module(name,
		fx.Provide(func(p Params) (cache.Cache[K, V], error) {
			return newCache(p, name, opt, sweep)
		}),
	)
}

func newCache[K comparable, V any](p Params, name string, opt cache.Options[K, V], sweep time.Duration) (cache.Cache[K, V], error) {
	if opt.Logger == nil {
		opt.Logger = p.Logger
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	opt.Logger = opt.Logger.Named(name)
	if opt.Metrics == nil {
		opt.Metrics = p.Metrics
	}
	log := opt.Logger

	c, err := cache.New(opt)
	if err != nil {
		return nil, err
	}

	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if sweep <= 0 {
				return nil
			}
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			done = make(chan struct{})
			go func() {
				defer close(done)
				if err := cache.SweepEvery(ctx, c, sweep, log); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("sweeper stopped", zap.Error(err))
				}
			}()
			log.Info("sweeper started", zap.Duration("interval", sweep))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
				select {
				case <-done:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			st := c.Stats()
			log.Info("cache stopped",
				zap.Int64("hits", st.Hits),
				zap.Int64("misses", st.Misses),
				zap.Int64("evictions", st.Evictions),
				zap.Int64("size", st.Size),
				zap.Float64("hit_ratio", st.HitRatio()),
			)
			c.Clear()
			return nil
		},
	})
	return c, nil
}
