// Command bench runs a synthetic Zipf workload against the cache and exposes
// optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/evictcache/cache"
	pmet "github.com/IvanBrykalov/evictcache/metrics/prom"
	"github.com/IvanBrykalov/evictcache/policy"
	"github.com/IvanBrykalov/evictcache/policy/lfu"
	"github.com/IvanBrykalov/evictcache/policy/lru"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// config mirrors the command-line flags.
type config struct {
	capacity   int
	shards     int
	engine     string
	policy     string
	idleTTL    time.Duration
	ttl        time.Duration
	sweepEvery time.Duration

	workers  int
	duration time.Duration
	readPct  int

	keys    int
	zipfS   float64
	zipfV   float64
	seed    int64
	preload int

	httpAddr string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	cfg := &config{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Synthetic read/write benchmark for evictcache",
		Long: `bench drives a skewed (Zipf) read/write workload against one of the
cache engines and reports throughput, hit rate and eviction counts.

Examples:
  # LRU, 8 shards, 10s
  bench --engine lru --shards 8

  # LFU with per-key TTL and a background sweeper
  bench --engine lfu --ttl 50ms --sweep-every 10ms

  # Policy shell driven by the frequency policy
  bench --engine policy --policy frequency --capacity 4096`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.capacity, "capacity", 100_000, "cache capacity (entries)")
	f.IntVar(&cfg.shards, "shards", 1, "number of shards (<=1 = single instance)")
	f.StringVar(&cfg.engine, "engine", "lru", "engine: lru | lfu | policy")
	f.StringVar(&cfg.policy, "policy", "recency", "policy for --engine policy: recency | frequency")
	f.DurationVar(&cfg.idleTTL, "idle-ttl", 0, "idle budget handed to the recency policy (0 = plain LRU fallback)")
	f.DurationVar(&cfg.ttl, "ttl", 0, "per-key TTL for writes (0 = none)")
	f.DurationVar(&cfg.sweepEvery, "sweep-every", 0, "run Sweep at this interval (0 = disabled)")

	f.IntVar(&cfg.workers, "workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
	f.DurationVar(&cfg.duration, "duration", 10*time.Second, "benchmark duration")
	f.IntVar(&cfg.readPct, "reads", 80, "read percentage [0..100]")

	f.IntVar(&cfg.keys, "keys", 1_000_000, "keyspace size")
	f.Float64Var(&cfg.zipfS, "zipf_s", 1.1, "Zipf s > 1 (skew)")
	f.Float64Var(&cfg.zipfV, "zipf_v", 1.0, "Zipf v >= 1")
	f.Int64Var(&cfg.seed, "seed", time.Now().UnixNano(), "random seed")
	f.IntVar(&cfg.preload, "preload", 0, "preload entries (0 = capacity/2)")

	f.StringVar(&cfg.httpAddr, "http", "", "serve /metrics and /debug/pprof at addr (e.g. :8080); empty = disabled")
	f.BoolVarP(&cfg.verbose, "verbose", "v", false, "development logging at debug level")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newPolicy(name string) (policy.EvictionPolicy[string], error) {
	switch name {
	case "recency", "lru":
		return lru.New[string](nil), nil
	case "frequency", "lfu":
		return lfu.New[string](), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (use recency or frequency)", name)
	}
}

func run(ctx context.Context, cfg *config) error {
	if cfg.keys < 1 {
		return errors.New("--keys must be >= 1")
	}
	if cfg.zipfS <= 1 || cfg.zipfV < 1 {
		return errors.New("--zipf_s must be > 1 and --zipf_v >= 1")
	}
	log, err := newLogger(cfg.verbose)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	engine, err := cache.ParseEngine(cfg.engine)
	if err != nil {
		return err
	}
	opt := cache.Options[string, string]{
		Capacity: cfg.capacity,
		Shards:   cfg.shards,
		Engine:   engine,
		IdleTTL:  cfg.idleTTL,
		Logger:   log,
	}
	if engine == cache.EnginePolicy {
		if opt.Policy, err = newPolicy(cfg.policy); err != nil {
			return err
		}
	}

	if cfg.httpAddr != "" {
		opt.Metrics = pmet.New(nil, "evictcache", "bench", nil)
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Info("serving metrics and pprof", zap.String("addr", cfg.httpAddr))
			if err := http.ListenAndServe(cfg.httpAddr, nil); err != nil {
				log.Error("http server stopped", zap.Error(err))
			}
		}()
	}

	c, err := cache.New(opt)
	if err != nil {
		return fmt.Errorf("building cache: %w", err)
	}

	// Preload half capacity to get a realistic hit-rate.
	pl := cfg.preload
	if pl == 0 {
		pl = cfg.capacity / 2
	}
	for i := 0; i < pl; i++ {
		c.Put("k:"+strconv.Itoa(i), "v"+strconv.Itoa(i))
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.duration)
	defer cancel()

	workers := max(cfg.workers, 1)
	var reads, writes, hits, total atomic.Uint64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.sweepEvery > 0 {
		g.Go(func() error {
			if err := cache.SweepEvery(gctx, c, cfg.sweepEvery, log); !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	for w := range workers {
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			r := rand.New(rand.NewSource(cfg.seed + int64(w)*9973))
			zipf := rand.NewZipf(r, cfg.zipfS, cfg.zipfV, uint64(cfg.keys-1))
			for gctx.Err() == nil {
				k := "k:" + strconv.FormatUint(zipf.Uint64(), 10)
				total.Add(1)
				if int(r.Int31n(100)) < cfg.readPct {
					reads.Add(1)
					if _, ok := c.Get(k); ok {
						hits.Add(1)
					}
					continue
				}
				writes.Add(1)
				v := "v" + strconv.Itoa(r.Int())
				if cfg.ttl > 0 {
					if err := c.PutWithTTL(k, v, cfg.ttl); err != nil {
						return err
					}
				} else {
					c.Put(k, v)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	ops, readsN, hitsN := total.Load(), reads.Load(), hits.Load()
	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}
	st := c.Stats()

	fmt.Printf("engine=%s policy=%s cap=%d shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		engine, cfg.policy, cfg.capacity, cfg.shards, workers, cfg.keys, elapsed, cfg.seed)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writes.Load())
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", st.Hits, st.Misses, hitRate)
	fmt.Printf("evictions=%d  Len()=%d\n", st.Evictions, c.Len())
	return nil
}
