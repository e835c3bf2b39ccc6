package cache

import "github.com/IvanBrykalov/evictcache/internal/util"

// Stats is an immutable snapshot of a cache's counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64
}

// HitRatio returns Hits/(Hits+Misses), or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// add sums two snapshots (used to aggregate shards).
func (s Stats) add(o Stats) Stats {
	return Stats{
		Hits:      s.Hits + o.Hits,
		Misses:    s.Misses + o.Misses,
		Evictions: s.Evictions + o.Evictions,
		Size:      s.Size + o.Size,
	}
}

// Monitor aggregates one cache instance's hit/miss/eviction/size counters.
// Each counter is an independent atomic on its own cache line, so hooks may
// fire from any goroutine without the cache lock. Every hook is forwarded to
// the configured Metrics sink. The monitor is observational only.
type Monitor struct {
	hits      util.Counter
	misses    util.Counter
	evictions util.Counter
	size      util.Counter

	metrics Metrics
}

// NewMonitor returns a monitor forwarding to m (nil => NoopMetrics).
func NewMonitor(m Metrics) *Monitor {
	if m == nil {
		m = NoopMetrics{}
	}
	return &Monitor{metrics: m}
}

// OnHit records a served lookup.
func (m *Monitor) OnHit() {
	m.hits.Inc()
	m.metrics.Hit()
}

// OnMiss records a lookup of an absent or expired key.
func (m *Monitor) OnMiss() {
	m.misses.Inc()
	m.metrics.Miss()
}

// OnEviction records an entry dropped by the cache itself.
func (m *Monitor) OnEviction(reason EvictReason) {
	m.evictions.Inc()
	m.size.Dec()
	m.metrics.Evict(reason)
	m.metrics.Resize(-1)
}

// OnPut records the insertion of a new key. Updates do not call it.
func (m *Monitor) OnPut() {
	m.size.Inc()
	m.metrics.Resize(1)
}

// OnRemove records an explicit Remove.
func (m *Monitor) OnRemove() {
	m.size.Dec()
	m.metrics.Resize(-1)
}

// OnClear records that n entries were dropped by Clear.
func (m *Monitor) OnClear(n int) {
	if n == 0 {
		return
	}
	m.size.Add(int64(-n))
	m.metrics.Resize(-n)
}

// Stats returns a snapshot of the counters.
func (m *Monitor) Stats() Stats {
	return Stats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
		Size:      m.size.Load(),
	}
}
