package lru

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/evictcache/policy"
)

// --- test doubles ---

type fakeClock struct{ t int64 }

func (f *fakeClock) NowUnixNano() int64  { return f.t }
func (f *fakeClock) add(d time.Duration) { f.t += int64(d) }

// statsAt builds a stats map where each key's last access is the given offset.
func statsAt(offsets map[string]time.Duration) map[string]*policy.AccessStatistics {
	m := make(map[string]*policy.AccessStatistics, len(offsets))
	for k, off := range offsets {
		m[k] = policy.NewAccessStatistics(int64(off))
	}
	return m
}

// --- tests ---

// A non-positive cache size is an invalid argument.
func TestRecency_NonPositiveSizeIsInvalid(t *testing.T) {
	t.Parallel()

	p := New[string](&fakeClock{})
	for _, size := range []int{0, -3} {
		_, ok, err := p.ShouldEvict(size, time.Second, statsAt(map[string]time.Duration{"a": 0}))
		require.Error(t, err)
		assert.True(t, errors.Is(err, policy.ErrInvalidSize))
		assert.True(t, errors.Is(err, policy.ErrInvalidArgument))
		assert.False(t, ok)
	}
}

// ttl <= 0 disables the policy entirely.
func TestRecency_DisabledWithoutTTL(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	clk.add(time.Hour)
	p := New[string](clk)
	stats := statsAt(map[string]time.Duration{"a": 0})

	for _, ttl := range []time.Duration{0, -time.Second} {
		_, ok, err := p.ShouldEvict(1, ttl, stats)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

// The stalest key is reported once its idle time reaches ttl, and the
// statistics map is left untouched.
func TestRecency_EvictsStalestWhenIdleLongEnough(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	p := New[string](clk)
	stats := statsAt(map[string]time.Duration{
		"old":   1 * time.Second,
		"mid":   2 * time.Second,
		"fresh": 3 * time.Second,
	})

	clk.t = int64(3 * time.Second)
	_, ok, err := p.ShouldEvict(3, 5*time.Second, stats)
	require.NoError(t, err)
	assert.False(t, ok, "old is idle 2s < 5s")

	clk.t = int64(6 * time.Second) // old idle exactly 5s: boundary is inclusive
	victim, ok, err := p.ShouldEvict(3, 5*time.Second, stats)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "old", victim)
	assert.Len(t, stats, 3, "recency must not mutate stats")
}

// Empty statistics never evict.
func TestRecency_EmptyStats(t *testing.T) {
	t.Parallel()

	p := New[string](&fakeClock{})
	_, ok, err := p.ShouldEvict(1, time.Second, map[string]*policy.AccessStatistics{})
	require.NoError(t, err)
	assert.False(t, ok)
}
