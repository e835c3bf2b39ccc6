package lfu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/evictcache/policy"
)

// withCounts builds statistics whose access counts equal the given values.
func withCounts(counts map[int]int) map[int]*policy.AccessStatistics {
	m := make(map[int]*policy.AccessStatistics, len(counts))
	for k, n := range counts {
		s := policy.NewAccessStatistics(0)
		for i := 1; i < n; i++ {
			s.RecordHit(0)
		}
		m[k] = s
	}
	return m
}

// The lowest access count is chosen and removed from the statistics map.
func TestFrequency_EvictsLeastAccessed(t *testing.T) {
	t.Parallel()

	stats := withCounts(map[int]int{1: 5, 2: 1, 3: 3})
	victim, ok, err := New[int]().ShouldEvict(3, 0, stats)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, victim)
	assert.NotContains(t, stats, 2, "victim must be removed from stats")
	assert.Len(t, stats, 2)
}

// Repeated decisions drain keys in ascending frequency order.
func TestFrequency_DrainOrder(t *testing.T) {
	t.Parallel()

	stats := withCounts(map[int]int{10: 3, 20: 1, 30: 2})
	p := New[int]()

	var order []int
	for {
		k, ok, err := p.ShouldEvict(len(stats), time.Second, stats)
		require.NoError(t, err)
		if !ok {
			break
		}
		order = append(order, k)
	}
	assert.Equal(t, []int{20, 30, 10}, order)
}

// Equal counts pick one of the tied keys; which one is unspecified.
func TestFrequency_TieIsOneOfTheMinimum(t *testing.T) {
	t.Parallel()

	stats := withCounts(map[int]int{1: 2, 2: 2, 3: 4})
	victim, ok, err := New[int]().ShouldEvict(3, 0, stats)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, []int{1, 2}, victim)
}

// Nothing tracked => no eviction.
func TestFrequency_EmptyStats(t *testing.T) {
	t.Parallel()

	_, ok, err := New[int]().ShouldEvict(1, 0, map[int]*policy.AccessStatistics{})
	require.NoError(t, err)
	assert.False(t, ok)
}
