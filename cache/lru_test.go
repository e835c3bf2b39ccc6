package cache

import (
	"math/rand"
	"slices"
	"testing"
	"time"

	hlru "github.com/hashicorp/golang-lru/v2"
	"github.com/stretchr/testify/require"
)

func newLRU(t *testing.T, capacity int) *LRU[int, string] {
	t.Helper()
	c, err := NewLRU(Options[int, string]{Capacity: capacity, Debug: true})
	require.NoError(t, err)
	return c
}

// Accessing 1 promotes it; inserting 3 evicts the LRU (2).
func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	var evicted []int
	c, err := NewLRU(Options[int, string]{
		Capacity: 2,
		Debug:    true,
		OnEvict: func(k int, _ string, r EvictReason) {
			require.Equal(t, EvictPolicy, r)
			evicted = append(evicted, k)
		},
	})
	require.NoError(t, err)

	c.Put(1, "one")
	c.Put(2, "two")
	_, ok := c.Get(1)
	require.True(t, ok)
	c.Put(3, "three")

	_, ok = c.Get(2)
	require.False(t, ok, "2 must be evicted")
	v, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, "one", v)
	require.Equal(t, []int{2}, evicted)
	require.Equal(t, []int{1, 3}, c.Keys())
}

// Overwriting a key counts as use.
func TestLRU_UpdatePromotes(t *testing.T) {
	t.Parallel()

	c := newLRU(t, 2)
	c.Put(1, "a")
	c.Put(2, "b")
	c.Put(1, "a2")
	c.Put(3, "c")

	require.Equal(t, []int{3, 1}, c.Keys())
	v, ok := c.Peek(1)
	require.True(t, ok)
	require.Equal(t, "a2", v)
}

func TestLRU_PeekDoesNotPromote(t *testing.T) {
	t.Parallel()

	c := newLRU(t, 2)
	c.Put(1, "a")
	c.Put(2, "b")
	_, ok := c.Peek(1)
	require.True(t, ok)
	c.Put(3, "c")

	_, ok = c.Peek(1)
	require.False(t, ok)
	require.Zero(t, c.Stats().Hits)
	require.Zero(t, c.Stats().Misses)
}

func TestLRU_AccessStatistics(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: 10}
	c, err := NewLRU(Options[string, int]{Capacity: 4, Clock: clk})
	require.NoError(t, err)

	c.Put("a", 1)
	st, ok := c.Access("a")
	require.True(t, ok)
	require.EqualValues(t, 1, st.AccessCount())
	require.EqualValues(t, 10, st.LastAccess())

	clk.add(time.Second)
	_, _ = c.Get("a")
	clk.add(time.Second)
	c.Put("a", 2)

	st, ok = c.Access("a")
	require.True(t, ok)
	require.EqualValues(t, 3, st.AccessCount())
	require.EqualValues(t, 1, st.Hits())
	require.Equal(t, time.Unix(0, 10+int64(2*time.Second)), st.LastAccessTime())

	_, ok = c.Access("missing")
	require.False(t, ok)
}

// Explicit removal is not an eviction and keeps the order of the rest.
func TestLRU_RemoveKeepsOrder(t *testing.T) {
	t.Parallel()

	c := newLRU(t, 4)
	for i := 1; i <= 4; i++ {
		c.Put(i, "v")
	}
	_, ok := c.Remove(2)
	require.True(t, ok)
	require.Equal(t, []int{4, 3, 1}, c.Keys())

	_, ok = c.Remove(1) // tail
	require.True(t, ok)
	_, ok = c.Remove(4) // head
	require.True(t, ok)
	require.Equal(t, []int{3}, c.Keys())
	require.Zero(t, c.Stats().Evictions)
	require.EqualValues(t, 1, c.Stats().Size)
}

func TestLRU_CapacityOne(t *testing.T) {
	t.Parallel()

	c := newLRU(t, 1)
	c.Put(1, "a")
	c.Put(2, "b")
	require.Equal(t, []int{2}, c.Keys())
	c.Put(2, "b2")
	require.Equal(t, 1, c.Len())
	require.EqualValues(t, 1, c.Stats().Evictions)
}

// Differential check against hashicorp/golang-lru: identical operation
// sequences must leave both caches with the same contents in the same order.
func TestLRU_MatchesReferenceImplementation(t *testing.T) {
	t.Parallel()

	const capacity = 32
	ref, err := hlru.New[int, int](capacity)
	require.NoError(t, err)
	c, err := NewLRU(Options[int, int]{Capacity: capacity, Debug: true})
	require.NoError(t, err)

	r := rand.New(rand.NewSource(7))
	for step := range 20_000 {
		k := r.Intn(96)
		switch op := r.Intn(10); {
		case op < 5:
			c.Put(k, step)
			ref.Add(k, step)
		case op < 9:
			got, ok := c.Get(k)
			want, wantOK := ref.Get(k)
			require.Equal(t, wantOK, ok, "step %d key %d", step, k)
			require.Equal(t, want, got, "step %d key %d", step, k)
		default:
			_, ok := c.Remove(k)
			require.Equal(t, ref.Remove(k), ok, "step %d key %d", step, k)
		}
		require.Equal(t, ref.Len(), c.Len(), "step %d", step)
	}

	keys := ref.Keys() // oldest first
	slices.Reverse(keys)
	require.Equal(t, keys, c.Keys())
}

// In Debug mode a read hit re-checks the structure after promoting.
func TestLRU_DebugGetChecksStructure(t *testing.T) {
	t.Parallel()

	c := newLRU(t, 2)
	c.Put(1, "a")
	c.Put(2, "b")
	c.capacity = 1
	requirePanicIs(t, ErrInternalConsistency, func() { c.Get(1) })

	quiet, err := NewLRU(Options[int, string]{Capacity: 2})
	require.NoError(t, err)
	quiet.Put(1, "a")
	quiet.Put(2, "b")
	quiet.capacity = 1
	require.NotPanics(t, func() { quiet.Get(1) })
}
