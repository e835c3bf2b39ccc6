package arena

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect walks l front to back, checking back-links on the way.
func collect(t *testing.T, a *Arena[string], l *List) []string {
	t.Helper()
	var out []string
	prev := Nil
	for i := l.Front(); i != Nil; i = a.Next(i) {
		require.Equal(t, prev, a.Prev(i), "broken prev link at %d", i)
		out = append(out, *a.At(i))
		prev = i
	}
	require.Equal(t, prev, l.Back())
	require.Len(t, out, l.Len())
	return out
}

func TestArena_PushAndUnlink(t *testing.T) {
	t.Parallel()

	a := New[string](4)
	l := NewList()

	x := a.Alloc("x")
	y := a.Alloc("y")
	z := a.Alloc("z")
	a.PushFront(&l, x)
	a.PushFront(&l, y)
	a.PushBack(&l, z)
	assert.Equal(t, []string{"y", "x", "z"}, collect(t, a, &l))

	a.Unlink(&l, x) // middle
	assert.Equal(t, []string{"y", "z"}, collect(t, a, &l))
	a.Unlink(&l, y) // head
	assert.Equal(t, []string{"z"}, collect(t, a, &l))
	a.Unlink(&l, z) // tail + last
	assert.Empty(t, collect(t, a, &l))
	assert.Equal(t, Nil, l.Front())
	assert.Equal(t, Nil, l.Back())
}

func TestArena_MoveToFront(t *testing.T) {
	t.Parallel()

	a := New[string](0)
	l := NewList()
	ids := map[string]int32{}
	for _, s := range []string{"a", "b", "c"} {
		ids[s] = a.Alloc(s)
		a.PushBack(&l, ids[s])
	}

	a.MoveToFront(&l, ids["c"])
	assert.Equal(t, []string{"c", "a", "b"}, collect(t, a, &l))
	a.MoveToFront(&l, ids["c"]) // already head
	assert.Equal(t, []string{"c", "a", "b"}, collect(t, a, &l))
	a.MoveToFront(&l, ids["a"])
	assert.Equal(t, []string{"a", "c", "b"}, collect(t, a, &l))
}

func TestArena_ReleaseReusesSlots(t *testing.T) {
	t.Parallel()

	a := New[string](2)
	i := a.Alloc("a")
	j := a.Alloc("b")
	a.Release(i)
	assert.False(t, a.Live(i))
	assert.Equal(t, 1, a.Len())

	k := a.Alloc("c")
	assert.Equal(t, i, k, "freed slot must be reused first")
	assert.Equal(t, "c", *a.At(k))
	assert.Equal(t, "b", *a.At(j))
	assert.Equal(t, 2, a.Len())
}

func TestArena_ResetDropsEverything(t *testing.T) {
	t.Parallel()

	a := New[string](2)
	l := NewList()
	a.PushFront(&l, a.Alloc("a"))
	a.Reset()
	assert.Equal(t, 0, a.Len())
	assert.False(t, a.Live(0))
	assert.Equal(t, int32(0), a.Alloc("b"))
}

func TestArena_MisusePanicsWithErrCorrupt(t *testing.T) {
	t.Parallel()

	expectCorrupt := func(t *testing.T, fn func()) {
		t.Helper()
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected panic")
			err, ok := r.(error)
			require.True(t, ok, "panic value must be an error, got %T", r)
			assert.True(t, errors.Is(err, ErrCorrupt))
		}()
		fn()
	}

	t.Run("double release", func(t *testing.T) {
		a := New[string](1)
		i := a.Alloc("a")
		a.Release(i)
		expectCorrupt(t, func() { a.Release(i) })
	})
	t.Run("release linked", func(t *testing.T) {
		a := New[string](1)
		l := NewList()
		i := a.Alloc("a")
		j := a.Alloc("b")
		a.PushBack(&l, i)
		a.PushBack(&l, j)
		expectCorrupt(t, func() { a.Release(i) })
	})
	t.Run("unlink from wrong list", func(t *testing.T) {
		a := New[string](1)
		l1, l2 := NewList(), NewList()
		i := a.Alloc("a")
		a.PushBack(&l1, i)
		a.PushBack(&l2, a.Alloc("b"))
		expectCorrupt(t, func() { a.Unlink(&l2, i) })
	})
	t.Run("out of range", func(t *testing.T) {
		a := New[string](1)
		expectCorrupt(t, func() { a.At(7) })
	})
}
