package cache

import (
	"strings"
	"testing"
)

// Fuzz basic Put/Get/Remove semantics under arbitrary string inputs.
// Guards against panics and ensures core invariants hold on every engine.
// NOTE: key/value lengths are capped to keep memory bounded during fuzzing.
func FuzzCache_PutGetRemove(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings.
	f.Add("", "")
	f.Add("a", "1")
	f.Add("b", "2")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		const limit = 1 << 12 // 4096
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		for _, engine := range engines {
			c, err := New(Options[string, string]{Capacity: 2, Engine: engine, Debug: true})
			if err != nil {
				t.Fatal(err)
			}

			// Put -> Get must return the same value.
			c.Put(k, v)
			if got, ok := c.Get(k); !ok || got != v {
				t.Fatalf("%v: after Put/Get: want %q, got %q ok=%v", engine, v, got, ok)
			}

			// Filling the cache past capacity must evict, never grow.
			c.Put(k+"#1", v)
			c.Put(k+"#2", v)
			if n := c.Len(); n != 2 {
				t.Fatalf("%v: len %d, want 2", engine, n)
			}

			c.Put(k, v+"!")
			if got, ok := c.Get(k); !ok || got != v+"!" {
				t.Fatalf("%v: after update: want %q, got %q ok=%v", engine, v+"!", got, ok)
			}

			// Remove must delete exactly once.
			if got, ok := c.Remove(k); !ok || got != v+"!" {
				t.Fatalf("%v: Remove: got %q ok=%v", engine, got, ok)
			}
			if _, ok := c.Remove(k); ok {
				t.Fatalf("%v: second Remove must report absent", engine)
			}
			if _, ok := c.Get(k); ok {
				t.Fatalf("%v: key must be absent after Remove", engine)
			}
		}
	})
}
