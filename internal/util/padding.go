package util

import (
	"sync/atomic"
	"unsafe"
)

// CacheLineSize is a reasonable default for most modern CPUs.
const CacheLineSize = 64

// Counter is an atomic int64 padded to exactly one cache line, so that
// counters bumped by different goroutines do not share a line.
type Counter struct {
	atomic.Int64
	_ [CacheLineSize - 8]byte
}

// Dec subtracts one and returns the new value.
func (c *Counter) Dec() int64 { return c.Add(-1) }

// Inc adds one and returns the new value.
func (c *Counter) Inc() int64 { return c.Add(1) }

// compile-time size check: exactly one cache line.
var _ [CacheLineSize - int(unsafe.Sizeof(Counter{}))]byte
