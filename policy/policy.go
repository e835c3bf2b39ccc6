// Package policy defines the eviction-policy contract consumed by the
// policy-driven cache shell, together with the per-key access statistics
// that policies decide on.
package policy

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidArgument classifies bad inputs passed to a policy.
	ErrInvalidArgument = errors.New("policy: invalid argument")
	// ErrInvalidSize is returned when a policy is asked about a cache of
	// non-positive size.
	ErrInvalidSize = fmt.Errorf("%w: cache size must be > 0", ErrInvalidArgument)
)

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// SystemClock reads the wall clock.
type SystemClock struct{}

// NowUnixNano implements Clock.
func (SystemClock) NowUnixNano() int64 { return time.Now().UnixNano() }

// Now reads c, falling back to the wall clock when c is nil.
func Now(c Clock) int64 {
	if c == nil {
		return time.Now().UnixNano()
	}
	return c.NowUnixNano()
}

// EvictionPolicy decides whether a cache of the given size should evict
// now and, if so, which key.
//
// Contract:
//   - When evict is true, victim names the key to drop. A policy may have
//     already removed victim from stats; the caller removes the cache entry
//     and must tolerate the statistics being gone.
//   - When evict is false, victim is the zero K and stats is unchanged.
//   - ttl is the idle budget the caller runs with; policies that do not
//     measure idle time ignore it.
//
// Implementations are not safe for concurrent use on the same stats map;
// the cache shell calls them under its lock.
type EvictionPolicy[K comparable] interface {
	ShouldEvict(size int, ttl time.Duration, stats map[K]*AccessStatistics) (victim K, evict bool, err error)
}

// AccessStatistics holds per-key counters. It is created when a key is
// inserted and is updated only by the cache that owns the key.
type AccessStatistics struct {
	accessCount int64
	lastAccess  int64 // UnixNano
	hits        int64
	misses      int64
}

// NewAccessStatistics returns statistics for a key inserted at now.
// The insertion itself counts as the first access.
func NewAccessStatistics(now int64) *AccessStatistics {
	return &AccessStatistics{accessCount: 1, lastAccess: now}
}

// RecordHit counts a successful read.
func (s *AccessStatistics) RecordHit(now int64) {
	s.accessCount++
	s.hits++
	s.lastAccess = now
}

// RecordUpdate counts an overwrite of an existing key.
func (s *AccessStatistics) RecordUpdate(now int64) {
	s.accessCount++
	s.lastAccess = now
}

// RecordMiss counts a read that found the key but could not serve it
// (expired). The access count is unchanged.
func (s *AccessStatistics) RecordMiss(now int64) {
	s.misses++
	s.lastAccess = now
}

// Reset zeroes hit and miss counters and restamps the last access.
// The access count is kept: frequency ordering depends on it.
func (s *AccessStatistics) Reset(now int64) {
	s.hits, s.misses = 0, 0
	s.lastAccess = now
}

// AccessCount returns the number of accesses since insertion, insertion included.
func (s *AccessStatistics) AccessCount() int64 { return s.accessCount }

// LastAccess returns the UnixNano timestamp of the latest access.
func (s *AccessStatistics) LastAccess() int64 { return s.lastAccess }

// LastAccessTime returns LastAccess as a time.Time.
func (s *AccessStatistics) LastAccessTime() time.Time { return time.Unix(0, s.lastAccess) }

// Hits returns the number of served reads.
func (s *AccessStatistics) Hits() int64 { return s.hits }

// Misses returns the number of reads that found the key expired.
func (s *AccessStatistics) Misses() int64 { return s.misses }

// Idle returns how long the key has gone without access as of now.
func (s *AccessStatistics) Idle(now int64) time.Duration {
	return time.Duration(now - s.lastAccess)
}
