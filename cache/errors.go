package cache

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrConfiguration classifies every constructor failure; no instance is
	// created when it is returned.
	ErrConfiguration = errors.New("cache: invalid configuration")
	// ErrInvalidCapacity is returned for a capacity outside [1, MaxInt32].
	ErrInvalidCapacity = fmt.Errorf("%w: capacity must be in [1, %d]", ErrConfiguration, math.MaxInt32)
	// ErrInvalidDefaultTTL is returned for a negative Options.DefaultTTL.
	ErrInvalidDefaultTTL = fmt.Errorf("%w: default TTL must be >= 0", ErrConfiguration)
	// ErrUnknownEngine is returned when Options.Engine names no engine.
	ErrUnknownEngine = fmt.Errorf("%w: unknown engine", ErrConfiguration)

	// ErrInvalidArgument classifies rejected call arguments. The call that
	// returned it did not modify the cache.
	ErrInvalidArgument = errors.New("cache: invalid argument")
	// ErrNegativeTTL is returned by PutWithTTL for ttl < 0.
	ErrNegativeTTL = fmt.Errorf("%w: ttl must be >= 0", ErrInvalidArgument)

	// ErrInternalConsistency is the panic value (wrapped) raised when the
	// lookup map and the ordering structure disagree. It is never returned.
	ErrInternalConsistency = errors.New("cache: internal consistency violation")
)
