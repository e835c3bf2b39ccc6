package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SweepEvery calls s.Sweep on every tick of interval until ctx is done, then
// returns ctx.Err(). Run it in a goroutine you own: caches never start
// background work on their own, so without a sweeper expired entries are
// only dropped when looked up or pushed out by capacity.
func SweepEvery(ctx context.Context, s Sweeper, interval time.Duration, log *zap.Logger) error {
	if interval <= 0 {
		return fmt.Errorf("%w: sweep interval must be > 0 (got %v)", ErrInvalidArgument, interval)
	}
	if log == nil {
		log = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Debug("swept expired entries", zap.Int("removed", n))
			}
		}
	}
}
