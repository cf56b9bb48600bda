package pause

import (
	"context"
	"time"
)

// Watch calls onTick with a fresh snapshot every interval until the timer ends or
// ctx is cancelled. current is consulted on each tick so the caller may keep
// transitioning the state concurrently behind its own synchronization.
// The final ENDED snapshot is delivered before Watch returns nil.
func Watch(ctx context.Context, interval time.Duration, now func() time.Time, current func() State, onTick func(Snapshot)) error {
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap := current().Snapshot(now().UnixMilli())
		onTick(snap)
		if snap.Status == Ended {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
