package queue

import (
	"context"
	"time"
)

// NextStartDelay computes how long the worker must hold before starting the
// next task so that at least minDelay passes between one task finishing and
// the next starting. A zero lastCompleted means nothing has finished yet.
func NextStartDelay(lastCompleted time.Time, minDelay time.Duration, now time.Time) time.Duration {
	if minDelay <= 0 || lastCompleted.IsZero() {
		return 0
	}
	remaining := minDelay - now.Sub(lastCompleted)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// sleepCtx waits for d or until ctx is done, reporting whether the full
// wait elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
