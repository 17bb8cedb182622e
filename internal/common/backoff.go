package common

import (
	"context"
	"math"
	"time"
)

// SleepFunc blocks for d or until ctx is done. Retry loops take one so tests
// can record delays instead of waiting.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BackoffBase is the exponent base for retry delays.
const BackoffBase = 2

// Backoff returns the delay before retrying after the given 1-based attempt:
// BackoffBase^attempt seconds (2s, 4s, 8s...).
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(math.Pow(BackoffBase, float64(attempt))) * time.Second
}
