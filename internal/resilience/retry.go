package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Backoff controls Retry. Zero values use the defaults.
type Backoff struct {
	// Attempts is the total number of tries, the first included. Default 3.
	Attempts int
	// Initial is the delay before the first retry. Default 250ms.
	Initial time.Duration
	// Max caps the delay. Default 5s.
	Max time.Duration
	// Jitter spreads each delay by up to this fraction either way.
	Jitter float64
}

// DefaultBackoff is used when connecting to the store and the cache.
func DefaultBackoff() Backoff {
	return Backoff{Attempts: 3, Initial: 250 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2}
}

// Retry calls fn until it succeeds, returns an error that is not transient,
// runs out of attempts or ctx is done. The last error is returned. op names
// the operation in logs.
func Retry[T any](ctx context.Context, b Backoff, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	b = b.withDefaults()

	var zero T
	var err error
	for attempt := 1; ; attempt++ {
		var v T
		if v, err = fn(ctx); err == nil {
			return v, nil
		}
		if attempt >= b.Attempts || ctx.Err() != nil || !IsTransient(err) {
			return zero, err
		}

		wait := b.delay(attempt)
		zap.L().Warn("resilience: retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

func (b Backoff) withDefaults() Backoff {
	if b.Attempts <= 0 {
		b.Attempts = 3
	}
	if b.Initial <= 0 {
		b.Initial = 250 * time.Millisecond
	}
	if b.Max <= 0 {
		b.Max = 5 * time.Second
	}
	if b.Jitter < 0 {
		b.Jitter = 0
	}
	return b
}

// delay doubles per attempt, starting at Initial for attempt 1.
func (b Backoff) delay(attempt int) time.Duration {
	d := math.Min(float64(b.Initial)*math.Pow(2, float64(attempt-1)), float64(b.Max))
	if b.Jitter > 0 {
		d += d * b.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(max(d, 0))
}
