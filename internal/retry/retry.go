// Package retry retries operations that fail with transient errors, waiting
// an exponentially growing backoff between attempts.
//
//	policy := retry.Policy{Attempts: 3, Backoff: 50 * time.Millisecond}
//	err := retry.Do(ctx, policy, fetch, func(err error) bool {
//	    return errors.Is(err, ErrUnavailable)
//	})
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy defines how often and how patiently an operation is retried.
type Policy struct {
	// Attempts is the maximum number of calls, the first one included.
	// Values below one mean a single attempt.
	Attempts int

	// Backoff is the wait before the second attempt. It doubles for every
	// further attempt.
	Backoff time.Duration

	// MaxBackoff caps the wait. Zero means no cap.
	MaxBackoff time.Duration
}

// RetryableFunc reports whether err is worth another attempt.
// A nil RetryableFunc retries every error.
type RetryableFunc func(err error) bool

// Do calls fn until it succeeds, returns an error that is not retryable,
// runs out of attempts or ctx is done. When the attempts are exhausted the
// last error is wrapped.
func Do(ctx context.Context, policy Policy, fn func() error, retryable RetryableFunc) error {
	attempts := max(policy.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, policy.Wait(attempt)); err != nil {
				return err
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		lastErr = err
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// Wait returns the backoff before the given attempt (1-based).
// The first attempt never waits.
func (p Policy) Wait(attempt int) time.Duration {
	if attempt <= 1 || p.Backoff <= 0 {
		return 0
	}

	wait := p.Backoff
	for i := 2; i < attempt; i++ {
		wait *= 2
		if p.MaxBackoff > 0 && wait >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && wait > p.MaxBackoff {
		return p.MaxBackoff
	}
	return wait
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
