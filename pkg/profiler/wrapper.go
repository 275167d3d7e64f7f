package profiler

import (
	"context"
	"time"
)

// Clock returns the current time. Durations are measured as differences
// between two readings.
type Clock func() time.Time

// Recorder accumulates call durations per target.
type Recorder interface {
	Record(target *Callable, d time.Duration)
}

// WrapOptions controls how a wrapper measures calls.
type WrapOptions struct {
	// Clock defaults to time.Now.
	Clock Clock

	// CountFailures records calls that return an error or panic.
	// By default only successful returns are recorded.
	CountFailures bool
}

// Wrap returns a replacement for target that times every invocation and
// reports it to rec. The replacement has the same name and namespace as
// target, returns exactly what target returns and lets panics through.
func Wrap(target *Callable, rec Recorder, opts WrapOptions) *Callable {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	original := target.Target()
	countFailures := opts.CountFailures

	fn := func(ctx context.Context, args ...any) (result any, err error) {
		start := now()
		succeeded := false
		defer func() {
			if succeeded || countFailures {
				rec.Record(original, now().Sub(start))
			}
		}()

		result, err = original.fn(ctx, args...)
		succeeded = err == nil
		return result, err
	}

	return &Callable{
		name:      original.name,
		namespace: original.namespace,
		fn:        fn,
		origin:    original,
	}
}
