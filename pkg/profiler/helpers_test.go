package profiler

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errBoom = errors.New("boom")

// takes returns a Func that advances clock by d and echoes its first argument.
func takes(clock *fakeClock, d time.Duration) Func {
	return func(ctx context.Context, args ...any) (any, error) {
		clock.Advance(d)
		if len(args) > 0 {
			return args[0], nil
		}
		return nil, nil
	}
}

func fails(clock *fakeClock, d time.Duration) Func {
	return func(ctx context.Context, args ...any) (any, error) {
		clock.Advance(d)
		return nil, errBoom
	}
}

func noop(ctx context.Context, args ...any) (any, error) {
	return nil, nil
}
