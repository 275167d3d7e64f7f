package profiler

import (
	"context"
	"errors"
	"sync"
)

// Instrument returns a Func that marks target as profiler-eligible without
// instrumenting it up front. Each invocation checks p once: while p is
// enabled the target is added on first use and the call goes through the
// timing wrapper, otherwise the raw target is called.
//
// A target that cannot be added is not retried until the next window.
func Instrument(p *Profiler, target *Callable) Func {
	target = target.Target()

	var (
		mu           sync.Mutex
		failedWindow string
	)

	return func(ctx context.Context, args ...any) (any, error) {
		if !p.Enabled() {
			return target.Call(ctx, args...)
		}

		wrapper, ok := p.replacement(target)
		if !ok {
			window := p.Window()
			mu.Lock()
			failed := failedWindow == window
			mu.Unlock()

			if !failed {
				// A concurrent first call may win the race; the loser still
				// finds the wrapper below.
				if err := p.AddTarget(target); err != nil && !errors.Is(err, ErrAlreadyTracked) {
					mu.Lock()
					failedWindow = window
					mu.Unlock()
				}
				wrapper, ok = p.replacement(target)
			}
		}
		if !ok {
			return target.Call(ctx, args...)
		}
		return wrapper.Call(ctx, args...)
	}
}
