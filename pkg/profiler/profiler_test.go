package profiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/coral-mesh/callprof/internal/testutil"
)

func newTestProfiler(t *testing.T, clock *fakeClock) *Profiler {
	t.Helper()
	cfg := Config{Logger: testutil.NewTestLogger(t)}
	if clock != nil {
		cfg.Clock = clock.Now
	}
	return New(cfg)
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{})

	assert.False(t, p.Enabled())
	assert.Empty(t, p.Window())
	assert.Empty(t, p.Results())
	assert.NotNil(t, p.registry)
	assert.NotNil(t, p.store)
}

func TestProfiler_EnableDisableRestoresBindings(t *testing.T) {
	s := NewScope("s")
	f := s.Define("f", noop)
	g := s.Define("g", noop)
	p := newTestProfiler(t, nil)

	require.NoError(t, p.Enable([]*Callable{f, g}))
	assert.True(t, p.Enabled())
	assert.NotEmpty(t, p.Window())

	bound, _ := s.Lookup("f")
	assert.True(t, bound.Wrapped())
	assert.Same(t, f, bound.Target())

	require.NoError(t, p.Disable())
	assert.False(t, p.Enabled())
	assert.Equal(t, 0, p.registry.Len())

	bound, _ = s.Lookup("f")
	assert.Same(t, f, bound)
	bound, _ = s.Lookup("g")
	assert.Same(t, g, bound)
}

func TestProfiler_ReportScenario(t *testing.T) {
	clock := newFakeClock()
	s := NewScope("s")
	f := s.Define("f", takes(clock, 10*time.Millisecond))
	g := s.Define("g", noop)
	p := newTestProfiler(t, clock)

	require.NoError(t, p.Enable([]*Callable{f, g}))
	for i := 0; i < 3; i++ {
		_, err := s.Call(context.Background(), "f")
		require.NoError(t, err)
	}

	summary := p.Summary()
	require.Len(t, summary.Rows, 2)
	assert.Equal(t, Row{Function: "s.f", TotalMS: 30, Calls: 3, AvgMS: 10}, summary.Rows[0])
	assert.Equal(t, Row{Function: "s.g", TotalMS: 0, Calls: 0, AvgMS: 0}, summary.Rows[1])

	report := p.Report()
	assert.Contains(t, report, "Function")
	assert.Contains(t, report, "s.f")
	assert.Contains(t, report, "30.000")
	assert.Contains(t, report, "10.000")
}

func TestProfiler_EnableTwiceResetsStatistics(t *testing.T) {
	clock := newFakeClock()
	s := NewScope("s")
	f := s.Define("f", takes(clock, time.Millisecond))
	p := newTestProfiler(t, clock)

	require.NoError(t, p.Enable([]*Callable{f}))
	_, _ = s.Call(context.Background(), "f")
	first := p.Window()

	require.NoError(t, p.Enable([]*Callable{f}))

	assert.NotEqual(t, first, p.Window(), "each enable opens a new window")
	results := p.Results()
	require.Len(t, results, 1)
	assert.Equal(t, int64(0), results[0].Calls)
	assert.Equal(t, 1, p.registry.Len(), "no double wrapping")

	bound, _ := s.Lookup("f")
	assert.Same(t, f, bound.Target())
	require.NoError(t, p.Disable())
	bound, _ = s.Lookup("f")
	assert.Same(t, f, bound)
}

func TestProfiler_InFlightCallAcrossEnable(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	s := NewScope("s")
	f := s.Define("f", func(ctx context.Context, args ...any) (any, error) {
		close(entered)
		<-release
		return nil, nil
	})
	g := s.Define("g", noop)
	p := newTestProfiler(t, nil)

	require.NoError(t, p.Enable([]*Callable{f}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Call(context.Background(), "f")
	}()
	<-entered

	require.NoError(t, p.Enable([]*Callable{g}))
	close(release)
	<-done

	results := p.Results()
	require.Len(t, results, 1, "only g belongs to the new window")
	assert.Same(t, g, results[0].Target)
	assert.Equal(t, int64(0), results[0].Calls)
	_, ok := p.store.Get(f)
	assert.False(t, ok)
}

func TestProfiler_ResultsSurviveDisable(t *testing.T) {
	clock := newFakeClock()
	s := NewScope("s")
	f := s.Define("f", takes(clock, 2*time.Millisecond))
	p := newTestProfiler(t, clock)

	require.NoError(t, p.Enable([]*Callable{f}))
	_, _ = s.Call(context.Background(), "f")
	require.NoError(t, p.Disable())

	_, _ = s.Call(context.Background(), "f") // not instrumented anymore

	results := p.Results()
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].Calls)
	assert.NotPanics(t, func() { _ = p.Report() })
	assert.False(t, p.Summary().Enabled)
}

func TestProfiler_DisableWhenDisabled(t *testing.T) {
	p := newTestProfiler(t, nil)

	assert.NoError(t, p.Disable())
	assert.NoError(t, p.Close())
}

func TestProfiler_EnableSkipsBadTargets(t *testing.T) {
	s := NewScope("s")
	f := s.Define("f", noop)
	stale := s.Define("g", noop)
	s.Define("g", noop) // stale no longer bound
	detached := NewCallable(nil, "loose", noop)
	p := newTestProfiler(t, nil)

	err := p.Enable([]*Callable{stale, nil, f, detached, f})
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 3)
	assert.ErrorIs(t, errs[0], ErrRebindUnsupported)
	assert.ErrorIs(t, errs[1], ErrLookup)
	assert.ErrorIs(t, errs[2], ErrAlreadyTracked)

	assert.True(t, p.Enabled())
	assert.True(t, p.Tracked(f))
	assert.False(t, p.Tracked(stale))
}

func TestProfiler_AddAndRemoveTarget(t *testing.T) {
	clock := newFakeClock()
	s := NewScope("s")
	f := s.Define("f", takes(clock, time.Millisecond))
	g := s.Define("g", takes(clock, time.Millisecond))
	p := newTestProfiler(t, clock)

	require.NoError(t, p.AddTarget(g), "adding while disabled is a no-op")
	assert.False(t, p.Tracked(g))

	require.NoError(t, p.Enable([]*Callable{f}))
	_, _ = s.Call(context.Background(), "f")

	require.NoError(t, p.AddTarget(g))
	assert.True(t, p.Tracked(g))
	assert.ErrorIs(t, p.AddTarget(g), ErrAlreadyTracked)

	_, _ = s.Call(context.Background(), "g")

	stat, _ := p.store.Get(f)
	assert.Equal(t, int64(1), stat.Calls, "adding a target keeps existing statistics")

	require.NoError(t, p.RemoveTarget(f))
	assert.True(t, p.Enabled())
	assert.False(t, p.Tracked(f))
	assert.ErrorIs(t, p.RemoveTarget(f), ErrNotTracked)

	bound, _ := s.Lookup("f")
	assert.Same(t, f, bound)

	stat, _ = p.store.Get(f)
	assert.Equal(t, int64(1), stat.Calls, "removing a target keeps its statistics")
	stat, _ = p.store.Get(g)
	assert.Equal(t, int64(1), stat.Calls)
}

func TestProfiler_Run(t *testing.T) {
	s := NewScope("s")
	f := s.Define("f", noop)
	p := newTestProfiler(t, nil)

	err := p.Run([]*Callable{f}, func() error {
		assert.True(t, p.Enabled())
		_, err := s.Call(context.Background(), "f")
		return err
	})
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	stat, _ := p.store.Get(f)
	assert.Equal(t, int64(1), stat.Calls)
}

func TestProfiler_RunDisablesOnErrorAndPanic(t *testing.T) {
	s := NewScope("s")
	f := s.Define("f", noop)
	p := newTestProfiler(t, nil)

	err := p.Run([]*Callable{f}, func() error { return errBoom })
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, p.Enabled())

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = p.Run([]*Callable{f}, func() error { panic("kaboom") })
	})
	assert.False(t, p.Enabled())

	bound, _ := s.Lookup("f")
	assert.Same(t, f, bound)
}

func TestProfiler_Reload(t *testing.T) {
	s := NewScope("s")
	f := s.Define("f", noop)
	s.Define("g", noop)
	resolver := NewResolver(NewCatalog(s), testutil.NewTestLogger(t))
	p := newTestProfiler(t, nil)

	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte("s.f\ns.missing\n"), 0o600))

	targets, err := p.Reload(resolver, path)
	assert.ErrorIs(t, err, ErrLookup)
	require.Len(t, targets, 1)
	assert.Same(t, f, targets[0])
	assert.True(t, p.Enabled())
	assert.True(t, p.Tracked(f))
}

func TestProfiler_ConcurrentCalls(t *testing.T) {
	s := NewScope("s")
	const delay = 5 * time.Millisecond
	f := s.Define("f", func(ctx context.Context, args ...any) (any, error) {
		time.Sleep(delay)
		return nil, nil
	})
	p := newTestProfiler(t, nil)
	require.NoError(t, p.Enable([]*Callable{f}))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Call(context.Background(), "f")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	results := p.Results()
	require.Len(t, results, 1)
	assert.Equal(t, int64(n), results[0].Calls)
	assert.GreaterOrEqual(t, results[0].TotalTime, n*delay)
}

func TestProfiler_ToggleDuringCalls(t *testing.T) {
	s := NewScope("s")
	f := s.Define("f", noop)
	p := newTestProfiler(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				_, err := s.Call(context.Background(), "f")
				if !assert.NoError(t, err) {
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		require.NoError(t, p.Enable([]*Callable{f}))
		require.NoError(t, p.Disable())
	}
	cancel()
	wg.Wait()

	bound, _ := s.Lookup("f")
	assert.Same(t, f, bound)
	assert.Equal(t, 0, p.registry.Len())
}

func TestProfiler_ErrorsAreSentinels(t *testing.T) {
	s := NewScope("s")
	f := s.Define("f", noop)
	p := newTestProfiler(t, nil)
	require.NoError(t, p.Enable([]*Callable{f}))

	err := p.AddTarget(f)
	assert.True(t, errors.Is(err, ErrAlreadyTracked))
	assert.Contains(t, err.Error(), "s.f")
}
