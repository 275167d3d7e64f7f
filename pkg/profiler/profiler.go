package profiler

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Config contains profiler configuration options.
type Config struct {
	// Logger is the logger instance (optional, defaults to zerolog.Nop()).
	Logger zerolog.Logger

	// Clock is used to time calls (optional, defaults to time.Now).
	Clock Clock

	// CountFailures also records calls that return an error or panic.
	CountFailures bool

	// Registry and Store may be shared or pre-populated by the caller.
	// Fresh ones are created when nil.
	Registry *Registry
	Store    *Store
}

// Profiler instruments targets on demand and aggregates their call statistics.
//
// A Profiler is either disabled or enabled. Enabling rebinds every target to
// a timing wrapper; disabling restores the original bindings but keeps the
// statistics until the next Enable. All methods are safe for concurrent use.
type Profiler struct {
	logger        zerolog.Logger
	clock         Clock
	countFailures bool
	registry      *Registry
	store         *Store

	// mu serialises state transitions.
	mu      sync.Mutex
	enabled atomic.Bool
	window  string

	loopRunning atomic.Bool
}

// New creates a disabled profiler.
func New(cfg Config) *Profiler {
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	p := &Profiler{
		logger:        logger.With().Str("component", "profiler").Logger(),
		clock:         cfg.Clock,
		countFailures: cfg.CountFailures,
		registry:      cfg.Registry,
		store:         cfg.Store,
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.registry == nil {
		p.registry = NewRegistry()
	}
	if p.store == nil {
		p.store = NewStore()
	}
	return p
}

// Enabled reports whether the profiler is enabled.
func (p *Profiler) Enabled() bool {
	return p.enabled.Load()
}

// Window returns the id of the current measurement window.
// A new window starts on every Enable; it is empty before the first one.
func (p *Profiler) Window() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window
}

// Enable instruments targets and starts a fresh measurement window.
// An enabled profiler is disabled first and statistics are always cleared.
// Targets that cannot be instrumented are skipped; their errors are logged
// and returned combined once every other target has been handled.
func (p *Profiler) Enable(targets []*Callable) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs error
	if p.enabled.Load() {
		errs = multierr.Append(errs, p.disableLocked())
	}

	p.store.Clear()
	p.window = uuid.NewString()
	p.enabled.Store(true)

	instrumented := 0
	for _, target := range targets {
		if target == nil {
			continue
		}
		if err := p.instrumentLocked(target); err != nil {
			p.logger.Warn().Err(err).Str("target", target.QualifiedName()).Msg("Skipping target")
			errs = multierr.Append(errs, err)
			continue
		}
		instrumented++
	}

	p.logger.Info().
		Str("window", p.window).
		Int("requested", len(targets)).
		Int("instrumented", instrumented).
		Msg("Profiling enabled")

	return errs
}

// Disable restores every original binding. Statistics are kept.
// Disabling a disabled profiler is a no-op.
func (p *Profiler) Disable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disableLocked()
}

func (p *Profiler) disableLocked() error {
	if !p.enabled.Load() {
		return nil
	}

	err := p.registry.UnregisterAll()
	for _, e := range multierr.Errors(err) {
		p.logger.Warn().Err(e).Msg("Failed to restore binding")
	}
	p.enabled.Store(false)

	p.logger.Info().Str("window", p.window).Msg("Profiling disabled")
	return err
}

// AddTarget instruments one more target without touching existing ones or
// the statistics. It does nothing while the profiler is disabled.
func (p *Profiler) AddTarget(target *Callable) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled.Load() {
		p.logger.Debug().Str("target", target.QualifiedName()).Msg("Profiler disabled, target not added")
		return nil
	}

	if err := p.instrumentLocked(target); err != nil {
		p.logger.Warn().Err(err).Str("target", target.QualifiedName()).Msg("Failed to add target")
		return err
	}

	p.logger.Debug().Str("target", target.QualifiedName()).Msg("Target added")
	return nil
}

// RemoveTarget restores the original binding of one target.
// The profiler stays enabled and the target's statistics are kept.
func (p *Profiler) RemoveTarget(target *Callable) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.registry.Unregister(target); err != nil {
		p.logger.Warn().Err(err).Str("target", target.QualifiedName()).Msg("Failed to remove target")
		return err
	}

	p.logger.Debug().Str("target", target.QualifiedName()).Msg("Target removed")
	return nil
}

// Tracked reports whether target is currently instrumented.
func (p *Profiler) Tracked(target *Callable) bool {
	return p.registry.Tracked(target)
}

// Results returns the statistics of the current or last measurement window.
func (p *Profiler) Results() []Entry {
	return p.store.Snapshot()
}

// Summary returns the results prepared for reporting.
func (p *Profiler) Summary() Summary {
	return newSummary(p.Window(), p.Enabled(), p.clock(), p.Results())
}

// Report formats the results as a fixed-width text table.
func (p *Profiler) Report() string {
	out, _ := NewFormatter(FormatText).Format(p.Summary())
	return out
}

// WriteReport writes the results to w in the given format.
func (p *Profiler) WriteReport(w io.Writer, format Format) error {
	out, err := NewFormatter(format).Format(p.Summary())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Reload resolves the targets listed in path and re-enables the profiler
// with them. It returns the resolved targets together with every load and
// instrumentation error.
func (p *Profiler) Reload(resolver *Resolver, path string) ([]*Callable, error) {
	targets, loadErr := resolver.Load(path)
	enableErr := p.Enable(targets)
	return targets, multierr.Append(loadErr, enableErr)
}

// Run enables the profiler for targets, calls fn and disables the profiler
// again, even when fn panics.
func (p *Profiler) Run(targets []*Callable, fn func() error) (err error) {
	defer func() {
		err = multierr.Append(err, p.Disable())
	}()

	err = p.Enable(targets)
	return multierr.Append(err, fn())
}

// Close disables the profiler.
func (p *Profiler) Close() error {
	return p.Disable()
}

func (p *Profiler) instrumentLocked(target *Callable) error {
	target = target.Target()
	replacement := Wrap(target, p.store.WindowRecorder(), WrapOptions{
		Clock:         p.clock,
		CountFailures: p.countFailures,
	})

	if err := p.registry.Register(target, replacement); err != nil {
		return err
	}
	p.store.Ensure(target)
	return nil
}

// replacement returns the wrapper target is currently rebound to.
func (p *Profiler) replacement(target *Callable) (*Callable, bool) {
	return p.registry.Replacement(target)
}
