package profiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Operator commands understood by the command loop.
const (
	CommandStart   = "start"
	CommandStop    = "stop"
	CommandResults = "results"
)

const (
	loadedNotice   = "\nProfiler loaded. Type 'start' to enable it.\n\n"
	enabledNotice  = "Profiling enabled. Type 'stop' to disable.\n\n"
	disabledNotice = "Profiling disabled. Type 'start' to enable.\n\n"
)

// CommandLoop reads operator commands from a console and drives a profiler.
type CommandLoop struct {
	profiler *Profiler
	console  *Console
	targets  []*Callable
	format   Format
	logger   zerolog.Logger
}

// NewCommandLoop creates a loop that enables p with targets on "start" and
// prints reports in format.
func NewCommandLoop(p *Profiler, console *Console, targets []*Callable, format Format) *CommandLoop {
	if format == "" {
		format = FormatText
	}
	return &CommandLoop{
		profiler: p,
		console:  console,
		targets:  targets,
		format:   format,
		logger:   p.logger.With().Str("component", "command_loop").Logger(),
	}
}

// Run reads and handles commands until ctx is cancelled or the console
// input is exhausted. The lock on the console is held only while a line is
// being read.
func (l *CommandLoop) Run(ctx context.Context) error {
	l.console.Print(loadedNotice)

	for {
		if ctx.Err() != nil {
			return nil
		}

		cmd, err := l.console.ReadCommand()
		if err != nil {
			if errors.Is(err, io.EOF) {
				l.logger.Debug().Msg("Console input closed")
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}

		if ctx.Err() != nil {
			return nil
		}
		l.Handle(cmd)
	}
}

// Handle executes one command and reports whether it was recognised.
// Unrecognised input is ignored.
func (l *CommandLoop) Handle(cmd string) bool {
	switch strings.TrimSpace(cmd) {
	case CommandStart:
		l.printErrors(l.profiler.Enable(l.targets))
		l.console.Print(enabledNotice)

	case CommandStop:
		l.printErrors(l.profiler.Disable())
		l.printReport()
		l.console.Print(disabledNotice)

	case CommandResults:
		if !l.profiler.Enabled() {
			l.console.Print(disabledNotice)
			return true
		}
		l.printReport()

	default:
		return false
	}

	l.logger.Debug().Str("command", cmd).Msg("Command handled")
	return true
}

func (l *CommandLoop) printReport() {
	var buf strings.Builder
	if err := l.profiler.WriteReport(&buf, l.format); err != nil {
		l.console.Printf("error: %v\n", err)
		return
	}
	l.console.Print("\n" + buf.String() + "\n")
}

func (l *CommandLoop) printErrors(err error) {
	for _, e := range multierr.Errors(err) {
		l.console.Printf("warning: %v\n", e)
	}
}

// StartCommandLoop runs a command loop in the background. At most one loop
// runs per profiler; while it is alive further calls return started=false.
// done is closed when the loop returns.
func (p *Profiler) StartCommandLoop(ctx context.Context, console *Console, initial []*Callable, format Format) (done <-chan struct{}, started bool) {
	if !p.loopRunning.CompareAndSwap(false, true) {
		p.logger.Debug().Msg("Command loop already running")
		return nil, false
	}

	loop := NewCommandLoop(p, console, initial, format)
	ch := make(chan struct{})

	go func() {
		defer close(ch)
		defer p.loopRunning.Store(false)

		if err := loop.Run(ctx); err != nil {
			p.logger.Error().Err(err).Msg("Command loop stopped")
		}
	}()

	return ch, true
}
