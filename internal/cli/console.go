package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/coral-mesh/callprof/internal/config"
	"github.com/coral-mesh/callprof/pkg/profiler"
)

// lineEditor is the part of *readline.Instance the console uses.
type lineEditor interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// interruptReader turns Ctrl+C into end of input and calls onInterrupt,
// so an interrupt at the prompt stops the run like SIGINT does.
type interruptReader struct {
	editor      lineEditor
	onInterrupt func()
}

func (r interruptReader) Readline() (string, error) {
	line, err := r.editor.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		if r.onInterrupt != nil {
			r.onInterrupt()
		}
		return "", io.EOF
	}
	return line, err
}

func (r interruptReader) SetPrompt(prompt string) {
	r.editor.SetPrompt(prompt)
}

// newLineReader returns a readline editor with history when in is a
// terminal and a plain line scanner otherwise. onInterrupt runs when the
// operator presses Ctrl+C at the prompt. The returned closer may be nil.
func newLineReader(in io.Reader, cfg config.ConsoleConfig, onInterrupt func()) (profiler.LineReader, io.Closer, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return profiler.NewLineScanner(in), nil, nil
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Prompt,
		HistoryFile:     os.ExpandEnv(cfg.HistoryFile),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return interruptReader{editor: rl, onInterrupt: onInterrupt}, rl, nil
}
