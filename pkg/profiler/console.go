package profiler

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// DefaultPrompt is shown before every operator command.
const DefaultPrompt = ">>> profiler [results / start / stop]: "

// LineReader reads one line of operator input.
// *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
}

type prompter interface {
	SetPrompt(prompt string)
}

// LineScanner adapts an io.Reader to LineReader. It returns io.EOF when
// the input is exhausted. Lines longer than MaxLineLength are discarded and
// read as empty commands.
type LineScanner struct {
	lines *lineReader
}

// NewLineScanner creates a LineReader over r.
func NewLineScanner(r io.Reader) *LineScanner {
	return &LineScanner{lines: newLineReader(r)}
}

// Readline returns the next line without its terminator.
func (s *LineScanner) Readline() (string, error) {
	line, err := s.lines.next()
	if errors.Is(err, errLineTooLong) {
		return "", nil
	}
	return line, err
}

// Console is the operator channel shared by command loops.
// Only one reader holds the input at a time, and only for one line.
type Console struct {
	in     LineReader
	out    io.Writer
	prompt string

	readMu  sync.Mutex
	writeMu sync.Mutex
}

// NewConsole creates a console reading commands from in and writing responses to out.
func NewConsole(in LineReader, out io.Writer) *Console {
	return &Console{
		in:     in,
		out:    out,
		prompt: DefaultPrompt,
	}
}

// SetPrompt changes the prompt shown before each command.
func (c *Console) SetPrompt(prompt string) {
	c.readMu.Lock()
	c.prompt = prompt
	c.readMu.Unlock()
}

// ReadCommand reads one trimmed command line.
func (c *Console) ReadCommand() (string, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if p, ok := c.in.(prompter); ok {
		p.SetPrompt(c.prompt)
	} else if c.prompt != "" {
		c.Print(c.prompt)
	}

	line, err := c.in.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Print writes s to the console output.
// nolint: errcheck
func (c *Console) Print(s string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	io.WriteString(c.out, s)
}

// Printf formats and writes to the console output.
func (c *Console) Printf(format string, args ...any) {
	c.Print(fmt.Sprintf(format, args...))
}
