package profiler

import (
	"bufio"
	"errors"
	"io"
)

// MaxLineLength bounds a single line of a targets file or of operator input.
const MaxLineLength = 64 * 1024

// errLineTooLong reports a line that was consumed but not returned.
var errLineTooLong = errors.New("line too long")

// lineReader splits input into lines without giving up on oversized ones.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, MaxLineLength)}
}

// next returns the next line without its terminator. A line longer than
// MaxLineLength is drained up to its newline and reported as errLineTooLong,
// leaving the reader positioned at the following line.
func (l *lineReader) next() (string, error) {
	var line []byte
	tooLong := false
	for {
		chunk, isPrefix, err := l.r.ReadLine()
		if err != nil {
			if tooLong && errors.Is(err, io.EOF) {
				return "", errLineTooLong
			}
			return "", err
		}
		if !tooLong {
			if len(line)+len(chunk) > MaxLineLength {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			if tooLong {
				return "", errLineTooLong
			}
			return string(line), nil
		}
	}
}
