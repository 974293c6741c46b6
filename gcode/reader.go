package gcode

import (
	"bufio"
	"io"
	"strings"
)

// Reader is a source of raw program lines. Read returns io.EOF after the
// last line.
type Reader interface {
	Read() (string, error)
}

type lineReader struct{ br *bufio.Reader }

// NewReader reads lines from r. Lines may be terminated by LF or CRLF and
// may be of any length.
func NewReader(r io.Reader) Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &lineReader{br: br}
	}

	return &lineReader{br: bufio.NewReader(r)}
}

func (l *lineReader) Read() (string, error) {
	s, err := l.br.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// Lines is an in-memory Reader.
type Lines struct {
	Lines []string
	n     int
}

// SplitLines returns a Reader over the lines of data.
func SplitLines(data string) *Lines {
	data = strings.TrimSuffix(data, "\n")
	if data == "" {
		return &Lines{}
	}
	return &Lines{Lines: strings.Split(data, "\n")}
}

func (l *Lines) Read() (string, error) {
	if l.n == len(l.Lines) {
		return "", io.EOF
	}

	l.n++
	return strings.TrimRight(l.Lines[l.n-1], "\r"), nil
}
