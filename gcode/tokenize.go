package gcode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Line is one tokenized source line. Line numbers (N) and checksums (*)
// are validated here and never appear in Words.
type Line struct {
	// Index is the zero-based position of the line in its source.
	Index int
	Words Block

	Number    int
	HasNumber bool

	Checksum    int
	HasChecksum bool
	// ChecksumErr is set when the checksum did not match. It never
	// prevents tokenization.
	ChecksumErr error

	// Comments holds the text of every comment on the line, trimmed.
	Comments []string
	// Text is the free-form argument of string commands such as M117.
	Text string

	BlockDelete bool
}

// Empty reports whether the line carries no words.
func (ln Line) Empty() bool { return len(ln.Words) == 0 }

// SyntaxError describes a malformed line.
type SyntaxError struct {
	Col int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at column %d: %s", e.Col+1, e.Msg)
}

// ChecksumError is a checksum that did not match the line contents.
type ChecksumError struct {
	Want, Got int
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: line says %d, computed %d", e.Want, e.Got)
}

// stringArgCodes take the rest of the line as a literal argument.
var stringArgCodes = map[float64]bool{
	23: true, 28: true, 32: true, 117: true, 118: true, 928: true,
}

// Tokenize splits raw into words. Unknown letters are not an error here;
// meaning is assigned by Classify.
func Tokenize(index int, raw string) (Line, error) {
	s := tokenizer{src: strings.TrimRight(raw, "\r\n"), ln: Line{Index: index}}
	err := s.run()
	if err != nil {
		return Line{Index: index}, err
	}
	return s.ln, nil
}

type tokenizer struct {
	src string
	pos int
	ln  Line
}

func (t *tokenizer) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Col: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (t *tokenizer) skipSpace() {
	for t.pos < len(t.src) && (t.src[t.pos] == ' ' || t.src[t.pos] == '\t' || t.src[t.pos] == '\r') {
		t.pos++
	}
}

func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func (t *tokenizer) run() error {
	t.skipSpace()
	if t.pos < len(t.src) && t.src[t.pos] == '/' {
		t.ln.BlockDelete = true
		t.pos++
	}

	for {
		t.skipSpace()
		if t.pos >= len(t.src) {
			return nil
		}

		c := t.src[t.pos]
		switch {
		case c == ';':
			t.ln.Comments = append(t.ln.Comments, strings.TrimSpace(t.src[t.pos+1:]))
			t.pos = len(t.src)
			return nil
		case c == '(':
			if err := t.comment(); err != nil {
				return err
			}
		case c == '*':
			if err := t.checksum(t.pos); err != nil {
				return err
			}
		case c == '%':
			t.pos++
		case isLetter(c):
			if err := t.word(); err != nil {
				return err
			}
		default:
			return t.errorf("unexpected character %q", c)
		}
	}
}

func (t *tokenizer) comment() error {
	end := strings.IndexByte(t.src[t.pos+1:], ')')
	if end < 0 {
		return t.errorf("unterminated comment")
	}
	t.ln.Comments = append(t.ln.Comments, strings.TrimSpace(t.src[t.pos+1:t.pos+1+end]))
	t.pos += end + 2
	return nil
}

// checksum validates a RepRap style checksum starting at star. Only
// whitespace or a comment may follow it.
func (t *tokenizer) checksum(star int) error {
	if t.ln.HasChecksum {
		return t.errorf("repeated checksum")
	}
	t.pos = star + 1
	start := t.pos
	for t.pos < len(t.src) && isDigit(t.src[t.pos]) {
		t.pos++
	}
	if start == t.pos {
		return t.errorf("checksum without digits")
	}
	want, err := strconv.Atoi(t.src[start:t.pos])
	if err != nil {
		return t.errorf("invalid checksum %q", t.src[start:t.pos])
	}
	t.skipSpace()
	if t.pos < len(t.src) && t.src[t.pos] != ';' && t.src[t.pos] != '(' {
		return t.errorf("stray characters after checksum")
	}

	var got int
	for i := 0; i < star; i++ {
		got ^= int(t.src[i])
	}
	t.ln.Checksum = want
	t.ln.HasChecksum = true
	if got != want {
		t.ln.ChecksumErr = &ChecksumError{Want: want, Got: got}
	}
	return nil
}

func (t *tokenizer) word() error {
	letter := upper(t.src[t.pos])
	t.pos++
	t.skipSpace()

	val, err := t.number(letter)
	if err != nil {
		return err
	}

	if letter == 'N' {
		if val < 0 || val != math.Trunc(val) || val > math.MaxInt32 {
			return t.errorf("invalid line number %s", formatFloat(val, 4))
		}
		t.ln.Number = int(val)
		t.ln.HasNumber = true
		return nil
	}

	t.ln.Words = append(t.ln.Words, Word{W: letter, Arg: val})
	if letter == 'M' && stringArgCodes[val] {
		return t.stringArg()
	}
	return nil
}

func (t *tokenizer) number(letter byte) (float64, error) {
	start := t.pos
	if t.pos < len(t.src) && (t.src[t.pos] == '-' || t.src[t.pos] == '+') {
		t.pos++
	}
	var digits int
	var dot bool
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		if isDigit(c) {
			digits++
		} else if c == '.' && !dot {
			dot = true
		} else {
			break
		}
		t.pos++
	}
	if digits == 0 && t.pos == start && t.bareAxisAllowed(letter) {
		return 0, nil
	}
	if digits == 0 {
		return 0, t.errorf("missing value for %c", letter)
	}
	if t.pos < len(t.src) && t.src[t.pos] == '.' {
		return 0, t.errorf("malformed number %q", t.src[start:t.pos+1])
	}

	val, err := strconv.ParseFloat(t.src[start:t.pos], 64)
	if err != nil {
		return 0, t.errorf("malformed number %q", t.src[start:t.pos])
	}
	return val, nil
}

// stringArg consumes the remainder of the line as Line.Text, still honoring
// a trailing comment and checksum.
func (t *tokenizer) stringArg() error {
	rest := t.src[t.pos:]
	if i := strings.IndexByte(rest, ';'); i >= 0 {
		t.ln.Comments = append(t.ln.Comments, strings.TrimSpace(rest[i+1:]))
		rest = rest[:i]
	}
	end := t.pos + len(rest)

	if i := strings.LastIndexByte(rest, '*'); i >= 0 && isChecksum(rest[i+1:]) {
		star := t.pos + i
		t.ln.Text = strings.TrimSpace(rest[:i])
		t.src = t.src[:end]
		err := t.checksum(star)
		t.pos = len(t.src)
		return err
	}

	t.ln.Text = strings.TrimSpace(rest)
	t.pos = len(t.src)
	return nil
}

// bareAxisAllowed reports whether an axis letter may appear without a
// value, as in "G28 X Y".
func (t *tokenizer) bareAxisAllowed(letter byte) bool {
	switch letter {
	case 'X', 'Y', 'Z':
	default:
		return false
	}
	return len(t.ln.Words) > 0 && t.ln.Words[0].Code('G', 28)
}

func isChecksum(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
