// Package diag collects recoverable per-line problems found while
// interpreting a program. Diagnostics are values: no stage unwinds on them.
package diag

import (
	"fmt"
	"sort"
)

type Severity byte

const (
	Warning Severity = iota
	// Error marks a line whose effect was dropped or replaced.
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "warning":
		*s = Warning
	case "error":
		*s = Error
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Code identifies the kind of problem.
type Code string

const (
	CodeSyntax       Code = "syntax"
	CodeChecksum     Code = "checksum"
	CodeUnsupported  Code = "unsupported"
	CodeInvalidBlock Code = "invalid-block"
	CodeGeometry     Code = "geometry"
	CodeLineNumber   Code = "line-number"
)

// Diagnostic is a single recoverable problem tied to a source line.
type Diagnostic struct {
	// Line is the zero-based index of the source line.
	Line     int      `json:"line"`
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Detail   string   `json:"detail"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s: %s", d.Line+1, d.Severity, d.Code, d.Detail)
}

// Collector accumulates diagnostics for one run. It is owned by the
// sequential stage and is not safe for concurrent use.
type Collector struct {
	list []Diagnostic
}

func (c *Collector) Add(d Diagnostic) { c.list = append(c.list, d) }

func (c *Collector) Warnf(line int, code Code, format string, args ...interface{}) {
	c.Add(Diagnostic{Line: line, Severity: Warning, Code: code, Detail: fmt.Sprintf(format, args...)})
}

func (c *Collector) Errorf(line int, code Code, format string, args ...interface{}) {
	c.Add(Diagnostic{Line: line, Severity: Error, Code: code, Detail: fmt.Sprintf(format, args...)})
}

func (c *Collector) Len() int { return len(c.list) }

// List returns the collected diagnostics ordered by line. Diagnostics on
// the same line keep the order they were added in.
func (c *Collector) List() []Diagnostic {
	res := make([]Diagnostic, len(c.list))
	copy(res, c.list)
	sort.SliceStable(res, func(i, j int) bool { return res[i].Line < res[j].Line })
	return res
}

// Count returns the number of diagnostics with the given severity.
func (c *Collector) Count(s Severity) int {
	var n int
	for _, d := range c.list {
		if d.Severity == s {
			n++
		}
	}
	return n
}
