package export

import (
	"bufio"
	"encoding/json"
	"io"
	"iter"

	"github.com/mastercactapus/gcpath/diag"
)

// Message is one line of JSON lines output. Exactly one of Segment and
// Diagnostic is set.
type Message struct {
	Type       string           `json:"type"`
	Segment    *Record          `json:"segment,omitempty"`
	Diagnostic *diag.Diagnostic `json:"diagnostic,omitempty"`
}

const (
	TypeSegment    = "segment"
	TypeDiagnostic = "diagnostic"
)

// Messages yields the segments of src followed by its diagnostics.
func Messages(src Source, opts Options) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		sm := src.Sampler()
		for s := range src.Segments() {
			r := NewRecord(s)
			if opts.Points {
				r = withPoints(r, s, sm)
			}
			if !yield(Message{Type: TypeSegment, Segment: &r}) {
				return
			}
		}
		for _, d := range src.Diagnostics() {
			if !yield(Message{Type: TypeDiagnostic, Diagnostic: &d}) {
				return
			}
		}
	}
}

// WriteJSONLines writes every message from Messages as one JSON object
// per line.
func WriteJSONLines(w io.Writer, src Source, opts Options) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for m := range Messages(src, opts) {
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return bw.Flush()
}
