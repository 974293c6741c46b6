package interp

import (
	"iter"

	"github.com/google/uuid"
	"github.com/mastercactapus/gcpath/coord"
	"github.com/mastercactapus/gcpath/diag"
	"github.com/mastercactapus/gcpath/path"
)

// Stats summarizes a run.
type Stats struct {
	Lines    int `json:"lines"`
	Motions  int `json:"motions"`
	Settings int `json:"settings"`
	Noops    int `json:"noops"`
	// Skipped counts lines whose words were dropped: syntax errors,
	// invalid blocks and unsupported codes.
	Skipped  int `json:"skipped"`
	Segments int `json:"segments"`
	Arcs     int `json:"arcs"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`

	// Travel is the total path length and Extruded the net filament
	// length, both in mm.
	Travel   float64 `json:"travel"`
	Extruded float64 `json:"extruded"`
}

// Result is the assembled output of a run. It is read-only once returned
// and may be shared between goroutines.
type Result struct {
	ID uuid.UUID

	segments []path.Segment
	diags    []diag.Diagnostic
	stats    Stats
	sampler  path.Sampler
}

// Segments yields the segments in source order. The sequence may be
// iterated any number of times.
func (r *Result) Segments() iter.Seq[path.Segment] {
	return func(yield func(path.Segment) bool) {
		for _, s := range r.segments {
			if !yield(s) {
				return
			}
		}
	}
}

func (r *Result) Len() int              { return len(r.segments) }
func (r *Result) At(i int) path.Segment { return r.segments[i] }
func (r *Result) Stats() Stats          { return r.stats }

// Sampler samples segments with the run's tolerance and sample cap.
func (r *Result) Sampler() path.Sampler { return r.sampler }

// Diagnostics returns a copy of the diagnostics, ordered by line.
func (r *Result) Diagnostics() []diag.Diagnostic {
	res := make([]diag.Diagnostic, len(r.diags))
	copy(res, r.diags)
	return res
}

// Points yields the sampled points of every segment in order, using the
// run's tolerance. Segments are continuous, so the start of each one after
// the first is skipped.
func (r *Result) Points() iter.Seq[coord.Point] {
	return func(yield func(coord.Point) bool) {
		for i, s := range r.segments {
			skip := i > 0
			for p := range r.sampler.Points(s) {
				if skip {
					skip = false
					continue
				}
				if !yield(p) {
					return
				}
			}
		}
	}
}
