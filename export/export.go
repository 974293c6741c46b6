// Package export writes interpreted programs to CSV, JSON lines or a
// SQLite database.
package export

import (
	"iter"

	"github.com/mastercactapus/gcpath/diag"
	"github.com/mastercactapus/gcpath/path"
)

// Source is an interpreted program, such as *interp.Result.
type Source interface {
	Segments() iter.Seq[path.Segment]
	Diagnostics() []diag.Diagnostic
	Sampler() path.Sampler
}

type Options struct {
	// Points writes sampled points instead of segment endpoints.
	Points bool
}

// Record is the flat form of a segment.
type Record struct {
	Line    int         `json:"line"`
	Kind    path.Kind   `json:"kind"`
	Rapid   bool        `json:"rapid,omitempty"`
	Start   [3]float64  `json:"start"`
	End     [3]float64  `json:"end"`
	Center  *[3]float64 `json:"center,omitempty"`
	Radius  float64     `json:"radius,omitempty"`
	Sweep   float64     `json:"sweep,omitempty"`
	Plane   string      `json:"plane,omitempty"`
	Feed    float64     `json:"feed"`
	Extrude float64     `json:"extrude,omitempty"`
	Layer   int         `json:"layer"`

	Points [][3]float64 `json:"points,omitempty"`
}

func NewRecord(s path.Segment) Record {
	r := Record{
		Line:    s.Line,
		Kind:    s.Kind,
		Rapid:   s.Rapid,
		Start:   [3]float64{s.Start.X, s.Start.Y, s.Start.Z},
		End:     [3]float64{s.End.X, s.End.Y, s.End.Z},
		Feed:    s.Feed,
		Extrude: s.Extrude,
		Layer:   s.Layer,
	}
	if s.Kind == path.KindArc {
		c := s.Arc.Center
		r.Center = &[3]float64{c.X, c.Y, c.Z}
		r.Radius = s.Arc.Radius
		r.Sweep = s.Arc.Sweep
		r.Plane = s.Arc.Plane.String()
	}
	return r
}

func withPoints(r Record, s path.Segment, sm path.Sampler) Record {
	for p := range sm.Points(s) {
		r.Points = append(r.Points, [3]float64{p.X, p.Y, p.Z})
	}
	return r
}
