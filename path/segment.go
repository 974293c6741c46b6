// Package path expands resolved moves into line and arc segments and
// samples them into points.
package path

import (
	"fmt"
	"math"

	"github.com/mastercactapus/gcpath/coord"
	"github.com/mastercactapus/gcpath/vm"
)

type Kind byte

const (
	KindLine Kind = iota
	KindArc
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindArc:
		return "arc"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "line":
		*k = KindLine
	case "arc":
		*k = KindArc
	default:
		return fmt.Errorf("unknown segment kind %q", text)
	}
	return nil
}

// Segment is one expanded motion. Segments are immutable values and safe to
// share between goroutines.
type Segment struct {
	// Line is the zero-based source line the segment came from.
	Line  int
	Kind  Kind
	Rapid bool

	Start, End coord.Point
	// Arc is only meaningful when Kind is KindArc.
	Arc Arc

	Feed    float64
	Extrude float64
	Layer   int
}

// FromMove builds the segment for mv. It depends on nothing but mv.
func FromMove(mv vm.Move) Segment {
	s := Segment{
		Line:    mv.Line,
		Kind:    KindLine,
		Rapid:   mv.Kind == vm.MoveRapid,
		Start:   mv.Start,
		End:     mv.End,
		Feed:    mv.Feed,
		Extrude: mv.Extrude,
		Layer:   mv.Layer,
	}
	if mv.IsArc() {
		s.Kind = KindArc
		s.Arc = newArc(mv.Start, mv.End, mv.Center, mv.Radius, mv.Plane, mv.Kind == vm.MoveArcCW, mv.FullCircle)
	}
	return s
}

// Length is the travelled distance, including the helical rise of arcs.
func (s Segment) Length() float64 {
	if s.Kind == KindArc {
		_, _, w0 := s.Arc.Plane.Project(s.Start)
		_, _, w1 := s.Arc.Plane.Project(s.End)
		return math.Hypot(s.Arc.Radius*s.Arc.Sweep, w1-w0)
	}
	return s.Start.Distance(s.End)
}

// At returns the point at fraction t (0 to 1) along the segment. The
// endpoints are returned exactly.
func (s Segment) At(t float64) coord.Point {
	switch {
	case t <= 0:
		return s.Start
	case t >= 1:
		return s.End
	case s.Kind == KindArc:
		_, _, w0 := s.Arc.Plane.Project(s.Start)
		_, _, w1 := s.Arc.Plane.Project(s.End)
		return s.Arc.point(s.Arc.StartAngle+s.Arc.Sweep*t, w0+(w1-w0)*t)
	}
	return s.Start.Lerp(s.End, t)
}

func (s Segment) String() string {
	if s.Kind == KindArc {
		return fmt.Sprintf("line %d: arc %v -> %v center %v r=%g sweep=%.4f", s.Line+1, s.Start, s.End, s.Arc.Center, s.Arc.Radius, s.Arc.Sweep)
	}
	return fmt.Sprintf("line %d: line %v -> %v", s.Line+1, s.Start, s.End)
}
