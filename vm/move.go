package vm

import (
	"fmt"

	"github.com/mastercactapus/gcpath/coord"
)

type MoveKind byte

const (
	MoveRapid MoveKind = iota
	MoveLinear
	MoveArcCW
	MoveArcCCW
)

func (k MoveKind) String() string {
	switch k {
	case MoveRapid:
		return "rapid"
	case MoveLinear:
		return "linear"
	case MoveArcCW:
		return "arc-cw"
	case MoveArcCCW:
		return "arc-ccw"
	}
	return fmt.Sprintf("MoveKind(%d)", k)
}

func (k MoveKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Move is a resolved motion. It holds everything needed to build its
// geometry and shares nothing with the machine that produced it.
type Move struct {
	Line int
	Kind MoveKind

	Start, End coord.Point
	// Center and Radius are set for arcs only.
	Center coord.Point
	Radius float64
	Plane  coord.Plane
	// FullCircle marks an offset-form arc whose end lies within tolerance
	// of its start: it sweeps a whole turn, plus or minus the small gap.
	FullCircle bool

	Feed    float64
	Extrude float64
	Layer   int
}

func (m Move) IsArc() bool { return m.Kind == MoveArcCW || m.Kind == MoveArcCCW }

func (m Move) String() string {
	if m.IsArc() {
		return fmt.Sprintf("line %d: %s %v -> %v center %v r=%g", m.Line+1, m.Kind, m.Start, m.End, m.Center, m.Radius)
	}
	return fmt.Sprintf("line %d: %s %v -> %v", m.Line+1, m.Kind, m.Start, m.End)
}
