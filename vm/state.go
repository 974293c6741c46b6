// Package vm resolves classified commands against modal machine state,
// producing one self-contained Move per motion command.
package vm

import (
	"github.com/mastercactapus/gcpath/coord"
	"github.com/mastercactapus/gcpath/gcode"
)

// MMPerInch converts inch words to the internal millimeter unit.
const MMPerInch = 25.4

type Units byte

const (
	UnitsMM Units = iota
	UnitsInch
)

func (u Units) Scale() float64 {
	if u == UnitsInch {
		return MMPerInch
	}
	return 1
}

func (u Units) String() string {
	if u == UnitsInch {
		return "in"
	}
	return "mm"
}

type Distance byte

const (
	Absolute Distance = iota
	Relative
)

func (d Distance) String() string {
	if d == Relative {
		return "relative"
	}
	return "absolute"
}

// ArcCenter selects how I, J and K are read.
type ArcCenter byte

const (
	// ArcIncremental offsets are relative to the arc start (G91.1).
	ArcIncremental ArcCenter = iota
	// ArcAbsolute offsets are absolute work coordinates (G90.1).
	ArcAbsolute
)

// State is the modal machine state. All lengths are millimeters.
type State struct {
	Units     Units
	Distance  Distance
	Extrusion Distance
	ArcCenter ArcCenter
	Motion    gcode.MotionKind
	Plane     coord.Plane

	// Pos is the machine position.
	Pos coord.Point
	// Offset is the G92 work offset: work = Pos - Offset.
	Offset coord.Point
	// E is the extruder position as the program sees it.
	E float64
	// Feed is in mm/min.
	Feed float64

	// Layer is the last ";LAYER:n" marker seen, -1 before any.
	Layer int
}

// Home returns the power-on state.
func Home(units Units) State {
	return State{
		Units:  units,
		Motion: gcode.MotionRapid,
		Plane:  coord.PlaneXY,
		Layer:  -1,
	}
}

func (s State) Inches() bool           { return s.Units == UnitsInch }
func (s State) RelativeMotion() bool   { return s.Distance == Relative }
func (s State) RelativeExtrusion() bool { return s.Extrusion == Relative }

// WPos returns the work position.
func (s State) WPos() coord.Point {
	return s.Pos.Sub(s.Offset)
}
