package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mastercactapus/gcpath/coord"
	"github.com/mastercactapus/gcpath/gcode"
)

// DefaultArcTolerance is the allowed start/end radius mismatch in mm.
const DefaultArcTolerance = 0.05

type Options struct {
	// Units are assumed until the program selects G20 or G21.
	Units Units
	// ArcTolerance bounds radius mismatches and R chord overshoot.
	ArcTolerance float64
}

// Machine applies commands in program order. It must only be driven from
// a single goroutine.
type Machine struct {
	state  State
	arcTol float64
}

func NewMachine(opts Options) *Machine {
	m := &Machine{
		state:  Home(opts.Units),
		arcTol: opts.ArcTolerance,
	}
	if m.arcTol <= 0 {
		m.arcTol = DefaultArcTolerance
	}
	return m
}

// State returns a copy of the current state.
func (m *Machine) State() State { return m.state }

// Run applies cmd, read from ln. For motion commands it returns the
// resolved move and true.
//
// A *GeometryError means an arc could not be resolved; the returned move
// is then a straight linear move between the same endpoints and state
// has still advanced to the end point.
func (m *Machine) Run(ln gcode.Line, cmd gcode.Command) (Move, bool, error) {
	m.trackLayer(ln.Comments)

	switch c := cmd.(type) {
	case gcode.Motion:
		for _, k := range c.Settings {
			m.apply(k, c.Params)
		}
		m.setFeed(c.Params)
		mv, err := m.move(ln.Index, c)
		return mv, true, err
	case gcode.Setting:
		for _, k := range c.Kinds {
			m.apply(k, c.Params)
		}
		m.setFeed(c.Params)
		return Move{}, false, nil
	case gcode.Noop:
		return Move{}, false, nil
	}

	panic(fmt.Sprintf("vm: unknown command type %T", cmd))
}

func (m *Machine) trackLayer(comments []string) {
	for _, c := range comments {
		if !strings.HasPrefix(c, "LAYER:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(c[len("LAYER:"):]))
		if err == nil {
			m.state.Layer = n
		}
	}
}

func (m *Machine) setFeed(p gcode.Params) {
	if f, ok := p.Get('F'); ok {
		m.state.Feed = f * m.state.Units.Scale()
	}
}

var axisLetters = [3]byte{'X', 'Y', 'Z'}

func (m *Machine) apply(k gcode.SettingKind, p gcode.Params) {
	s := &m.state
	switch k {
	case gcode.SetPlaneXY:
		s.Plane = coord.PlaneXY
	case gcode.SetPlaneXZ:
		s.Plane = coord.PlaneXZ
	case gcode.SetPlaneYZ:
		s.Plane = coord.PlaneYZ
	case gcode.SetUnitsInch:
		s.Units = UnitsInch
	case gcode.SetUnitsMM:
		s.Units = UnitsMM
	case gcode.SetAbsolute:
		s.Distance, s.Extrusion = Absolute, Absolute
	case gcode.SetRelative:
		s.Distance, s.Extrusion = Relative, Relative
	case gcode.SetArcAbsolute:
		s.ArcCenter = ArcAbsolute
	case gcode.SetArcIncremental:
		s.ArcCenter = ArcIncremental
	case gcode.SetExtrudeAbsolute:
		s.Extrusion = Absolute
	case gcode.SetExtrudeRelative:
		s.Extrusion = Relative
	case gcode.SetPosition:
		m.setPosition(p)
	default:
		panic(fmt.Sprintf("vm: unknown setting %v", k))
	}
}

// setPosition redefines the work position without moving (G92). With no
// axis words every axis and the extruder are zeroed.
func (m *Machine) setPosition(p gcode.Params) {
	s := &m.state
	scale := s.Units.Scale()
	all := !p.HasAny("XYZE")
	for i, l := range axisLetters {
		v, ok := p.Get(l)
		if !ok && !all {
			continue
		}
		s.Offset = s.Offset.SetAxis(i, s.Pos.Axis(i)-v*scale)
	}
	if v, ok := p.Get('E'); ok || all {
		s.E = v * scale
	}
}

func (m *Machine) move(line int, c gcode.Motion) (Move, error) {
	s := &m.state
	kind := c.Kind
	if c.Inherit {
		kind = s.Motion
	} else if kind != gcode.MotionHome {
		s.Motion = kind
	}

	mv := Move{
		Line:  line,
		Start: s.Pos,
		Plane: s.Plane,
		Feed:  s.Feed,
		Layer: s.Layer,
	}

	if kind == gcode.MotionHome {
		mv.Kind = MoveRapid
		mv.End = m.home(c.Params)
		s.Pos = mv.End
		return mv, nil
	}

	mv.End = m.target(c.Params, c.Machine)
	mv.Extrude = m.extrude(c.Params)
	s.Pos = mv.End

	var err error
	if c.Machine && (kind == gcode.MotionArcCW || kind == gcode.MotionArcCCW) {
		mv.Kind = MoveLinear
		return mv, geometryErrorf("G53 with %s motion", kind)
	}
	switch kind {
	case gcode.MotionRapid:
		mv.Kind = MoveRapid
	case gcode.MotionLinear, gcode.MotionProbe:
		mv.Kind = MoveLinear
	case gcode.MotionArcCW, gcode.MotionArcCCW:
		cw := kind == gcode.MotionArcCW
		mv.Center, mv.Radius, err = arcCenter(*s, mv.Start, mv.End, c.Params, cw, m.arcTol)
		switch {
		case err != nil:
			mv.Kind, mv.Center, mv.Radius = MoveLinear, coord.Point{}, 0
		case cw:
			mv.Kind = MoveArcCW
		default:
			mv.Kind = MoveArcCCW
		}
		if err == nil && !c.Params.Has('R') {
			mv.FullCircle = m.closesCircle(mv)
		}
	default:
		panic(fmt.Sprintf("vm: unknown motion %v", kind))
	}

	return mv, err
}

// closesCircle reports whether an arc's endpoints are close enough in its
// plane to read it as a full turn: within the arc tolerance, and within
// 0.1% of the radius so short arcs on large radii stay short.
func (m *Machine) closesCircle(mv Move) bool {
	u0, v0, _ := mv.Plane.Project(mv.Start)
	u1, v1, _ := mv.Plane.Project(mv.End)
	return math.Hypot(u1-u0, v1-v0) <= math.Min(m.arcTol, mv.Radius*0.001)
}

// target computes the machine end point. Axes without a word hold. With
// machine set (G53) the words are absolute machine coordinates.
func (m *Machine) target(p gcode.Params, machine bool) coord.Point {
	s := m.state
	scale := s.Units.Scale()
	pos := s.Pos
	for i, l := range axisLetters {
		v, ok := p.Get(l)
		if !ok {
			continue
		}
		v *= scale
		switch {
		case machine:
			pos = pos.SetAxis(i, v)
		case s.RelativeMotion():
			pos = pos.SetAxis(i, pos.Axis(i)+v)
		default:
			pos = pos.SetAxis(i, v+s.Offset.Axis(i))
		}
	}
	return pos
}

// extrude returns the extrusion delta of a move and advances E.
func (m *Machine) extrude(p gcode.Params) float64 {
	s := &m.state
	v, ok := p.Get('E')
	if !ok {
		return 0
	}
	v *= s.Units.Scale()
	if s.RelativeExtrusion() {
		s.E += v
		return v
	}
	d := v - s.E
	s.E = v
	return d
}

// home returns the machine origin on the named axes, or on all of them,
// clearing their work offsets.
func (m *Machine) home(p gcode.Params) coord.Point {
	s := &m.state
	all := !p.HasAny("XYZ")
	pos := s.Pos
	for i, l := range axisLetters {
		if !all && !p.Has(l) {
			continue
		}
		pos = pos.SetAxis(i, 0)
		s.Offset = s.Offset.SetAxis(i, 0)
	}
	return pos
}
