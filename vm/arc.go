package vm

import (
	"fmt"
	"math"

	"github.com/mastercactapus/gcpath/coord"
	"github.com/mastercactapus/gcpath/gcode"
)

// minRadius is the smallest arc radius treated as non-degenerate.
const minRadius = 1e-9

// GeometryError is an arc that cannot be resolved from its words.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string { return "unresolvable arc: " + e.Reason }

func geometryErrorf(format string, args ...interface{}) error {
	return &GeometryError{Reason: fmt.Sprintf(format, args...)}
}

// arcCenter finds the center and radius of an arc from start to end.
//
// R words pick the center left of the direction of travel for
// counter-clockwise arcs and right of it for clockwise arcs (the arc of
// at most 180 degrees); a negative R picks the other one. Otherwise the
// plane's offset words give the center, relative to start unless
// s.ArcCenter is ArcAbsolute.
func arcCenter(s State, start, end coord.Point, p gcode.Params, cw bool, tol float64) (coord.Point, float64, error) {
	scale := s.Units.Scale()
	u0, v0, w0 := s.Plane.Project(start)
	u1, v1, _ := s.Plane.Project(end)

	if r, ok := p.Get('R'); ok {
		return radiusCenter(s.Plane, u0, v0, u1, v1, w0, r*scale, cw, tol)
	}

	lu, lv := s.Plane.OffsetLetters()
	i, _ := p.Get(lu)
	j, _ := p.Get(lv)

	var cu, cv float64
	if s.ArcCenter == ArcAbsolute {
		ou, ov, _ := s.Plane.Project(s.Offset)
		cu, cv = i*scale+ou, j*scale+ov
	} else {
		cu, cv = u0+i*scale, v0+j*scale
	}

	r0 := math.Hypot(u0-cu, v0-cv)
	if r0 < minRadius {
		return coord.Point{}, 0, geometryErrorf("zero radius (no %c%c offset or R)", lu, lv)
	}
	r1 := math.Hypot(u1-cu, v1-cv)
	if math.Abs(r0-r1) > math.Max(tol, r0*0.001) {
		return coord.Point{}, 0, geometryErrorf("start radius %.4f and end radius %.4f differ", r0, r1)
	}

	return s.Plane.Unproject(cu, cv, w0), r0, nil
}

func radiusCenter(pl coord.Plane, u0, v0, u1, v1, w, r float64, cw bool, tol float64) (coord.Point, float64, error) {
	if math.Abs(r) < minRadius {
		return coord.Point{}, 0, geometryErrorf("zero radius")
	}
	du, dv := u1-u0, v1-v0
	d := math.Hypot(du, dv)
	if d < minRadius {
		return coord.Point{}, 0, geometryErrorf("R arc with coincident start and end")
	}
	half := d / 2
	if half > math.Abs(r)+tol {
		return coord.Point{}, 0, geometryErrorf("endpoints %.4f apart exceed diameter %.4f", d, 2*math.Abs(r))
	}

	h := math.Sqrt(math.Max(r*r-half*half, 0))
	// unit normal to the left of travel
	nu, nv := -dv/d, du/d
	sign := 1.0
	if cw {
		sign = -1
	}
	if r < 0 {
		sign = -sign
	}

	cu := u0 + du/2 + sign*h*nu
	cv := v0 + dv/2 + sign*h*nv
	// the clamp above can leave the true radius a hair over |r|
	return pl.Unproject(cu, cv, w), math.Max(math.Abs(r), half), nil
}
