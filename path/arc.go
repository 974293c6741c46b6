package path

import (
	"math"

	"github.com/mastercactapus/gcpath/coord"
)

// fullCircleEps is how close in-plane endpoints must be for an arc to be
// read as a full turn when the move does not already say so.
const fullCircleEps = 1e-9

// Arc describes an arc analytically. Angles are radians measured in the
// plane's (u, v) axes; Sweep is positive counter-clockwise and never zero.
type Arc struct {
	Center     coord.Point
	Radius     float64
	Plane      coord.Plane
	StartAngle float64
	EndAngle   float64
	Sweep      float64
}

// Clockwise reports the direction of travel.
func (a Arc) Clockwise() bool { return a.Sweep < 0 }

func newArc(start, end, center coord.Point, r float64, pl coord.Plane, cw, full bool) Arc {
	cu, cv, _ := pl.Project(center)
	u0, v0, _ := pl.Project(start)
	u1, v1, _ := pl.Project(end)

	a := Arc{
		Center:     center,
		Radius:     r,
		Plane:      pl,
		StartAngle: math.Atan2(v0-cv, u0-cu),
		EndAngle:   math.Atan2(v1-cv, u1-cu),
	}

	full = full || (math.Abs(u1-u0) <= fullCircleEps && math.Abs(v1-v0) <= fullCircleEps)
	if full {
		// a whole turn, corrected by the signed gap so either side of
		// the start sweeps the same way
		gap := math.Remainder(a.EndAngle-a.StartAngle, 2*math.Pi)
		a.Sweep = 2*math.Pi + gap
		if cw {
			a.Sweep = gap - 2*math.Pi
		}
		return a
	}

	a.Sweep = a.EndAngle - a.StartAngle
	if a.Sweep <= 0 {
		a.Sweep += 2 * math.Pi
	}
	if cw {
		a.Sweep -= 2 * math.Pi
		if a.Sweep == 0 {
			a.Sweep = -2 * math.Pi
		}
	}
	return a
}

// point returns the arc point at angle theta with normal coordinate w.
func (a Arc) point(theta, w float64) coord.Point {
	cu, cv, _ := a.Plane.Project(a.Center)
	return a.Plane.Unproject(cu+a.Radius*math.Cos(theta), cv+a.Radius*math.Sin(theta), w)
}

// maxStep is the largest angular step whose chord stays within tol of the
// arc.
func (a Arc) maxStep(tol float64) float64 {
	if tol >= a.Radius {
		return math.Pi
	}
	return 2 * math.Acos(1-tol/a.Radius)
}
