package coord

// Plane selects the pair of axes an arc curves in. The remaining axis
// is the normal and may still move linearly (helix).
type Plane byte

const (
	PlaneXY Plane = iota // G17
	PlaneXZ              // G18
	PlaneYZ              // G19
)

// Axes returns the first and second in-plane axis indexes and the normal
// axis index. The pairs are ordered so that a counter-clockwise turn from
// first to second is counter-clockwise when viewed from the positive normal:
// XY (normal Z), ZX (normal Y), YZ (normal X).
func (pl Plane) Axes() (u, v, w int) {
	switch pl {
	case PlaneXZ:
		return 2, 0, 1
	case PlaneYZ:
		return 1, 2, 0
	}
	return 0, 1, 2
}

// OffsetLetters returns the center-offset words used for arcs in this plane,
// in the same order as Axes.
func (pl Plane) OffsetLetters() (u, v byte) {
	switch pl {
	case PlaneXZ:
		return 'K', 'I'
	case PlaneYZ:
		return 'J', 'K'
	}
	return 'I', 'J'
}

// Project splits p into in-plane coordinates (u, v) and the normal w.
func (pl Plane) Project(p Point) (u, v, w float64) {
	iu, iv, iw := pl.Axes()
	return p.Axis(iu), p.Axis(iv), p.Axis(iw)
}

// Unproject is the inverse of Project.
func (pl Plane) Unproject(u, v, w float64) Point {
	iu, iv, iw := pl.Axes()
	var p Point
	p = p.SetAxis(iu, u)
	p = p.SetAxis(iv, v)
	p = p.SetAxis(iw, w)
	return p
}

func (pl Plane) String() string {
	switch pl {
	case PlaneXY:
		return "XY"
	case PlaneXZ:
		return "XZ"
	case PlaneYZ:
		return "YZ"
	}
	return "unknown"
}
