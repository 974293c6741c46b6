package coord

import (
	"math"
)

const (
	// Epsilon is the max error when checking containment.
	Epsilon   = 0.001
	epsilonSq = Epsilon * Epsilon
)

// Triangle is a face of a probed bed mesh.
type Triangle struct{ A, B, C Point }

// ContainsXY returns true if the 2D projection of the triangle
// has the point x,y, allowing Epsilon of slack along the edges.
func (t Triangle) ContainsXY(x, y float64) bool {
	p := Point{X: x, Y: y}
	if !t.boundsXY().grow(Epsilon).contains(x, y) {
		return false
	}
	if side(t.A, t.B, p) >= 0 && side(t.B, t.C, p) >= 0 && side(t.C, t.A, p) >= 0 {
		return true
	}
	// Delaunay output is counter-clockwise but callers may build their own.
	if side(t.A, t.B, p) <= 0 && side(t.B, t.C, p) <= 0 && side(t.C, t.A, p) <= 0 {
		return true
	}

	return segmentDistSqXY(t.A, t.B, p) <= epsilonSq ||
		segmentDistSqXY(t.B, t.C, p) <= epsilonSq ||
		segmentDistSqXY(t.C, t.A, p) <= epsilonSq
}

// Z will give the Z-coordinate on the plane defined by the triangle
// where it intersects x,y.
func (t Triangle) Z(x, y float64) float64 {
	n := t.C.Sub(t.A).Cross(t.B.Sub(t.A))
	d := n.Dot(t.C)

	return (d - n.X*x - n.Y*y) / n.Z
}

type rectXY struct{ minX, minY, maxX, maxY float64 }

func (t Triangle) boundsXY() rectXY {
	return rectXY{
		minX: math.Min(t.A.X, math.Min(t.B.X, t.C.X)),
		minY: math.Min(t.A.Y, math.Min(t.B.Y, t.C.Y)),
		maxX: math.Max(t.A.X, math.Max(t.B.X, t.C.X)),
		maxY: math.Max(t.A.Y, math.Max(t.B.Y, t.C.Y)),
	}
}

func (r rectXY) grow(d float64) rectXY {
	return rectXY{r.minX - d, r.minY - d, r.maxX + d, r.maxY + d}
}

func (r rectXY) contains(x, y float64) bool {
	return x >= r.minX && x <= r.maxX && y >= r.minY && y <= r.maxY
}

// adapted from https://totologic.blogspot.com/2014/01/accurate-point-in-triangle-test.html

func side(a, b, p Point) float64 {
	return (b.Y-a.Y)*(p.X-a.X) + (a.X-b.X)*(p.Y-a.Y)
}

func segmentDistSqXY(a, b, p Point) float64 {
	abLenSq := (b.X-a.X)*(b.X-a.X) + (b.Y-a.Y)*(b.Y-a.Y)
	t := ((p.X-a.X)*(b.X-a.X) + (p.Y-a.Y)*(b.Y-a.Y)) / abLenSq
	switch {
	case t < 0:
		return (p.X-a.X)*(p.X-a.X) + (p.Y-a.Y)*(p.Y-a.Y)
	case t <= 1:
		apLenSq := (a.X-p.X)*(a.X-p.X) + (a.Y-p.Y)*(a.Y-p.Y)
		return apLenSq - t*t*abLenSq
	}

	return (p.X-b.X)*(p.X-b.X) + (p.Y-b.Y)*(p.Y-b.Y)
}
