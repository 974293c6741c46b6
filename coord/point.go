package coord

import (
	"math"
	"strconv"
)

// Point is an absolute machine position in millimeters.
type Point struct{ X, Y, Z float64 }

func (p Point) Equal(b Point) bool {
	return p.X == b.X && p.Y == b.Y && p.Z == b.Z
}

// Near reports whether every axis of p is within eps of b.
func (p Point) Near(b Point, eps float64) bool {
	return math.Abs(p.X-b.X) <= eps && math.Abs(p.Y-b.Y) <= eps && math.Abs(p.Z-b.Z) <= eps
}

func (p Point) Cross(op Point) Point {
	return Point{
		p.Y*op.Z - p.Z*op.Y,
		p.Z*op.X - p.X*op.Z,
		p.X*op.Y - p.Y*op.X,
	}
}
func (p Point) Dot(op Point) float64 {
	return p.X*op.X + p.Y*op.Y + p.Z*op.Z
}
func (p Point) Mul(val float64) Point {
	p.X *= val
	p.Y *= val
	p.Z *= val
	return p
}

func (p Point) Div(val float64) Point {
	p.X /= val
	p.Y /= val
	p.Z /= val
	return p
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	return p
}

// Norm is the euclidean length of p.
func (p Point) Norm() float64 { return math.Sqrt(p.Dot(p)) }

// Distance returns the 3D distance between p and target.
func (p Point) Distance(target Point) float64 { return target.Sub(p).Norm() }

// Lerp returns the point at fraction t of the way from p to target.
func (p Point) Lerp(target Point, t float64) Point {
	return Point{
		X: p.X + (target.X-p.X)*t,
		Y: p.Y + (target.Y-p.Y)*t,
		Z: p.Z + (target.Z-p.Z)*t,
	}
}

// Axis returns the value of axis i (0=X, 1=Y, 2=Z).
func (p Point) Axis(i int) float64 {
	switch i {
	case 0:
		return p.X
	case 1:
		return p.Y
	case 2:
		return p.Z
	}
	panic("coord: invalid axis " + strconv.Itoa(i))
}

// SetAxis returns p with axis i replaced by val.
func (p Point) SetAxis(i int, val float64) Point {
	switch i {
	case 0:
		p.X = val
	case 1:
		p.Y = val
	case 2:
		p.Z = val
	default:
		panic("coord: invalid axis " + strconv.Itoa(i))
	}
	return p
}

// Split will return a set of evenly spaced points
// from p to the target, excluding p itself.
func (p Point) Split(target Point, n int) []Point {
	res := make([]Point, n)
	for i := range res {
		res[i] = p.Lerp(target, float64(i+1)/float64(n))
	}
	res[n-1] = target

	return res
}

// DistanceXY will return the 2D distance to p from (x,y).
func (p Point) DistanceXY(x, y float64) float64 {
	return math.Hypot(x-p.X, y-p.Y)
}

func (p Point) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return "(" + f(p.X) + ", " + f(p.Y) + ", " + f(p.Z) + ")"
}
