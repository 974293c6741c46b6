package meshlevel

import (
	"github.com/mastercactapus/gcpath/coord"
)

// OffsetFrom returns a copy of points with z subtracted from every height,
// making z the reference level of the mesh.
func OffsetFrom(z float64, points []coord.Point) []coord.Point {
	p := make([]coord.Point, len(points))
	for i, pt := range points {
		pt.Z -= z
		p[i] = pt
	}
	return p
}
