// Package meshlevel follows a bed mesh built from probe points, raising or
// lowering path points by the bed height under them.
package meshlevel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/delaunay"
	"github.com/mastercactapus/gcpath/coord"
)

var ErrTooFewPoints = errors.New("need at least 3 points to create a mesh")

// Mesh is a triangulated height map. It is safe for concurrent use.
type Mesh struct {
	min, max  coord.Point
	triangles []coord.Triangle
}

// NewMesh triangulates probe points in XY; Z is the measured height.
func NewMesh(points []coord.Point) (*Mesh, error) {
	if len(points) < 3 {
		return nil, ErrTooFewPoints
	}

	flat := make([]delaunay.Point, len(points))
	byXY := make(map[delaunay.Point]coord.Point, len(points))
	mesh := &Mesh{min: points[0], max: points[0]}
	for i, p := range points {
		mesh.min.X, mesh.min.Y = math.Min(mesh.min.X, p.X), math.Min(mesh.min.Y, p.Y)
		mesh.max.X, mesh.max.Y = math.Max(mesh.max.X, p.X), math.Max(mesh.max.Y, p.Y)

		flat[i] = delaunay.Point{X: p.X, Y: p.Y}
		byXY[flat[i]] = p
	}

	tri, err := delaunay.Triangulate(flat)
	if err != nil {
		return nil, fmt.Errorf("triangulate probes: %w", err)
	}

	mesh.triangles = make([]coord.Triangle, 0, len(tri.Triangles)/3)
	for i := 0; i+2 < len(tri.Triangles); i += 3 {
		mesh.triangles = append(mesh.triangles, coord.Triangle{
			A: byXY[tri.Points[tri.Triangles[i]]],
			B: byXY[tri.Points[tri.Triangles[i+1]]],
			C: byXY[tri.Points[tri.Triangles[i+2]]],
		})
	}
	return mesh, nil
}

// Len is the number of triangles.
func (m *Mesh) Len() int { return len(m.triangles) }

// OffsetZ interpolates the bed height at x, y.
func (m *Mesh) OffsetZ(x, y float64) (bool, float64) {
	if x < m.min.X-coord.Epsilon || m.max.X+coord.Epsilon < x || y < m.min.Y-coord.Epsilon || m.max.Y+coord.Epsilon < y {
		return false, 0
	}
	for _, t := range m.triangles {
		if t.ContainsXY(x, y) {
			return true, t.Z(x, y)
		}
	}
	return false, 0
}

// ReadProbes reads "x,y,z" records. Blank lines and lines starting with
// '#' are skipped.
func ReadProbes(r io.Reader) ([]coord.Point, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var pts []coord.Point
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return pts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read probes: %w", err)
		}

		var v [3]float64
		for i, f := range rec {
			v[i], err = strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				line, _ := cr.FieldPos(i)
				return nil, fmt.Errorf("read probes: line %d: %w", line, err)
			}
		}
		pts = append(pts, coord.Point{X: v[0], Y: v[1], Z: v[2]})
	}
}
