package meshlevel

import (
	"iter"

	"github.com/mastercactapus/gcpath/coord"
	"github.com/mastercactapus/gcpath/path"
)

// ZOffsetter reports the bed height at x, y. ok is false outside the
// probed area.
type ZOffsetter interface {
	OffsetZ(x, y float64) (ok bool, z float64)
}

type flatBed struct{}

func (flatBed) OffsetZ(x, y float64) (bool, float64) { return false, 0 }

// Point is a path point after leveling.
type Point struct {
	coord.Point
	// Line is the source line of the segment the point ends.
	Line  int
	Rapid bool
	Feed  float64
	// Extrude is the share of the segment's extrusion used to reach the
	// point.
	Extrude float64
	// Leveled is false when the point was outside the mesh.
	Leveled bool
}

type Config struct {
	ZOffsetter ZOffsetter
	// Granularity is the longest distance between points. Long moves are
	// split so the nozzle follows the bed between probe points.
	Granularity float64
	// Sampler bounds the chord error of arcs.
	Sampler path.Sampler
}

// Leveler follows a path at a fixed granularity and offsets every point by
// the bed height under it.
type Leveler struct {
	offsetter   ZOffsetter
	granularity float64
	sampler     path.Sampler
}

func New(cfg Config) *Leveler {
	l := &Leveler{
		offsetter:   cfg.ZOffsetter,
		granularity: cfg.Granularity,
		sampler:     cfg.Sampler,
	}
	if l.offsetter == nil {
		l.offsetter = flatBed{}
	}
	return l
}

func (l *Leveler) level(p coord.Point) (coord.Point, bool) {
	ok, z := l.offsetter.OffsetZ(p.X, p.Y)
	if ok {
		p.Z += z
	}
	return p, ok
}

// Points yields the leveled points of segs. The start of the first
// segment is yielded once; after that each segment contributes the points
// past its start.
func (l *Leveler) Points(segs iter.Seq[path.Segment]) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		first := true
		for s := range segs {
			var pts []coord.Point
			for p := range l.sampler.Interpolate(s, l.granularity) {
				pts = append(pts, p)
			}

			if first {
				first = false
				p, ok := l.level(pts[0])
				if !yield(Point{Point: p, Line: s.Line, Rapid: s.Rapid, Feed: s.Feed, Leveled: ok}) {
					return
				}
			}

			share := s.Extrude / float64(len(pts)-1)
			for _, p := range pts[1:] {
				lp, ok := l.level(p)
				if !yield(Point{Point: lp, Line: s.Line, Rapid: s.Rapid, Feed: s.Feed, Extrude: share, Leveled: ok}) {
					return
				}
			}
		}
	}
}
