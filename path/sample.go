package path

import (
	"iter"
	"math"

	"github.com/mastercactapus/gcpath/coord"
)

const (
	// DefaultTolerance is the chord error used when none is given, in mm.
	DefaultTolerance = 0.01
	// DefaultMaxSamples caps the number of chords per segment.
	DefaultMaxSamples = 1 << 20
)

// Sampler turns segments into points.
type Sampler struct {
	// Tolerance is the largest allowed distance between an arc and the
	// chords approximating it.
	Tolerance float64
	// MaxSamples caps the chords per segment. It wins over Tolerance.
	MaxSamples int
}

func (sm Sampler) withDefaults() Sampler {
	if sm.Tolerance <= 0 {
		sm.Tolerance = DefaultTolerance
	}
	if sm.MaxSamples <= 0 {
		sm.MaxSamples = DefaultMaxSamples
	}
	return sm
}

// Count returns the number of chords s is split into. Lines are always
// one chord.
func (sm Sampler) Count(s Segment) int {
	if s.Kind != KindArc {
		return 1
	}
	sm = sm.withDefaults()
	n := math.Ceil(math.Abs(s.Arc.Sweep) / s.Arc.maxStep(sm.Tolerance))
	return clampCount(n, sm.MaxSamples)
}

// Points yields the start point followed by the end of every chord. The
// sequence is computed on demand and may be iterated any number of times.
func (sm Sampler) Points(s Segment) iter.Seq[coord.Point] {
	n := sm.Count(s)
	return divide(s, n)
}

// Interpolate yields points no more than step apart along s, starting
// and ending exactly on its endpoints. Arcs are never split more coarsely
// than Points would split them.
func (sm Sampler) Interpolate(s Segment, step float64) iter.Seq[coord.Point] {
	sm = sm.withDefaults()
	n := sm.Count(s)
	if step > 0 {
		n = max(n, clampCount(math.Ceil(s.Length()/step), sm.MaxSamples))
	}
	return divide(s, n)
}

func clampCount(n float64, limit int) int {
	switch {
	case math.IsNaN(n) || n < 1:
		return 1
	case n > float64(limit):
		return limit
	}
	return int(n)
}

func divide(s Segment, n int) iter.Seq[coord.Point] {
	return func(yield func(coord.Point) bool) {
		for i := 0; i <= n; i++ {
			if !yield(s.At(float64(i) / float64(n))) {
				return
			}
		}
	}
}

// Points samples s with the default sample cap.
func (s Segment) Points(tol float64) iter.Seq[coord.Point] {
	return Sampler{Tolerance: tol}.Points(s)
}

// SampleCount is the number of chords Points(tol) produces.
func (s Segment) SampleCount(tol float64) int {
	return Sampler{Tolerance: tol}.Count(s)
}

// Interpolate splits s into pieces no longer than step, using the default
// tolerance for arcs.
func (s Segment) Interpolate(step float64) iter.Seq[coord.Point] {
	return Sampler{}.Interpolate(s, step)
}
