package export

import (
	"encoding/csv"
	"io"
	"strconv"
)

var (
	segmentHeader = []string{"line", "kind", "rapid", "x0", "y0", "z0", "x1", "y1", "z1", "cx", "cy", "cz", "radius", "sweep", "feed", "extrude", "layer"}
	pointHeader   = []string{"line", "x", "y", "z", "feed", "extrude", "layer"}
)

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// WriteCSV writes one row per segment, or one row per sampled point when
// opts.Points is set. The extrusion of a segment is written on its last
// point.
func WriteCSV(w io.Writer, src Source, opts Options) error {
	cw := csv.NewWriter(w)
	header := segmentHeader
	if opts.Points {
		header = pointHeader
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	sm := src.Sampler()
	var center [3]float64
	first := true
	for s := range src.Segments() {
		r := NewRecord(s)
		if !opts.Points {
			center = [3]float64{}
			if r.Center != nil {
				center = *r.Center
			}
			err := cw.Write([]string{
				strconv.Itoa(r.Line), r.Kind.String(), strconv.FormatBool(r.Rapid),
				ftoa(r.Start[0]), ftoa(r.Start[1]), ftoa(r.Start[2]),
				ftoa(r.End[0]), ftoa(r.End[1]), ftoa(r.End[2]),
				ftoa(center[0]), ftoa(center[1]), ftoa(center[2]),
				ftoa(r.Radius), ftoa(r.Sweep), ftoa(r.Feed), ftoa(r.Extrude), strconv.Itoa(r.Layer),
			})
			if err != nil {
				return err
			}
			continue
		}

		n := sm.Count(s)
		var i int
		for p := range sm.Points(s) {
			i++
			// segments are continuous; the start repeats the previous end
			if i == 1 && !first {
				continue
			}
			var e float64
			if i == n+1 {
				e = s.Extrude
			}
			err := cw.Write([]string{strconv.Itoa(s.Line), ftoa(p.X), ftoa(p.Y), ftoa(p.Z), ftoa(s.Feed), ftoa(e), strconv.Itoa(s.Layer)})
			if err != nil {
				return err
			}
		}
		first = false
	}

	cw.Flush()
	return cw.Error()
}
