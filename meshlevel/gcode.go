package meshlevel

import (
	"bufio"
	"io"
	"iter"

	"github.com/mastercactapus/gcpath/gcode"
	"github.com/mastercactapus/gcpath/path"
)

// WriteGCode writes segs as a leveled program of straight moves in
// absolute millimeters with relative extrusion.
func (l *Leveler) WriteGCode(w io.Writer, segs iter.Seq[path.Segment]) error {
	bw := bufio.NewWriter(w)
	header := gcode.Block{{W: 'G', Arg: 21}, {W: 'G', Arg: 90}, {W: 'M', Arg: 83}}
	if _, err := bw.WriteString(header.String() + "\n"); err != nil {
		return err
	}

	var feed float64
	first := true
	for p := range l.Points(segs) {
		motion := 1.0
		if p.Rapid {
			motion = 0
		}
		b := gcode.Block{
			{W: 'G', Arg: motion},
			{W: 'X', Arg: p.X},
			{W: 'Y', Arg: p.Y},
			{W: 'Z', Arg: p.Z},
		}
		if first {
			// position only: the start point is where the machine already is
			first = false
			b[0].Arg = 0
		} else {
			if p.Extrude != 0 {
				b = append(b, gcode.Word{W: 'E', Arg: p.Extrude})
			}
			if !p.Rapid && p.Feed != feed && p.Feed > 0 {
				feed = p.Feed
				b = append(b, gcode.Word{W: 'F', Arg: feed})
			}
		}
		if _, err := bw.WriteString(b.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
