package meshlevel

import (
	"errors"
	"math"

	"github.com/mastercactapus/gcpath/coord"
	"github.com/mastercactapus/gcpath/gcode"
)

// GridOptions configure a grid of straight Z probes starting at a machine
// position. The probe results are the input of NewMesh.
type GridOptions struct {
	// DistanceX and DistanceY are the size of the probed area.
	DistanceX, DistanceY float64
	// Granularity is the longest distance between neighboring probes.
	Granularity float64

	FeedRate float64
	// MaxTravel is the (negative) distance a probe may travel down.
	MaxTravel float64
	// Lift is the machine Z that travel moves happen at.
	Lift float64
}

var errGrid = errors.New("probe grid needs a positive size and granularity")

// Points returns the probe positions relative to the grid origin. Rows
// alternate direction so travel between probes stays short.
func (opt GridOptions) Points() ([]coord.Point, error) {
	if opt.DistanceX <= 0 || opt.DistanceY <= 0 || opt.Granularity <= 0 {
		return nil, errGrid
	}
	xyDist := math.Sqrt(opt.Granularity * opt.Granularity / 2)
	xCount := int(math.Ceil(opt.DistanceX / xyDist))
	yCount := int(math.Ceil(opt.DistanceY / xyDist))

	pts := make([]coord.Point, 0, (xCount+1)*(yCount+1))
	for y := 0; y <= yCount; y++ {
		for x := 0; x <= xCount; x++ {
			xVal := opt.DistanceX / float64(xCount) * float64(x)
			if y%2 != 0 {
				xVal = opt.DistanceX - xVal
			}
			pts = append(pts, coord.Point{X: xVal, Y: opt.DistanceY / float64(yCount) * float64(y)})
		}
	}
	return pts, nil
}

func (opt GridOptions) probe() []gcode.Block {
	return []gcode.Block{
		{
			{W: 'G', Arg: 91},
			{W: 'G', Arg: 38.2},
			{W: 'Z', Arg: opt.MaxTravel},
			{W: 'F', Arg: opt.FeedRate},
		},
		{
			{W: 'G', Arg: 90},
		},
		{
			{W: 'G', Arg: 53},
			{W: 'G', Arg: 0},
			{W: 'Z', Arg: opt.Lift},
		},
	}
}

// Program generates the probing program for a grid whose corner is the
// machine position mPos. It ends back at mPos.
func (opt GridOptions) Program(mPos coord.Point) ([]gcode.Block, error) {
	pts, err := opt.Points()
	if err != nil {
		return nil, err
	}

	b := []gcode.Block{
		{
			{W: 'G', Arg: 21},
			{W: 'G', Arg: 90},
		},
		{
			{W: 'G', Arg: 53},
			{W: 'G', Arg: 0},
			{W: 'Z', Arg: opt.Lift},
		},
	}
	for _, p := range pts {
		b = append(b, gcode.Block{
			{W: 'G', Arg: 53},
			{W: 'G', Arg: 0},
			{W: 'X', Arg: mPos.X + p.X},
			{W: 'Y', Arg: mPos.Y + p.Y},
		})
		b = append(b, opt.probe()...)
	}

	b = append(b,
		gcode.Block{
			{W: 'G', Arg: 53},
			{W: 'G', Arg: 0},
			{W: 'X', Arg: mPos.X},
			{W: 'Y', Arg: mPos.Y},
		},
		gcode.Block{
			{W: 'G', Arg: 53},
			{W: 'G', Arg: 0},
			{W: 'Z', Arg: mPos.Z},
		},
	)
	return b, nil
}
