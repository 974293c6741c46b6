package vm

import (
	"math"
	"strings"
	"testing"

	"github.com/mastercactapus/gcpath/coord"
	"github.com/mastercactapus/gcpath/gcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, m *Machine, program string) ([]Move, []error) {
	t.Helper()
	var moves []Move
	var errs []error
	for i, s := range strings.Split(program, "\n") {
		ln, err := gcode.Tokenize(i, s)
		require.NoError(t, err)
		cmd, _ := gcode.Classify(ln)
		mv, ok, err := m.Run(ln, cmd)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			moves = append(moves, mv)
		}
	}
	return moves, errs
}

func TestMachine_Scenario(t *testing.T) {
	m := NewMachine(Options{})
	moves, errs := resolve(t, m, "G90\nG1 X10 Y0 F100\nG1 X10 Y10\nG2 X0 Y10 I-5 J0")
	require.Empty(t, errs)
	require.Len(t, moves, 3)

	arc := moves[2]
	assert.Equal(t, MoveArcCW, arc.Kind)
	assert.Equal(t, 3, arc.Line)
	assert.Equal(t, coord.Point{X: 5, Y: 10}, arc.Center)
	assert.Equal(t, 5.0, arc.Radius)
	assert.Equal(t, coord.Point{X: 10, Y: 10}, arc.Start)
	assert.Equal(t, coord.Point{X: 0, Y: 10}, arc.End)
	assert.Equal(t, 100.0, arc.Feed, "feed is modal")
}

func TestMachine_HoldOmittedAxes(t *testing.T) {
	m := NewMachine(Options{})
	moves, _ := resolve(t, m, "G1 X1 Y2 Z3\nG1 Y7\nG0 Z-1\nX4")
	require.Len(t, moves, 4)
	assert.Equal(t, coord.Point{X: 1, Y: 7, Z: 3}, moves[1].End)
	assert.Equal(t, coord.Point{X: 1, Y: 7, Z: -1}, moves[2].End)
	assert.Equal(t, coord.Point{X: 4, Y: 7, Z: -1}, moves[3].End)
	assert.Equal(t, MoveRapid, moves[3].Kind, "motion mode is modal")

	for i := 1; i < len(moves); i++ {
		assert.Equal(t, moves[i-1].End, moves[i].Start)
	}
}

func TestMachine_Relative(t *testing.T) {
	m := NewMachine(Options{})
	moves, _ := resolve(t, m, "G1 X5 Y5 Z5\nG91\nG1 X1 Y-2\nG1 Z0.5\nG90\nG1 X0")
	require.Len(t, moves, 4)
	assert.Equal(t, coord.Point{X: 6, Y: 3, Z: 5}, moves[1].End)
	assert.Equal(t, coord.Point{X: 6, Y: 3, Z: 5.5}, moves[2].End)
	assert.Equal(t, coord.Point{X: 0, Y: 3, Z: 5.5}, moves[3].End)
}

func TestMachine_Units(t *testing.T) {
	m := NewMachine(Options{})
	moves, _ := resolve(t, m, "G20\nG1 X1 F10")
	require.Len(t, moves, 1)
	assert.Equal(t, 25.4, moves[0].End.X)
	assert.InDelta(t, 254.0, moves[0].Feed, 1e-9)

	m = NewMachine(Options{Units: UnitsInch})
	moves, _ = resolve(t, m, "G1 X2\nG21\nG1 Y2")
	assert.True(t, moves[1].End.Near(coord.Point{X: 50.8, Y: 2}, 1e-9), moves[1].String())
}

func TestMachine_Extrusion(t *testing.T) {
	m := NewMachine(Options{})
	moves, _ := resolve(t, m, strings.Join([]string{
		"M82",
		"G92 E0",
		"G1 F1500 E-6.5",
		"G1 F1500 E0",
		"G1 X110 Y100 E0.05",
		"M83",
		"G1 X111 E0.2",
		"G92 E0",
		"M82",
		"G1 X112 E1",
	}, "\n"))
	require.Len(t, moves, 5)
	assert.Equal(t, []float64{-6.5, 6.5, 0.05, 0.2, 1}, []float64{
		moves[0].Extrude, moves[1].Extrude, moves[2].Extrude, moves[3].Extrude, moves[4].Extrude,
	})
	assert.Equal(t, moves[0].Start, moves[0].End, "extrude-only move stays put")
	assert.Equal(t, 1.0, m.State().E)
}

func TestMachine_SetPosition(t *testing.T) {
	m := NewMachine(Options{})
	moves, _ := resolve(t, m, "G1 X10 Y10\nG92 X0\nG1 X5\nG92\nG1 Y1")
	require.Len(t, moves, 3)
	assert.Equal(t, coord.Point{X: 15, Y: 10}, moves[1].End, "G92 shifts work coordinates, machine path stays continuous")
	assert.Equal(t, coord.Point{X: 15, Y: 11}, moves[2].End)
	assert.Equal(t, coord.Point{Y: 1}, m.State().WPos())
}

func TestMachine_Home(t *testing.T) {
	m := NewMachine(Options{})
	moves, _ := resolve(t, m, "G1 X10 Y10 Z10\nG92 Z0\nG28 X\nG28")
	require.Len(t, moves, 3)
	assert.Equal(t, MoveRapid, moves[1].Kind)
	assert.Equal(t, coord.Point{Y: 10, Z: 10}, moves[1].End)
	assert.Equal(t, coord.Point{}, moves[2].End)
	assert.Equal(t, coord.Point{}, m.State().Offset)
	assert.Equal(t, gcode.MotionLinear, m.State().Motion, "G28 is not modal")
}

func TestMachine_RadiusArcs(t *testing.T) {
	tests := []struct {
		code   string
		center coord.Point
	}{
		{"G2 X10 Y0 R5", coord.Point{X: 5}},
		{"G3 X10 Y10 R10", coord.Point{Y: 10}},
		{"G2 X10 Y10 R10", coord.Point{X: 10}},
		{"G3 X10 Y10 R-10", coord.Point{X: 10}},
		{"G2 X10 Y10 R-10", coord.Point{Y: 10}},
	}
	for _, tc := range tests {
		m := NewMachine(Options{})
		moves, errs := resolve(t, m, tc.code)
		require.Empty(t, errs, tc.code)
		mv := moves[0]
		assert.True(t, mv.Center.Near(tc.center, 1e-9), "%s: center %v", tc.code, mv.Center)
		assert.InDelta(t, mv.Radius, mv.Center.Distance(mv.Start), 1e-9, tc.code)
		assert.InDelta(t, mv.Radius, mv.Center.Distance(mv.End), 1e-9, tc.code)
	}
}

func TestMachine_ArcPlanes(t *testing.T) {
	m := NewMachine(Options{})
	moves, errs := resolve(t, m, "G18\nG2 X10 Z0 I5 K0\nG19 G3 Y4 Z4 J2 K2 X10")
	require.Empty(t, errs)
	require.Len(t, moves, 2)
	assert.Equal(t, coord.PlaneXZ, moves[0].Plane)
	assert.Equal(t, coord.Point{X: 5}, moves[0].Center)
	assert.Equal(t, coord.PlaneYZ, moves[1].Plane)
	assert.Equal(t, coord.Point{X: 10, Y: 2, Z: 2}, moves[1].Center)
}

func TestMachine_ArcAbsoluteCenter(t *testing.T) {
	m := NewMachine(Options{})
	moves, errs := resolve(t, m, "G1 X10\nG90.1\nG3 X-10 I0 J0")
	require.Empty(t, errs)
	assert.Equal(t, coord.Point{}, moves[1].Center)
	assert.Equal(t, 10.0, moves[1].Radius)
}

func TestMachine_GeometryFallback(t *testing.T) {
	m := NewMachine(Options{})
	moves, errs := resolve(t, m, strings.Join([]string{
		"G1 X0 Y0 F600",
		"G2 X30 Y0 R5", // too far apart for the radius
		"G2 X40 Y0",    // no center at all
		"G3 X50 I1 J0", // start and end radius disagree
		"G2 X60 Y0 R0", // zero radius
		"G1 X70",
	}, "\n"))
	require.Len(t, errs, 4)
	for _, err := range errs {
		var gerr *GeometryError
		assert.ErrorAs(t, err, &gerr)
	}
	require.Len(t, moves, 6)
	for _, mv := range moves[1:5] {
		assert.Equal(t, MoveLinear, mv.Kind, mv.String())
		assert.Zero(t, mv.Radius)
	}
	assert.Equal(t, coord.Point{X: 70}, moves[5].End, "later lines still resolve")
	assert.Equal(t, MoveLinear, moves[5].Kind)
}

func TestMachine_Layer(t *testing.T) {
	m := NewMachine(Options{})
	moves, _ := resolve(t, m, "G1 X1\n;LAYER:0\nG1 X2\n;LAYER:1\nG1 X3")
	assert.Equal(t, []int{-1, 0, 1}, []int{moves[0].Layer, moves[1].Layer, moves[2].Layer})
}

func TestMachine_ArcRadiusProperty(t *testing.T) {
	m := NewMachine(Options{})
	moves, errs := resolve(t, m, "G1 X3 Y4\nG3 X-4 Y3 I-3 J-4\nG2 X4 Y-3 R5\nG2 X4 Y-3 I-4 J-3")
	require.Empty(t, errs)
	for _, mv := range moves[1:] {
		require.True(t, mv.IsArc())
		assert.InDelta(t, mv.Radius, mv.Center.Distance(mv.Start), 1e-9)
		assert.InDelta(t, mv.Radius, mv.Center.Distance(mv.End), 1e-9)
		assert.InDelta(t, 5, mv.Radius, 1e-9)
	}
	assert.True(t, moves[3].Start.Near(moves[3].End, 1e-12), "full circle")
	assert.False(t, math.IsNaN(moves[2].Center.X))
}

func TestMachine_MachineCoords(t *testing.T) {
	m := NewMachine(Options{})
	moves, errs := resolve(t, m, "G0 X10\nG92 X0\nG53 G0 X5\nG1 X1\nG91\nG53 Y2\nG1 Y1")
	require.Empty(t, errs)
	require.Len(t, moves, 5)
	assert.Equal(t, coord.Point{X: 5}, moves[1].End, "G53 skips the G92 offset")
	assert.Equal(t, coord.Point{X: 11}, moves[2].End, "the offset applies again on the next line")
	assert.Equal(t, coord.Point{X: 11, Y: 2}, moves[3].End, "G53 is absolute under G91")
	assert.Equal(t, coord.Point{X: 11, Y: 3}, moves[4].End)
	assert.Equal(t, coord.Point{X: 10}, m.State().Offset)

	m = NewMachine(Options{})
	moves, errs = resolve(t, m, "G2 X10 I5\nG53 X3")
	require.Len(t, errs, 1)
	var gerr *GeometryError
	assert.ErrorAs(t, errs[0], &gerr)
	assert.Equal(t, MoveLinear, moves[1].Kind)
	assert.Equal(t, coord.Point{X: 3}, moves[1].End)
}

func TestMachine_AxisWordsWithOtherCodes(t *testing.T) {
	m := NewMachine(Options{})
	moves, errs := resolve(t, m, "G1 X1 F100\nM3 S1000 X10\nT1 X20\nG90 Y5\nM203 X500")
	require.Empty(t, errs)
	require.Len(t, moves, 4)
	assert.Equal(t, coord.Point{X: 10}, moves[1].End)
	assert.Equal(t, coord.Point{X: 20}, moves[2].End)
	assert.Equal(t, coord.Point{X: 20, Y: 5}, moves[3].End)
	for _, mv := range moves {
		assert.Equal(t, MoveLinear, mv.Kind)
	}
}

func TestMachine_ProbeMove(t *testing.T) {
	m := NewMachine(Options{})
	moves, errs := resolve(t, m, "G0 Z5\nG91 G38.2 Z-10 F50\nG90")
	require.Empty(t, errs)
	require.Len(t, moves, 2)
	assert.Equal(t, MoveLinear, moves[1].Kind)
	assert.Equal(t, coord.Point{Z: -5}, moves[1].End)
}

func TestMachine_FullCircle(t *testing.T) {
	for _, tc := range []struct {
		code string
		full bool
	}{
		{"G2 X10 Y0 I-10", true},
		{"G2 X10 Y-0.0005 I-10", true},
		{"G2 X10 Y0.0005 I-10", true},
		{"G3 X10 Y-0.0005 I-10", true},
		{"G2 X10 Y-0.5 I-10", false},
		{"G2 X-10 Y0 R10", false},
	} {
		m := NewMachine(Options{})
		moves, errs := resolve(t, m, "G0 X10\n"+tc.code)
		require.Empty(t, errs, tc.code)
		require.True(t, moves[1].IsArc(), tc.code)
		assert.Equal(t, tc.full, moves[1].FullCircle, tc.code)
	}
}
