package path

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/mastercactapus/gcpath/gcode"
	"github.com/mastercactapus/gcpath/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomMoves resolves a generated program of lines and arcs.
func randomMoves(t *testing.T, n int) []vm.Move {
	t.Helper()
	rnd := rand.New(rand.NewSource(42))
	var b strings.Builder
	for i := 0; i < n; i++ {
		switch rnd.Intn(4) {
		case 0:
			fmt.Fprintf(&b, "G0 X%.3f Y%.3f\n", rnd.Float64()*200, rnd.Float64()*200)
		case 1:
			fmt.Fprintf(&b, "G1 X%.3f Z%.3f F%d\n", rnd.Float64()*200, rnd.Float64()*5, 100+rnd.Intn(2000))
		default:
			// a half turn keeps the I offset consistent with the end point
			fmt.Fprintf(&b, "G91 G%d X%.3f Y0 I%.3f J0\nG90\n", 2+rnd.Intn(2), 10.0, 5.0)
		}
	}

	m := vm.NewMachine(vm.Options{})
	var moves []vm.Move
	for i, s := range strings.Split(b.String(), "\n") {
		ln, err := gcode.Tokenize(i, s)
		require.NoError(t, err)
		cmd, _ := gcode.Classify(ln)
		mv, ok, err := m.Run(ln, cmd)
		require.NoError(t, err, s)
		if ok {
			moves = append(moves, mv)
		}
	}
	return moves
}

func TestExpand_Deterministic(t *testing.T) {
	moves := randomMoves(t, 5000)

	one, err := Expand(context.Background(), moves, Options{Workers: 1})
	require.NoError(t, err)
	eight, err := Expand(context.Background(), moves, Options{Workers: 8, ChunkSize: 7})
	require.NoError(t, err)

	require.Len(t, one, len(moves))
	assert.Equal(t, one, eight)
	for i, s := range one {
		assert.Equal(t, moves[i].Line, s.Line)
	}
}

func TestExpand_Empty(t *testing.T) {
	out, err := Expand(context.Background(), nil, Options{})
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestExpand_Cancelled(t *testing.T) {
	moves := randomMoves(t, 1000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		out, err := Expand(ctx, moves, Options{Workers: workers, ChunkSize: 10})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, len(out), len(moves))
		for i, s := range out {
			assert.Equal(t, FromMove(moves[i]), s)
		}
	}
}
