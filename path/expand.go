package path

import (
	"context"
	"runtime"

	"github.com/mastercactapus/gcpath/vm"
	"golang.org/x/sync/errgroup"
)

// minChunk keeps work items large enough to be worth a goroutine.
const minChunk = 256

type Options struct {
	// Workers bounds the number of goroutines. Zero means GOMAXPROCS; one
	// expands on the calling goroutine.
	Workers int
	// ChunkSize is the number of moves per work item. Zero picks one.
	ChunkSize int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) chunkSize(n, workers int) int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	size := (n + workers*4 - 1) / (workers * 4)
	if size < minChunk {
		size = minChunk
	}
	return size
}

// Expand builds one segment per move, in move order. The result is the
// same for any number of workers.
//
// If ctx is cancelled no further chunks are started; Expand waits for the
// ones in flight and returns the longest completed prefix with ctx's error.
func Expand(ctx context.Context, moves []vm.Move, opts Options) ([]Segment, error) {
	out := make([]Segment, len(moves))
	if len(moves) == 0 {
		return out, nil
	}

	workers := opts.workers()
	size := opts.chunkSize(len(moves), workers)
	nchunks := (len(moves) + size - 1) / size
	done := make([]bool, nchunks)

	expandChunk := func(c int) {
		lo := c * size
		hi := min(lo+size, len(moves))
		for i := lo; i < hi; i++ {
			out[i] = FromMove(moves[i])
		}
		done[c] = true
	}

	if workers == 1 {
		for c := range nchunks {
			if ctx.Err() != nil {
				break
			}
			expandChunk(c)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for c := range nchunks {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				expandChunk(c)
				return nil
			})
		}
		// workers only fail on cancellation, which ctx reports below
		_ = g.Wait()
	}

	var n int
	for c := range done {
		if !done[c] {
			break
		}
		n = min((c+1)*size, len(moves))
	}
	if n < len(moves) {
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		return out[:n], err
	}
	return out, nil
}
