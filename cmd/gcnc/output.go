package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mastercactapus/gcpath/coord"
	"github.com/mastercactapus/gcpath/export"
	"github.com/mastercactapus/gcpath/interp"
	"github.com/mastercactapus/gcpath/meshlevel"
	"github.com/mastercactapus/gcpath/path"
)

const (
	formatJSONL = "jsonl"
	formatCSV   = "csv"
	formatGCode = "gcode"
)

type outputOptions struct {
	format string
	points bool
	// leveler is used for gcode output; nil writes the path unleveled.
	leveler *meshlevel.Leveler
}

func writeResult(w io.Writer, res *interp.Result, opts outputOptions) error {
	switch opts.format {
	case formatJSONL, "":
		return export.WriteJSONLines(w, res, export.Options{Points: opts.points})
	case formatCSV:
		return export.WriteCSV(w, res, export.Options{Points: opts.points})
	case formatGCode:
		l := opts.leveler
		if l == nil {
			l = meshlevel.New(meshlevel.Config{Sampler: res.Sampler()})
		}
		return l.WriteGCode(w, res.Segments())
	}
	return fmt.Errorf("unknown format %q", opts.format)
}

func contentType(format string) string {
	switch format {
	case formatCSV:
		return "text/csv"
	case formatGCode:
		return "text/x-gcode"
	}
	return "application/x-ndjson"
}

// loadLeveler builds a leveler from a probe file. zero is subtracted from
// every probe height.
func loadLeveler(file string, zero, granularity float64, sm path.Sampler) (*meshlevel.Leveler, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	probes, err := meshlevel.ReadProbes(f)
	if err != nil {
		return nil, err
	}
	return newLeveler(meshlevel.OffsetFrom(zero, probes), granularity, sm)
}

func newLeveler(probes []coord.Point, granularity float64, sm path.Sampler) (*meshlevel.Leveler, error) {
	mesh, err := meshlevel.NewMesh(probes)
	if err != nil {
		return nil, err
	}
	return meshlevel.New(meshlevel.Config{ZOffsetter: mesh, Granularity: granularity, Sampler: sm}), nil
}
