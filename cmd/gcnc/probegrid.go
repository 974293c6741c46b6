package main

import (
	"bufio"

	"github.com/mastercactapus/gcpath/coord"
	"github.com/mastercactapus/gcpath/meshlevel"
	"github.com/spf13/cobra"
)

var probeGridOpts struct {
	meshlevel.GridOptions
	origin coord.Point
}

var probeGridCmd = &cobra.Command{
	Use:   "probe-grid",
	Short: "Generate a bed probing program",
	Long: `Generate a G-code program that Z-probes a grid of points (G38.2).

The probed positions, written as "x,y,z" lines, are the --mesh input of
expand.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := probeGridOpts.Program(probeGridOpts.origin)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(cmd.OutOrStdout())
		for _, b := range prog {
			w.WriteString(b.String() + "\n")
		}
		return w.Flush()
	},
}

func init() {
	f := probeGridCmd.Flags()
	o := &probeGridOpts
	f.Float64Var(&o.DistanceX, "size-x", 100, "Grid size along X in mm.")
	f.Float64Var(&o.DistanceY, "size-y", 100, "Grid size along Y in mm.")
	f.Float64VarP(&o.Granularity, "granularity", "g", 10, "Longest distance between probes in mm.")
	f.Float64Var(&o.FeedRate, "feed", 100, "Probe feed rate in mm/min.")
	f.Float64Var(&o.MaxTravel, "max-travel", -10, "Probe travel limit (relative Z).")
	f.Float64Var(&o.Lift, "lift", -1, "Machine Z for moves between probes.")
	f.Float64Var(&o.origin.X, "origin-x", 0, "Machine X of the grid corner.")
	f.Float64Var(&o.origin.Y, "origin-y", 0, "Machine Y of the grid corner.")
	f.Float64Var(&o.origin.Z, "origin-z", 0, "Machine Z to return to.")

	rootCmd.AddCommand(probeGridCmd)
}
