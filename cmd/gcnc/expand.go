package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/mastercactapus/gcpath/export"
	"github.com/mastercactapus/gcpath/gcode"
	"github.com/mastercactapus/gcpath/interp"
	"github.com/spf13/cobra"
)

var expandOpts struct {
	runFlags
	format      string
	out         string
	db          string
	points      bool
	mesh        string
	meshZero    float64
	granularity float64
}

var expandCmd = &cobra.Command{
	Use:   "expand [file]",
	Short: "Interpret a program and write its segments",
	Long: `Interpret a G-code program (a file, or stdin when no file or "-" is
given) and write the resulting segments as JSON lines, CSV or a
linearized G-code program. Diagnostics and a summary go to stderr.

With --mesh, gcode output follows the bed mesh built from the probe file
("x,y,z" per line).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExpand,
}

func init() {
	f := expandCmd.Flags()
	f.StringVarP(&expandOpts.format, "format", "f", formatJSONL, "Output format: jsonl, csv or gcode.")
	f.StringVarP(&expandOpts.out, "out", "o", "", "Output file (default stdout).")
	f.StringVar(&expandOpts.db, "db", "", "Also store the run in this SQLite database.")
	f.BoolVar(&expandOpts.points, "points", false, "Write sampled points instead of segments.")
	f.StringVar(&expandOpts.mesh, "mesh", "", "Probe file used to level gcode output.")
	f.Float64Var(&expandOpts.meshZero, "mesh-zero", 0, "Probe height treated as the bed surface.")
	f.Float64Var(&expandOpts.granularity, "granularity", 1, "Longest leveled move in mm.")
	expandOpts.register(expandCmd)

	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	c, err := expandOpts.apply(cmd, cfg)
	if err != nil {
		return err
	}

	in := io.Reader(cmd.InOrStdin())
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, runErr := interp.Run(ctx, gcode.NewReader(in), c)
	if res == nil {
		return runErr
	}
	for _, d := range res.Diagnostics() {
		cmd.PrintErrln(d)
	}

	opts := outputOptions{format: expandOpts.format, points: expandOpts.points}
	if expandOpts.mesh != "" {
		opts.leveler, err = loadLeveler(expandOpts.mesh, expandOpts.meshZero, expandOpts.granularity, res.Sampler())
		if err != nil {
			return fmt.Errorf("load mesh: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if expandOpts.out != "" {
		f, err := os.Create(expandOpts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := writeResult(out, res, opts); err != nil {
		return fmt.Errorf("write %s: %w", expandOpts.format, err)
	}

	if expandOpts.db != "" {
		store, err := export.OpenSQLite(expandOpts.db)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(context.WithoutCancel(ctx), res.ID.String(), res); err != nil {
			return err
		}
	}

	st := res.Stats()
	cmd.PrintErrf("run %s: %d lines, %d segments (%d arcs), %d warnings, %d errors, %.3f mm travel\n",
		res.ID, st.Lines, st.Segments, st.Arcs, st.Warnings, st.Errors, st.Travel)
	return runErr
}
