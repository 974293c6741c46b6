package main

import (
	"log/slog"
	"os"

	"github.com/mastercactapus/gcpath/config"
	"github.com/mastercactapus/gcpath/interp"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	// cfg is loaded before any subcommand runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gcnc",
	Short: "Interpret G-code into line and arc segments",
	Long: `gcnc interprets G-code programs (CNC or 3D printer) and expands them
into an ordered stream of line and arc segments.

Commands:
  expand  - interpret a program and write the segments
  serve   - expose the interpreter over HTTP`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			interp.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}

		if cfgFile == "" {
			cfg = config.Default()
			return nil
		}
		var err error
		cfg, err = config.Load(cfgFile)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (.toml, .yaml or .yml).")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline stages and diagnostics to stderr.")
}

// runFlags are the config overrides shared by expand and serve.
type runFlags struct {
	tolerance float64
	strict    bool
	workers   int
	units     string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "Maximum arc chord error in mm.")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Stop at the first line that cannot be interpreted.")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Number of expansion workers.")
	cmd.Flags().StringVar(&f.units, "units", "", "Units assumed before G20/G21 (mm or in).")
}

// apply overrides c with the flags that were set on cmd.
func (f *runFlags) apply(cmd *cobra.Command, c config.Config) (config.Config, error) {
	if cmd.Flags().Changed("tolerance") {
		c.Tolerance = f.tolerance
	}
	if cmd.Flags().Changed("strict") {
		c.Strictness = config.StrictnessLenient
		if f.strict {
			c.Strictness = config.StrictnessStrict
		}
	}
	if cmd.Flags().Changed("workers") {
		c.Workers = f.workers
	}
	if cmd.Flags().Changed("units") {
		c.DefaultUnits = f.units
	}
	return c, c.Validate()
}
