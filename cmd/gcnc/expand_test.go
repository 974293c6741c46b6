package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mastercactapus/gcpath/export"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags puts every flag of cmd and its subcommands back to its
// default, since the command tree is shared by every test.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue), f.Name)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(t, c)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(t, rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestExpandCommand(t *testing.T) {
	dir := t.TempDir()
	prog := filepath.Join(dir, "square.nc")
	require.NoError(t, os.WriteFile(prog, []byte(square+"\nM9999\n"), 0644))

	out, errOut, err := execute(t, "", "expand", "--format", "csv", prog)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 5)
	assert.Contains(t, errOut, "line 6: warning")
	assert.Contains(t, errOut, "4 segments (1 arcs)")

	db := filepath.Join(dir, "runs.db")
	conf := filepath.Join(dir, "gcnc.toml")
	require.NoError(t, os.WriteFile(conf, []byte("tolerance = 0.001\nstrictness = \"strict\"\n"), 0644))

	_, _, err = execute(t, square+"\nM9999\n", "--config", conf, "expand", "--format", "jsonl", "--db", db, "-")
	assert.Error(t, err, "strict from config file")

	_, errOut, err = execute(t, square, "--config", conf, "expand", "--strict=false", "--db", db)
	require.NoError(t, err)
	id, _, ok := strings.Cut(strings.TrimPrefix(strings.TrimSpace(errOut), "run "), ":")
	require.True(t, ok, errOut)

	store, err := export.OpenSQLite(db)
	require.NoError(t, err)
	defer store.Close()
	recs, err := store.Segments(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, recs, 4)
}

func TestExpandCommand_FlagsReset(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "strict.toml")
	require.NoError(t, os.WriteFile(conf, []byte("strictness = \"strict\"\n"), 0644))

	_, _, err := execute(t, "M9999\n", "--config", conf, "expand", "--format", "csv")
	require.Error(t, err)
	require.NoError(t, os.Remove(conf))

	// neither the config file nor the format carries over
	out, _, err := execute(t, "G1 X1\n", "expand")
	require.NoError(t, err)
	assert.Empty(t, cfgFile)
	assert.True(t, strings.HasPrefix(out, `{"type":"segment"`), out)
}

func TestProbeGridCommand(t *testing.T) {
	out, _, err := execute(t, "", "probe-grid", "--size-x", "10", "--size-y", "10", "--granularity", "20", "--origin-x", "-50")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "G21 G90", lines[0])
	assert.Equal(t, "G53 G0 X-50 Y0", lines[2])
	assert.Equal(t, "G53 G0 Z0", lines[len(lines)-1])
	// four corners, each a move and three probe blocks
	assert.Len(t, lines, 2+4*4+2)
}
