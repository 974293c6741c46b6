package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 0.01, cfg.Tolerance)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
	assert.False(t, cfg.Strict())
	assert.False(t, cfg.Inches())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "gcpath.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("tolerance = 0.002\nstrictness = \"strict\"\nworkers = 3\n"), 0644))
	cfg, err := Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, 0.002, cfg.Tolerance)
	assert.True(t, cfg.Strict())
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, UnitsMM, cfg.DefaultUnits, "defaults fill the rest")
	assert.Equal(t, 1<<20, cfg.MaxSamples)

	yamlPath := filepath.Join(dir, "gcpath.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("default_units: in\narc_radius_tolerance: 0.1\n"), 0644))
	cfg, err = Load(yamlPath)
	require.NoError(t, err)
	assert.True(t, cfg.Inches())
	assert.Equal(t, 0.1, cfg.ArcRadiusTolerance)
	assert.Equal(t, StrictnessLenient, cfg.Strictness)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	_, err = Parse([]byte("{}"), "json")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Tolerance = -1
	cfg.DefaultUnits = "cubits"
	cfg.Strictness = "pedantic"
	cfg.Workers = -2
	cfg.MaxSamples = -1

	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalid)
	for _, field := range []string{"tolerance", "default_units", "strictness", "workers", "max_samples"} {
		assert.Contains(t, err.Error(), field)
	}

	_, err = Parse([]byte("strictness = \"sometimes\""), "toml")
	assert.ErrorIs(t, err, ErrInvalid)
}
