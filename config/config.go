// Package config holds the options of an interpretation run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	UnitsMM   = "mm"
	UnitsInch = "in"

	StrictnessLenient = "lenient"
	StrictnessStrict  = "strict"
)

// Config controls how a program is interpreted and expanded.
type Config struct {
	// Tolerance is the maximum chord error when sampling arcs, in mm.
	Tolerance float64 `toml:"tolerance" yaml:"tolerance" json:"tolerance"`
	// DefaultUnits apply until the program selects G20 or G21.
	DefaultUnits string `toml:"default_units" yaml:"default_units" json:"default_units"`
	// Strictness "strict" stops the run at the first line that cannot be
	// interpreted.
	Strictness string `toml:"strictness" yaml:"strictness" json:"strictness"`
	// Workers is the size of the expansion pool.
	Workers int `toml:"workers" yaml:"workers" json:"workers"`
	// ArcRadiusTolerance is the allowed difference between an arc's start
	// and end radius, in mm.
	ArcRadiusTolerance float64 `toml:"arc_radius_tolerance" yaml:"arc_radius_tolerance" json:"arc_radius_tolerance"`
	// MaxSamples caps the number of chords produced for one segment.
	MaxSamples int `toml:"max_samples" yaml:"max_samples" json:"max_samples"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Tolerance:          0.01,
		DefaultUnits:       UnitsMM,
		Strictness:         StrictnessLenient,
		Workers:            runtime.GOMAXPROCS(0),
		ArcRadiusTolerance: 0.05,
		MaxSamples:         1 << 20,
	}
}

// ApplyDefaults fills zero fields from Default.
func (c *Config) ApplyDefaults() {
	def := Default()
	if c.Tolerance == 0 {
		c.Tolerance = def.Tolerance
	}
	if c.DefaultUnits == "" {
		c.DefaultUnits = def.DefaultUnits
	}
	if c.Strictness == "" {
		c.Strictness = def.Strictness
	}
	if c.Workers == 0 {
		c.Workers = def.Workers
	}
	if c.ArcRadiusTolerance == 0 {
		c.ArcRadiusTolerance = def.ArcRadiusTolerance
	}
	if c.MaxSamples == 0 {
		c.MaxSamples = def.MaxSamples
	}
}

var ErrInvalid = errors.New("invalid config")

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	if c.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalid, c.Tolerance))
	}
	switch c.DefaultUnits {
	case UnitsMM, UnitsInch:
	default:
		errs = append(errs, fmt.Errorf("%w: default_units must be %q or %q, got %q", ErrInvalid, UnitsMM, UnitsInch, c.DefaultUnits))
	}
	switch c.Strictness {
	case StrictnessLenient, StrictnessStrict:
	default:
		errs = append(errs, fmt.Errorf("%w: strictness must be %q or %q, got %q", ErrInvalid, StrictnessLenient, StrictnessStrict, c.Strictness))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers))
	}
	if c.ArcRadiusTolerance < 0 {
		errs = append(errs, fmt.Errorf("%w: arc_radius_tolerance must not be negative, got %g", ErrInvalid, c.ArcRadiusTolerance))
	}
	if c.MaxSamples < 1 {
		errs = append(errs, fmt.Errorf("%w: max_samples must be at least 1, got %d", ErrInvalid, c.MaxSamples))
	}
	return errors.Join(errs...)
}

func (c Config) Strict() bool { return c.Strictness == StrictnessStrict }
func (c Config) Inches() bool { return c.DefaultUnits == UnitsInch }

// Load reads a TOML or YAML file, chosen by extension, fills defaults and
// validates the result.
func Load(path string) (Config, error) {
	path = os.ExpandEnv(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Parse(data, format)
}

// Parse decodes data in the given format ("toml", "yaml" or "yml").
func Parse(data []byte, format string) (Config, error) {
	var cfg Config
	switch format {
	case "toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse toml config: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", format)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
