// Package config holds the construction context threaded through every
// construction and transform call: tolerances, grid snap, tessellation
// limits, the active facing plane and the logger.
//
// A Config is a value. The With* methods return modified copies so a
// command can narrow the context without affecting its caller.
package config

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gilesp1729/loftycad/pkg/geom"
)

// Config is the immutable construction context.
type Config struct {
	// Tolerance is the distance within which two endpoints are considered
	// the same point when chaining loops.
	Tolerance float64 `toml:"tolerance"`
	// SnapTolerance is the pick radius used when snapping to existing points.
	SnapTolerance float64 `toml:"snap_tolerance"`
	// GridSnap is the grid spacing used by Snap. Zero disables snapping.
	GridSnap float64 `toml:"grid_snap"`
	// ChordTolerance bounds the deviation of a tessellated curve from the
	// true curve and so determines step counts.
	ChordTolerance float64 `toml:"chord_tolerance"`
	MinSteps       int     `toml:"min_steps"`
	MaxSteps       int     `toml:"max_steps"`
	// HaloRadius limits how far a directly moved face drags its neighbours.
	HaloRadius float64     `toml:"halo_radius"`
	Facing     geom.Facing `toml:"facing"`

	Logger *log.Logger `toml:"-"`
}

// Default returns the built-in context.
func Default() Config {
	return Config{
		Tolerance:      1.0e-4,
		SnapTolerance:  1.0,
		GridSnap:       1.0,
		ChordTolerance: 0.05,
		MinSteps:       4,
		MaxSteps:       64,
		HaloRadius:     50,
		Facing:         geom.FacingXY,
		Logger:         log.New(io.Discard),
	}
}

// Parse reads a TOML document over the defaults. Keys that are absent keep
// their default values.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("parse config: unknown key %q", undec[0].String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a TOML configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func (c Config) validate() error {
	switch {
	case c.Tolerance <= 0:
		return fmt.Errorf("config: tolerance must be positive, got %g", c.Tolerance)
	case c.ChordTolerance <= 0:
		return fmt.Errorf("config: chord_tolerance must be positive, got %g", c.ChordTolerance)
	case c.MinSteps < 1:
		return fmt.Errorf("config: min_steps must be at least 1, got %d", c.MinSteps)
	case c.MaxSteps != 0 && c.MaxSteps < c.MinSteps:
		return fmt.Errorf("config: max_steps %d is below min_steps %d", c.MaxSteps, c.MinSteps)
	case c.HaloRadius < 0:
		return fmt.Errorf("config: halo_radius must not be negative, got %g", c.HaloRadius)
	case c.GridSnap < 0:
		return fmt.Errorf("config: grid_snap must not be negative, got %g", c.GridSnap)
	}
	return nil
}

// WithFacing returns a copy with the facing plane replaced.
func (c Config) WithFacing(f geom.Facing) Config {
	c.Facing = f
	return c
}

// WithLogger returns a copy logging to l.
func (c Config) WithLogger(l *log.Logger) Config {
	c.Logger = l
	return c
}

// Log returns the configured logger, never nil.
func (c Config) Log() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard)
	}
	return c.Logger
}

// Snap rounds each coordinate to the nearest grid line.
func (c Config) Snap(v v3.Vec) v3.Vec {
	if c.GridSnap <= 0 {
		return v
	}
	g := c.GridSnap
	return v3.Vec{
		X: math.Round(v.X/g) * g,
		Y: math.Round(v.Y/g) * g,
		Z: math.Round(v.Z/g) * g,
	}
}
