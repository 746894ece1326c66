package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/san-kum/rprocfit/internal/dtd"
	"github.com/san-kum/rprocfit/internal/track"
)

// Config is everything one engine run needs about the r-process source.
// Params passes extra engine settings through untouched.
type Config struct {
	Label       string             `json:"label"`
	Enabled     bool               `json:"enabled"`
	RatePerMass float64            `json:"rate_per_mass"`
	DTD         *dtd.Table         `json:"-"`
	YieldTable  string             `json:"yield_table"`
	Params      map[string]float64 `json:"params,omitempty"`
}

func (c Config) Clone() Config {
	out := c
	if c.DTD != nil {
		t := &dtd.Table{Grid: c.DTD.Grid.Clone(), Sources: make([][]dtd.Curve, len(c.DTD.Sources))}
		for s, bins := range c.DTD.Sources {
			t.Sources[s] = make([]dtd.Curve, len(bins))
			for b, curve := range bins {
				t.Sources[s][b] = curve.Clone()
			}
		}
		out.DTD = t
	}
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return out
}

// Validate checks the config without touching the engine.
func (c Config) Validate() error {
	if c.Enabled && c.DTD == nil {
		return ErrNoDTD
	}
	if c.DTD != nil {
		if err := c.DTD.Validate(); err != nil {
			return err
		}
	}
	return CheckYieldTable(c.YieldTable)
}

type Engine interface {
	Run(ctx context.Context, cfg Config) (*track.Track, error)
}

// Func adapts an ordinary function to Engine.
type Func func(ctx context.Context, cfg Config) (*track.Track, error)

func (f Func) Run(ctx context.Context, cfg Config) (*track.Track, error) {
	return f(ctx, cfg)
}

// CheckYieldTable fails with ErrMissingYieldTable when path is set but absent.
// An empty path means the engine's built-in table.
func CheckYieldTable(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrMissingYieldTable, path)
		}
		return fmt.Errorf("engine: stat yield table: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrMissingYieldTable, path)
	}
	return nil
}
