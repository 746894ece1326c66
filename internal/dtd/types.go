package dtd

import (
	"fmt"
	"math"
)

// Point is one vertex of a piecewise-linear rate curve. T is in years.
type Point struct {
	T    float64 `json:"t" yaml:"t"`
	Rate float64 `json:"rate" yaml:"rate"`
}

type Curve []Point

func (c Curve) Clone() Curve {
	out := make(Curve, len(c))
	copy(out, c)
	return out
}

// Rate evaluates the linear interpolant at t. Outside the curve the rate is 0.
// On a vertical step (two points sharing T) the later point wins.
func (c Curve) Rate(t float64) float64 {
	if len(c) == 0 || t < c[0].T || t > c[len(c)-1].T {
		return 0
	}
	for i := len(c) - 1; i > 0; i-- {
		a, b := c[i-1], c[i]
		if t < a.T || t > b.T {
			continue
		}
		if b.T == a.T {
			return b.Rate
		}
		frac := (t - a.T) / (b.T - a.T)
		return a.Rate + frac*(b.Rate-a.Rate)
	}
	return c[0].Rate
}

func (c Curve) End() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].T
}

func (c Curve) Times() []float64 {
	ts := make([]float64, len(c))
	for i, p := range c {
		ts[i] = p.T
	}
	return ts
}

func (c Curve) Rates() []float64 {
	rs := make([]float64, len(c))
	for i, p := range c {
		rs[i] = p.Rate
	}
	return rs
}

func (c Curve) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: no points", ErrMalformedCurve)
	}
	if c[0].Rate != 0 {
		return fmt.Errorf("%w: first rate is %g, want 0", ErrMalformedCurve, c[0].Rate)
	}
	for i, p := range c {
		if math.IsNaN(p.T) || math.IsNaN(p.Rate) || p.Rate < 0 {
			return fmt.Errorf("%w: point %d (%g, %g)", ErrMalformedCurve, i, p.T, p.Rate)
		}
		if i > 0 && p.T < c[i-1].T {
			return fmt.Errorf("%w: time decreases at point %d", ErrMalformedCurve, i)
		}
	}
	return nil
}

// Grid is the set of metallicities (mass fraction Z) that get their own curve.
type Grid []float64

func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	copy(out, g)
	return out
}

func (g Grid) Validate() error {
	if len(g) == 0 {
		return ErrEmptyGrid
	}
	return nil
}

// Table is the typed form of the engine's nested DTD input:
// Sources[source][bin] is the curve for metallicity Grid[bin].
type Table struct {
	Grid    Grid      `json:"metallicities" yaml:"metallicities"`
	Sources [][]Curve `json:"sources" yaml:"sources"`
}

// Curve returns the curve for a source and metallicity bin.
func (t *Table) Curve(source, bin int) (Curve, error) {
	if source < 0 || source >= len(t.Sources) {
		return nil, fmt.Errorf("dtd: source %d out of range [0,%d)", source, len(t.Sources))
	}
	if bin < 0 || bin >= len(t.Sources[source]) {
		return nil, fmt.Errorf("dtd: metallicity bin %d out of range [0,%d)", bin, len(t.Sources[source]))
	}
	return t.Sources[source][bin], nil
}

// Nested renders the table in the engine's untyped layout:
// source -> metallicity bin -> [time, rate] pairs. The result shares no
// memory with the table.
func (t *Table) Nested() [][][][2]float64 {
	out := make([][][][2]float64, len(t.Sources))
	for s, bins := range t.Sources {
		out[s] = make([][][2]float64, len(bins))
		for b, c := range bins {
			pairs := make([][2]float64, len(c))
			for i, p := range c {
				pairs[i] = [2]float64{p.T, p.Rate}
			}
			out[s][b] = pairs
		}
	}
	return out
}

func (t *Table) Validate() error {
	if err := t.Grid.Validate(); err != nil {
		return err
	}
	for s, bins := range t.Sources {
		if len(bins) != len(t.Grid) {
			return fmt.Errorf("%w: source %d has %d bins for %d metallicities", ErrMalformedCurve, s, len(bins), len(t.Grid))
		}
		for b, c := range bins {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("source %d bin %d: %w", s, b, err)
			}
		}
	}
	return nil
}
