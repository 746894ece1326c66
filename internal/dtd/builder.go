package dtd

import (
	"fmt"
	"math"
	"sort"
)

// StepEpsilon is the relative offset used for the near-instantaneous rise and
// fall of a prompt window. The engine interpolates linearly between points, so
// a true discontinuity would be lost.
const StepEpsilon = 1e-5

// Window is the delay range, in years, during which prompt events occur.
type Window struct {
	Start float64 `json:"start" yaml:"start"`
	Stop  float64 `json:"stop" yaml:"stop"`
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func (w Window) validate(tEnd float64) error {
	if !finite(w.Start) || !finite(w.Stop) || !finite(tEnd) {
		return fmt.Errorf("%w: window (%g, %g) and end %g must be finite", ErrInvalidWindow, w.Start, w.Stop, tEnd)
	}
	if w.Start <= 0 || w.Stop <= 0 {
		return fmt.Errorf("%w: window (%g, %g) must be positive", ErrInvalidWindow, w.Start, w.Stop)
	}
	if w.Start >= w.Stop {
		return fmt.Errorf("%w: start %g >= stop %g", ErrInvalidWindow, w.Start, w.Stop)
	}
	if w.Stop >= tEnd {
		return fmt.Errorf("%w: stop %g >= end %g", ErrInvalidWindow, w.Stop, tEnd)
	}
	return nil
}

// PromptCurve returns the single-window base curve: zero until Start, rate 1
// from just after Start through Stop, zero again from just after Stop to tEnd.
func PromptCurve(w Window, tEnd float64) (Curve, error) {
	if err := w.validate(tEnd); err != nil {
		return nil, err
	}
	return Curve{
		{T: 0, Rate: 0},
		{T: w.Start, Rate: 0},
		{T: w.Start * (1 + StepEpsilon), Rate: 1},
		{T: w.Stop, Rate: 1},
		{T: w.Stop * (1 + StepEpsilon), Rate: 0},
		{T: tEnd, Rate: 0},
	}, nil
}

// StochasticCurve returns one flat-topped spike per event. Each spike holds
// rate 1 over [t-width/2, t+width/2] and closes to 0 at t+width. An event
// closer than width to its predecessor extends the previous plateau instead
// of opening a new spike, so overlapping events merge into one region.
func StochasticCurve(events []float64, width, tEnd float64) (Curve, error) {
	if len(events) == 0 {
		return nil, ErrEmptyEvents
	}
	if width <= 0 || !finite(width) {
		return nil, fmt.Errorf("%w: got %g", ErrNonPositiveWidth, width)
	}
	if !finite(tEnd) {
		return nil, fmt.Errorf("%w: end %g must be finite", ErrInvalidWindow, tEnd)
	}
	for _, t := range events {
		if !finite(t) {
			return nil, fmt.Errorf("%w: event time %g must be finite", ErrInvalidWindow, t)
		}
	}

	sorted := make([]float64, len(events))
	copy(sorted, events)
	sort.Float64s(sorted)

	if sorted[0] <= 0 {
		return nil, fmt.Errorf("%w: event time %g must be positive", ErrInvalidWindow, sorted[0])
	}
	if last := sorted[len(sorted)-1]; tEnd <= last+width {
		return nil, fmt.Errorf("%w: end %g must exceed last event %g plus width %g", ErrInvalidWindow, tEnd, last, width)
	}

	half := width / 2
	c := Curve{{T: 0, Rate: 0}}
	prev := math.Inf(-1)

	for _, t := range sorted {
		if t-prev < width {
			// drop the previous closing zero and keep the plateau going
			c = c[:len(c)-1]
			if top := t + half; top > c[len(c)-1].T {
				c = append(c, Point{T: top, Rate: 1})
			}
			c = append(c, Point{T: t + width, Rate: 0})
			prev = t
			continue
		}

		lastT := c[len(c)-1].T
		rise := math.Max(lastT, t-half)
		if rise > lastT {
			c = append(c, Point{T: rise, Rate: 0})
		}
		c = append(c,
			Point{T: rise, Rate: 1},
			Point{T: t + half, Rate: 1},
			Point{T: t + width, Rate: 0},
		)
		prev = t
	}

	if c.End() < tEnd {
		c = append(c, Point{T: tEnd, Rate: 0})
	}
	return c, nil
}

// BuildPrompt replicates the prompt curve once per metallicity as a single
// enrichment source.
func BuildPrompt(grid Grid, w Window, tEnd float64) (*Table, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	base, err := PromptCurve(w, tEnd)
	if err != nil {
		return nil, err
	}
	return replicate(grid, base), nil
}

// BuildStochastic replicates the stochastic curve once per metallicity as a
// single enrichment source.
func BuildStochastic(grid Grid, events []float64, width, tEnd float64) (*Table, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	base, err := StochasticCurve(events, width, tEnd)
	if err != nil {
		return nil, err
	}
	return replicate(grid, base), nil
}

func replicate(grid Grid, base Curve) *Table {
	bins := make([]Curve, len(grid))
	for i := range grid {
		bins[i] = base.Clone()
	}
	return &Table{Grid: grid.Clone(), Sources: [][]Curve{bins}}
}
