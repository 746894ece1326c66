package config

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rprocfit/internal/optim"
)

func (p ParamRange) validate() error {
	if p.Name == "" {
		return fmt.Errorf("sweep parameter without a name")
	}
	if len(p.Values) > 0 {
		return nil
	}
	if p.Steps < 1 {
		return fmt.Errorf("sweep parameter %q: need values or steps >= 1", p.Name)
	}
	if p.Max < p.Min {
		return fmt.Errorf("sweep parameter %q: max %g < min %g", p.Name, p.Max, p.Min)
	}
	if p.Log && p.Min <= 0 {
		return fmt.Errorf("sweep parameter %q: log spacing needs min > 0", p.Name)
	}
	return nil
}

// Expand lists the values of one axis in sweep order.
func (p ParamRange) Expand() []float64 {
	if len(p.Values) > 0 {
		return append([]float64(nil), p.Values...)
	}
	if p.Steps == 1 {
		return []float64{p.Min}
	}
	out := make([]float64, p.Steps)
	if p.Log {
		return floats.LogSpan(out, p.Min, p.Max)
	}
	return floats.Span(out, p.Min, p.Max)
}

// Grid turns the sweep section into a parameter grid, axes in file order.
func (s SweepConfig) Grid() (*optim.GridSearch, error) {
	if len(s.Params) == 0 {
		return nil, fmt.Errorf("%w: sweep has no parameters", ErrInvalidConfig)
	}
	names := make([]string, len(s.Params))
	ranges := make([][]float64, len(s.Params))
	for i, p := range s.Params {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		names[i] = p.Name
		ranges[i] = p.Expand()
	}
	return optim.NewGridSearch(names, ranges)
}
