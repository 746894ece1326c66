package compare

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/interp"
)

// Policy decides what happens to positions outside a track's domain.
type Policy int

const (
	// Strict fails with ErrOutOfRange.
	Strict Policy = iota
	// Overlap drops those positions.
	Overlap
)

func (p Policy) String() string {
	if p == Overlap {
		return "overlap"
	}
	return "strict"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "overlap":
		return Overlap, nil
	}
	return Strict, fmt.Errorf("compare: unknown extrapolation policy %q", s)
}

// series is a cleaned, strictly increasing copy of (xs, ys).
type series struct {
	xs, ys []float64
	fit    *interp.PiecewiseLinear
}

// newSeries sorts by x, drops NaN samples and keeps the first sample of any
// repeated x.
func newSeries(xs, ys []float64) (*series, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("compare: %d x values for %d y values", len(xs), len(ys))
	}
	idx := make([]int, 0, len(xs))
	for i := range xs {
		if !math.IsNaN(xs[i]) && !math.IsNaN(ys[i]) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	s := &series{}
	for _, i := range idx {
		if n := len(s.xs); n > 0 && xs[i] == s.xs[n-1] {
			continue
		}
		s.xs = append(s.xs, xs[i])
		s.ys = append(s.ys, ys[i])
	}
	if len(s.xs) == 0 {
		return nil, ErrTooFewSamples
	}
	if len(s.xs) > 1 {
		s.fit = &interp.PiecewiseLinear{}
		if err := s.fit.Fit(s.xs, s.ys); err != nil {
			return nil, fmt.Errorf("compare: fit: %w", err)
		}
	}
	return s, nil
}

func (s *series) lo() float64 { return s.xs[0] }
func (s *series) hi() float64 { return s.xs[len(s.xs)-1] }

func (s *series) covers(x float64) bool { return x >= s.lo() && x <= s.hi() }

func (s *series) at(x float64) float64 {
	if s.fit == nil {
		return s.ys[0]
	}
	return s.fit.Predict(x)
}

// Resample linearly interpolates (xs, ys) at each position in at. It returns
// the interpolated values and the indices into at they belong to; under
// Strict every index is kept or an ErrOutOfRange is returned.
func Resample(xs, ys, at []float64, policy Policy) ([]float64, []int, error) {
	s, err := newSeries(xs, ys)
	if err != nil {
		return nil, nil, err
	}
	vals := make([]float64, 0, len(at))
	kept := make([]int, 0, len(at))
	for i, x := range at {
		if math.IsNaN(x) || !s.covers(x) {
			if policy == Strict {
				return nil, nil, fmt.Errorf("%w: %g not in [%g, %g]", ErrOutOfRange, x, s.lo(), s.hi())
			}
			continue
		}
		vals = append(vals, s.at(x))
		kept = append(kept, i)
	}
	return vals, kept, nil
}
