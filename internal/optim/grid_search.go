package optim

import (
	"fmt"
	"math"
)

// Params is one point of a parameter grid.
type Params map[string]float64

func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// GridSearch enumerates the cartesian product of named parameter ranges.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameter names for %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: parameter %q has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

func (g *GridSearch) Names() []string { return g.paramNames }

// Candidates lists every combination in a fixed order: the first parameter
// varies slowest, values keep their given order.
func (g *GridSearch) Candidates() []Params {
	var out []Params
	g.enumerate(0, Params{}, &out)
	return out
}

func (g *GridSearch) enumerate(depth int, current Params, out *[]Params) {
	if depth == len(g.paramNames) {
		*out = append(*out, current.Clone())
		return
	}
	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := current.Clone()
		next[name] = val
		g.enumerate(depth+1, next, out)
	}
}

// Argmin returns the index and value of the smallest score. Ties go to the
// earliest index; NaN scores never win. It returns -1 when nothing qualifies.
func Argmin(scores []float64) (int, float64) {
	best := math.Inf(1)
	idx := -1
	for i, v := range scores {
		if math.IsNaN(v) {
			continue
		}
		if idx < 0 || v < best {
			best = v
			idx = i
		}
	}
	return idx, best
}
