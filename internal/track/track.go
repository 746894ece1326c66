// Package track holds abundance tracks produced by the chemical evolution engine.
package track

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/rprocfit/internal/abund"
)

// Axis names accepted by Series besides bracket ratios.
const (
	AxisTime = "time"
	AxisFeH  = "[Fe/H]"
)

// Sample is one point along a model's evolutionary history. Ratios are keyed
// by bracket name, e.g. "[Eu/Fe]".
type Sample struct {
	Time   float64
	FeH    float64
	Ratios map[string]float64
}

// Track is read-only once produced.
type Track struct {
	Label   string
	Samples []Sample
}

func (s Sample) lookup(b abund.Bracket) (float64, bool) {
	if b == abund.FeH {
		return s.FeH, !math.IsNaN(s.FeH)
	}
	v, ok := s.Ratios[b.String()]
	return v, ok
}

// Value returns a column for this sample: time, [Fe/H] or any bracket ratio,
// derived from emitted ratios when needed.
func (s Sample) Value(name string) (float64, bool) {
	if name == AxisTime {
		return s.Time, true
	}
	b, err := abund.Parse(name)
	if err != nil {
		return math.NaN(), false
	}
	return abund.Resolve(s.lookup, b)
}

// Series extracts (x, y) columns. Samples where either value is unavailable
// are skipped.
func (t *Track) Series(x, y string) ([]float64, []float64, error) {
	xs := make([]float64, 0, len(t.Samples))
	ys := make([]float64, 0, len(t.Samples))
	for _, s := range t.Samples {
		xv, ok1 := s.Value(x)
		yv, ok2 := s.Value(y)
		if !ok1 || !ok2 {
			continue
		}
		xs = append(xs, xv)
		ys = append(ys, yv)
	}
	if len(xs) == 0 {
		return nil, nil, fmt.Errorf("track %q: no samples carry %s vs %s", t.Label, y, x)
	}
	return xs, ys, nil
}

// Ratios lists the ratio names present in any sample, sorted.
func (t *Track) Ratios() []string {
	seen := make(map[string]struct{})
	for _, s := range t.Samples {
		for k := range s.Ratios {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
