// Package catalog loads observed stellar abundance catalogs.
//
// Three on-disk formats are understood: the Reichert et al. (2020) fixed-width
// table, the CSV catalog this package writes, and whitespace "stellab" tables.
// Missing measurements are NaN throughout and never count as zero.
package catalog

import (
	"math"
	"sort"

	"github.com/san-kum/rprocfit/internal/abund"
)

// ErrorBudget itemizes the error contributions of one abundance measurement.
type ErrorBudget struct {
	Temp  float64 `json:"temp"`
	Logg  float64 `json:"logg"`
	FeH   float64 `json:"feh"`
	Micro float64 `json:"micro"`
	Stat  float64 `json:"stat"`
	Noise float64 `json:"noise"`
}

func missingBudget() ErrorBudget {
	nan := math.NaN()
	return ErrorBudget{Temp: nan, Logg: nan, FeH: nan, Micro: nan, Stat: nan, Noise: nan}
}

// Abundance is one element's measurement for a star. Err is the total error.
type Abundance struct {
	LogEps float64     `json:"logeps"`
	Err    float64     `json:"err"`
	XH     float64     `json:"x_h"`
	XFe    float64     `json:"x_fe"`
	Budget ErrorBudget `json:"budget"`
}

func missingAbundance() Abundance {
	nan := math.NaN()
	return Abundance{LogEps: nan, Err: nan, XH: nan, XFe: nan, Budget: missingBudget()}
}

type Star struct {
	ID       string               `json:"id"`
	Galaxy   string               `json:"galaxy"`
	FeH      float64              `json:"feh"`
	FeHErr   float64              `json:"feh_err"`
	Elements map[string]Abundance `json:"elements"`
}

func (s Star) lookup(b abund.Bracket) (float64, bool) {
	if b == abund.FeH {
		return s.FeH, !math.IsNaN(s.FeH)
	}
	a, ok := s.Elements[b.Num]
	if !ok {
		return math.NaN(), false
	}
	switch b.Den {
	case "H":
		return a.XH, !math.IsNaN(a.XH)
	case "Fe":
		return a.XFe, !math.IsNaN(a.XFe)
	}
	return math.NaN(), false
}

// Ratio resolves a bracket such as "[Eu/Fe]" or the derived "[Ba/Mg]".
func (s Star) Ratio(name string) (float64, bool) {
	b, err := abund.Parse(name)
	if err != nil {
		return math.NaN(), false
	}
	return abund.Resolve(s.lookup, b)
}

// Error returns the total error for a bracket's numerator element, or the
// [Fe/H] error for "[Fe/H]".
func (s Star) Error(name string) float64 {
	b, err := abund.Parse(name)
	if err != nil {
		return math.NaN()
	}
	if b == abund.FeH {
		return s.FeHErr
	}
	if a, ok := s.Elements[b.Num]; ok {
		return a.Err
	}
	return math.NaN()
}

// setDerived fills [X/H] and [X/Fe] from log-eps and [Fe/H] where possible.
func (a *Abundance) setDerived(elem string, feh float64) {
	if math.IsNaN(a.XH) && !math.IsNaN(a.LogEps) {
		if solar, ok := abund.SolarLogEps[elem]; ok {
			a.XH = a.LogEps - solar
		}
	}
	if math.IsNaN(a.XFe) && !math.IsNaN(a.XH) && !math.IsNaN(feh) {
		a.XFe = a.XH - feh
	}
}

// Filter keeps stars of one galaxy. An empty galaxy keeps everything.
func Filter(stars []Star, galaxy string) []Star {
	if galaxy == "" {
		return stars
	}
	out := make([]Star, 0, len(stars))
	for _, s := range stars {
		if s.Galaxy == galaxy {
			out = append(out, s)
		}
	}
	return out
}

// Sort orders stars by ([Fe/H], ID); stars without [Fe/H] go last.
func Sort(stars []Star) {
	sort.SliceStable(stars, func(i, j int) bool {
		a, b := stars[i], stars[j]
		an, bn := math.IsNaN(a.FeH), math.IsNaN(b.FeH)
		if an != bn {
			return bn
		}
		if !an && a.FeH != b.FeH {
			return a.FeH < b.FeH
		}
		return a.ID < b.ID
	})
}

// ElementNames lists elements measured in any star, sorted.
func ElementNames(stars []Star) []string {
	seen := make(map[string]struct{})
	for _, s := range stars {
		for e := range s.Elements {
			seen[e] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for e := range seen {
		names = append(names, e)
	}
	sort.Strings(names)
	return names
}
