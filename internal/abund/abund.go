// Package abund handles bracket abundance notation.
//
// [A/B] = log10(N_A/N_B) - log10(N_A/N_B)_sun, in dex. Two brackets that share
// a denominator subtract to the bracket of their numerators:
// [A/C] - [B/C] = [A/B].
package abund

import (
	"fmt"
	"math"
	"strings"
)

// SolarLogEps holds the solar log-epsilon values used to turn absolute
// abundances into [X/H] (Asplund et al. 2009).
var SolarLogEps = map[string]float64{
	"Fe": 7.50,
	"Mg": 7.60,
	"Sc": 3.15,
	"Ti": 4.95,
	"Cr": 5.64,
	"Mn": 5.43,
	"Ni": 6.22,
	"Zn": 4.56,
	"Sr": 2.87,
	"Y":  2.21,
	"Ba": 2.18,
	"Eu": 0.52,
}

// Elements lists the elements carried by the Reichert et al. (2020) table in
// column order.
var Elements = []string{"Mg", "Sc", "Ti", "Cr", "Mn", "Ni", "Zn", "Sr", "Y", "Ba", "Eu"}

type Bracket struct {
	Num string
	Den string
}

func (b Bracket) String() string { return "[" + b.Num + "/" + b.Den + "]" }

// FeH is the bracket used as the metallicity axis.
var FeH = Bracket{Num: "Fe", Den: "H"}

// Parse reads "[Eu/Fe]" (brackets optional, surrounding space ignored).
func Parse(s string) (Bracket, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(t, "[")
	t = strings.TrimSuffix(t, "]")
	num, den, ok := strings.Cut(t, "/")
	num, den = strings.TrimSpace(num), strings.TrimSpace(den)
	if !ok || num == "" || den == "" {
		return Bracket{}, fmt.Errorf("abund: cannot parse bracket %q", s)
	}
	return Bracket{Num: num, Den: den}, nil
}

// Derive returns [A/B] from [A/C] and [B/C].
func Derive(aOverC, bOverC float64) float64 {
	return aOverC - bOverC
}

// Lookup returns a directly available bracket value. Missing values report ok=false.
type Lookup func(Bracket) (float64, bool)

// Resolve returns b from lookup, deriving it from brackets over Fe or over H
// when it is not directly available. [X/H] may itself come from [X/Fe]+[Fe/H].
func Resolve(lookup Lookup, b Bracket) (float64, bool) {
	if v, ok := get(lookup, b); ok {
		return v, true
	}
	if b.Num == b.Den {
		return 0, true
	}
	for _, base := range []string{"Fe", "H"} {
		num, ok1 := over(lookup, b.Num, base)
		den, ok2 := over(lookup, b.Den, base)
		if ok1 && ok2 {
			return Derive(num, den), true
		}
	}
	return math.NaN(), false
}

func over(lookup Lookup, elem, base string) (float64, bool) {
	if elem == base {
		return 0, true
	}
	if v, ok := get(lookup, Bracket{Num: elem, Den: base}); ok {
		return v, true
	}
	if base == "H" {
		xfe, ok1 := get(lookup, Bracket{Num: elem, Den: "Fe"})
		feh, ok2 := get(lookup, FeH)
		if ok1 && ok2 {
			return xfe + feh, true
		}
	}
	return 0, false
}

func get(lookup Lookup, b Bracket) (float64, bool) {
	v, ok := lookup(b)
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
