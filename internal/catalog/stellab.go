package catalog

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/san-kum/rprocfit/internal/abund"
)

// MissingSentinel marks an absent value in stellab tables.
const MissingSentinel = 30.0

// ParseStellab reads a whitespace-separated stellab table. A first line that
// contains letters is taken as the header; otherwise columns are named col0,
// col1, ... and only col0 is interpreted (as [Fe/H]). A column whose name
// contains "err" holds the error of the column before it. Stars get the given
// galaxy since the format does not carry one.
func ParseStellab(r io.Reader, galaxy string) ([]Star, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024), 1<<20)

	var header []string
	var stars []Star
	row := 0

	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		if header == nil {
			if hasLetter(line) {
				header = uniqueNames(tokens)
				continue
			}
			header = make([]string, len(tokens))
			for i := range header {
				header[i] = fmt.Sprintf("col%d", i)
			}
			header[0] = abund.FeH.String()
		}

		row++
		s := Star{
			ID:       fmt.Sprintf("row%d", row),
			Galaxy:   galaxy,
			FeH:      math.NaN(),
			FeHErr:   math.NaN(),
			Elements: make(map[string]Abundance),
		}
		var prev string
		for i, tok := range tokens {
			if i >= len(header) {
				break
			}
			name := header[i]
			lower := strings.ToLower(name)
			switch {
			case lower == "id" || lower == "star" || lower == "name":
				s.ID = tok
				continue
			case strings.Contains(lower, "err"):
				setStellabError(&s, prev, stellabValue(tok))
				continue
			}
			setStellabValue(&s, name, stellabValue(tok))
			prev = name
		}
		for e, a := range s.Elements {
			a.setDerived(e, s.FeH)
			s.Elements[e] = a
		}
		stars = append(stars, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return stars, nil
}

func stellabValue(tok string) float64 {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || v == MissingSentinel {
		return math.NaN()
	}
	return v
}

func setStellabValue(s *Star, name string, v float64) {
	b, err := abund.Parse(name)
	if err != nil {
		return
	}
	if b.Num == "Fe" && b.Den == "H" {
		s.FeH = v
		return
	}
	a, ok := s.Elements[b.Num]
	if !ok {
		a = missingAbundance()
	}
	switch b.Den {
	case "H":
		a.XH = v
	case "Fe":
		a.XFe = v
	default:
		return
	}
	s.Elements[b.Num] = a
}

func setStellabError(s *Star, of string, v float64) {
	b, err := abund.Parse(of)
	if err != nil {
		return
	}
	if b == abund.FeH {
		s.FeHErr = v
		return
	}
	if a, ok := s.Elements[b.Num]; ok {
		a.Err = v
		s.Elements[b.Num] = a
	}
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func uniqueNames(tokens []string) []string {
	counts := make(map[string]int)
	out := make([]string, len(tokens))
	for i, t := range tokens {
		n := counts[t]
		if n == 0 {
			out[i] = t
		} else {
			out[i] = fmt.Sprintf("%s_%d", t, n)
		}
		counts[t] = n + 1
	}
	return out
}
