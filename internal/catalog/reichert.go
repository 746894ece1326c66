package catalog

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

// field is a 1-indexed, inclusive byte range of a fixed-width row.
type field struct{ start, end int }

func (f field) of(line string) string {
	if f.start-1 >= len(line) {
		return ""
	}
	end := f.end
	if end > len(line) {
		end = len(line)
	}
	return line[f.start-1 : end]
}

func (f field) float(line string) float64 {
	text := strings.TrimSpace(f.of(line))
	if text == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

type elementFields struct {
	logEps, errTot field
}

// budget returns the six itemized error fields that follow e_tot:
// temperature, log g, metallicity, microturbulence, statistical, noise.
func (e elementFields) budget() [6]field {
	var out [6]field
	start := e.errTot.end + 2
	for i := range out {
		out[i] = field{start + 5*i, start + 5*i + 3}
	}
	return out
}

var (
	reichertID     = field{1, 30}
	reichertGalaxy = field{32, 37}
	reichertFeH    = field{39, 43}
	reichertFeHErr = field{45, 48}

	reichertElements = map[string]elementFields{
		"Mg": {field{50, 53}, field{55, 58}},
		"Sc": {field{90, 94}, field{96, 99}},
		"Ti": {field{131, 134}, field{136, 139}},
		"Cr": {field{171, 174}, field{176, 179}},
		"Mn": {field{211, 214}, field{216, 219}},
		"Ni": {field{251, 254}, field{256, 259}},
		"Zn": {field{291, 294}, field{296, 299}},
		"Sr": {field{331, 335}, field{337, 340}},
		"Y":  {field{372, 376}, field{378, 381}},
		"Ba": {field{413, 417}, field{419, 422}},
		"Eu": {field{454, 458}, field{460, 463}},
	}
)

// DefaultGalaxy is the galaxy code for Fornax in the Reichert et al. (2020) table.
const DefaultGalaxy = "For"

// ParseReichert reads the Reichert et al. (2020) fixed-width abundance table.
// Rows from other galaxies are skipped, as are rows with no measurement for
// the required element (pass "" to keep all rows).
func ParseReichert(r io.Reader, galaxy, require string) ([]Star, error) {
	var stars []Star
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024), 1<<20)

	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		star, ok := parseReichertRow(line)
		if !ok {
			continue
		}
		if galaxy != "" && star.Galaxy != galaxy {
			continue
		}
		if require != "" {
			if a, ok := star.Elements[require]; !ok || math.IsNaN(a.LogEps) {
				continue
			}
		}
		stars = append(stars, star)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	Sort(stars)
	return stars, nil
}

func parseReichertRow(line string) (Star, bool) {
	id := strings.TrimSpace(reichertID.of(line))
	if id == "" {
		return Star{}, false
	}
	star := Star{
		ID:       id,
		Galaxy:   strings.TrimSpace(reichertGalaxy.of(line)),
		FeH:      reichertFeH.float(line),
		FeHErr:   reichertFeHErr.float(line),
		Elements: make(map[string]Abundance, len(reichertElements)),
	}

	for elem, f := range reichertElements {
		a := missingAbundance()
		a.LogEps = f.logEps.float(line)
		a.Err = f.errTot.float(line)
		b := f.budget()
		a.Budget = ErrorBudget{
			Temp:  b[0].float(line),
			Logg:  b[1].float(line),
			FeH:   b[2].float(line),
			Micro: b[3].float(line),
			Stat:  b[4].float(line),
			Noise: b[5].float(line),
		}
		a.setDerived(elem, star.FeH)
		star.Elements[elem] = a
	}
	return star, true
}
