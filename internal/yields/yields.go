// Package yields converts r-process yield tables into the chemical evolution
// engine's metallicity-dependent table format.
package yields

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// DefaultGrid is the metallicity grid the MRD table is replicated over.
var DefaultGrid = []float64{1e-4, 5e-4, 1e-3}

var (
	ErrBadIsotope = errors.New("yields: cannot parse isotope label")
	ErrEmptyGrid  = errors.New("yields: empty metallicity grid")
)

var isotopeLabel = regexp.MustCompile(`^([a-zA-Z]+)([0-9]+)$`)

// FormatIsotope turns "eu151" into ("Eu-151", 151).
func FormatIsotope(label string) (string, int, error) {
	m := isotopeLabel.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return "", 0, fmt.Errorf("%w: %q", ErrBadIsotope, label)
	}
	elem := []rune(strings.ToLower(m[1]))
	elem[0] = unicode.ToUpper(elem[0])
	mass, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrBadIsotope, label)
	}
	return fmt.Sprintf("%s-%d", string(elem), mass), mass, nil
}

// Isotope is one row of a yield table: ejected mass in solar masses.
type Isotope struct {
	Name       string
	MassNumber int
	Mass       float64
}

// ReadMRD parses the Nishimura et al. (2017) table: whitespace columns with
// the isotope label first and the ejected mass in the sixth column. Blank,
// comment and short lines are skipped. Rows come back sorted by mass number.
func ReadMRD(r io.Reader) ([]Isotope, error) {
	var out []Isotope
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 6 {
			continue
		}
		mass, err := strconv.ParseFloat(parts[5], 64)
		if err != nil {
			return nil, fmt.Errorf("yields: %s: bad mass %q: %w", parts[0], parts[5], err)
		}
		name, a, err := FormatIsotope(parts[0])
		if err != nil {
			return nil, err
		}
		out = append(out, Isotope{Name: name, MassNumber: a, Mass: mass})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MassNumber != out[j].MassNumber {
			return out[i].MassNumber < out[j].MassNumber
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Mass < out[j].Mass
	})
	return out, nil
}

// WriteTable writes isotopes in the engine's format with the same yield in
// every metallicity column.
func WriteTable(w io.Writer, isotopes []Isotope, grid []float64) error {
	if len(grid) == 0 {
		return ErrEmptyGrid
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "H Nishimura et al. (2017) L1.00 MRD yields converted for NuPyCEE")
	fmt.Fprintln(bw, "H Metallicities columns carry identical yields (assumed MRD metallicity independence).")

	cols := make([]string, len(grid))
	for i, z := range grid {
		cols[i] = fmt.Sprintf("&Z=%.4g", z)
	}
	fmt.Fprintln(bw, "&Isotopes  "+strings.Join(cols, "  "))

	for _, iso := range isotopes {
		var sb strings.Builder
		fmt.Fprintf(&sb, "&%-8s", iso.Name)
		for range grid {
			fmt.Fprintf(&sb, " &%.6E", iso.Mass)
		}
		fmt.Fprintln(bw, sb.String())
	}
	return bw.Flush()
}

// Conversion reports what ConvertMRD did.
type Conversion struct {
	Path     string
	Cached   bool
	Isotopes int
}

// ConvertMRD writes the converted table to dst unless dst already exists, in
// which case the existing file is kept as is.
func ConvertMRD(src, dst string, grid []float64) (Conversion, error) {
	res := Conversion{Path: dst}
	if len(grid) == 0 {
		return res, ErrEmptyGrid
	}
	if _, err := os.Stat(dst); err == nil {
		res.Cached = true
		return res, nil
	}

	f, err := os.Open(src)
	if err != nil {
		return res, fmt.Errorf("yields: open source: %w", err)
	}
	defer f.Close()

	isotopes, err := ReadMRD(f)
	if err != nil {
		return res, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return res, err
	}
	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return res, err
	}
	if err := WriteTable(out, isotopes, grid); err != nil {
		out.Close()
		os.Remove(tmp)
		return res, err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return res, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return res, err
	}
	res.Isotopes = len(isotopes)
	return res, nil
}
