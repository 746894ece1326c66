package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/rprocfit/internal/abund"
)

var budgetColumns = []string{"e_temp", "e_logg", "e_[Fe/H]", "e_v", "e_stat", "e_noise"}

func (b *ErrorBudget) slot(prefix string) *float64 {
	switch prefix {
	case "e_temp":
		return &b.Temp
	case "e_logg":
		return &b.Logg
	case "e_[Fe/H]":
		return &b.FeH
	case "e_v":
		return &b.Micro
	case "e_stat":
		return &b.Stat
	case "e_noise":
		return &b.Noise
	}
	return nil
}

// WriteCSV writes stars sorted by ([Fe/H], ID). Missing values are empty cells.
func WriteCSV(w io.Writer, stars []Star) error {
	sorted := make([]Star, len(stars))
	copy(sorted, stars)
	Sort(sorted)
	elements := ElementNames(sorted)

	header := []string{"ID", "Galaxy", "[Fe/H]", "e_[Fe/H]"}
	for _, e := range elements {
		header = append(header, "logeps("+e+")", "e_tot("+e+")")
		for _, p := range budgetColumns {
			header = append(header, p+"("+e+")")
		}
		header = append(header, "sigma_"+e, "["+e+"/H]", "["+e+"/Fe]")
	}
	header = append(header, "sigma_Fe")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range sorted {
		row := []string{s.ID, s.Galaxy, cell(s.FeH), cell(s.FeHErr)}
		for _, e := range elements {
			a, ok := s.Elements[e]
			if !ok {
				a = missingAbundance()
			}
			row = append(row, cell(a.LogEps), cell(a.Err),
				cell(a.Budget.Temp), cell(a.Budget.Logg), cell(a.Budget.FeH),
				cell(a.Budget.Micro), cell(a.Budget.Stat), cell(a.Budget.Noise),
				cell(a.Err), cell(a.XH), cell(a.XFe))
		}
		row = append(row, cell(s.FeHErr))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a catalog CSV by header name. Unknown columns are ignored.
func ReadCSV(r io.Reader) ([]Star, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	stars := make([]Star, 0, len(records)-1)
	for _, rec := range records[1:] {
		s := Star{FeH: math.NaN(), FeHErr: math.NaN(), Elements: make(map[string]Abundance)}
		for i, raw := range rec {
			if i >= len(header) {
				break
			}
			applyColumn(&s, strings.TrimSpace(header[i]), raw)
		}
		if s.ID == "" {
			continue
		}
		for e, a := range s.Elements {
			a.setDerived(e, s.FeH)
			s.Elements[e] = a
		}
		stars = append(stars, s)
	}
	return stars, nil
}

func applyColumn(s *Star, name, raw string) {
	switch name {
	case "ID":
		s.ID = strings.TrimSpace(raw)
		return
	case "Galaxy":
		s.Galaxy = strings.TrimSpace(raw)
		return
	case "[Fe/H]":
		s.FeH = parseValue(raw)
		return
	case "e_[Fe/H]", "sigma_Fe":
		if v := parseValue(raw); !math.IsNaN(v) {
			s.FeHErr = v
		}
		return
	}

	elem := func(e string) Abundance {
		if a, ok := s.Elements[e]; ok {
			return a
		}
		return missingAbundance()
	}

	if open := strings.LastIndex(name, "("); open > 0 && strings.HasSuffix(name, ")") {
		prefix, e := name[:open], name[open+1:len(name)-1]
		a := elem(e)
		v := parseValue(raw)
		switch prefix {
		case "logeps":
			a.LogEps = v
		case "e_tot":
			a.Err = v
		default:
			slot := a.Budget.slot(prefix)
			if slot == nil {
				return
			}
			*slot = v
		}
		s.Elements[e] = a
		return
	}

	if e, ok := strings.CutPrefix(name, "sigma_"); ok {
		a := elem(e)
		if v := parseValue(raw); !math.IsNaN(v) && math.IsNaN(a.Err) {
			a.Err = v
		}
		s.Elements[e] = a
		return
	}

	b, err := abund.Parse(name)
	if err != nil || !strings.HasPrefix(name, "[") {
		return
	}
	a := elem(b.Num)
	switch b.Den {
	case "H":
		a.XH = parseValue(raw)
	case "Fe":
		a.XFe = parseValue(raw)
	default:
		return
	}
	s.Elements[b.Num] = a
}

func parseValue(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
