package track

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// WriteCSV writes a header "time,[Fe/H],<ratios...>" followed by one row per
// sample. Missing ratios are written as empty cells.
func WriteCSV(w io.Writer, t *Track) error {
	ratios := t.Ratios()
	cw := csv.NewWriter(w)

	header := append([]string{AxisTime, AxisFeH}, ratios...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, s := range t.Samples {
		row := []string{formatFloat(s.Time), formatFloat(s.FeH)}
		for _, name := range ratios {
			v, ok := s.Ratios[name]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the format written by WriteCSV. The time and [Fe/H] columns
// are required; every other column is taken as a ratio.
func ReadCSV(r io.Reader, label string) (*Track, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("track %q: empty csv", label)
	}

	header := records[0]
	timeCol, fehCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case AxisTime:
			timeCol = i
		case AxisFeH:
			fehCol = i
		}
	}
	if timeCol < 0 || fehCol < 0 {
		return nil, fmt.Errorf("track %q: header must contain %q and %q", label, AxisTime, AxisFeH)
	}

	t := &Track{Label: label, Samples: make([]Sample, 0, len(records)-1)}
	for line, rec := range records[1:] {
		if timeCol >= len(rec) {
			return nil, fmt.Errorf("track %q: row %d: no time value", label, line+2)
		}
		s := Sample{FeH: math.NaN(), Ratios: make(map[string]float64)}
		for i, cell := range rec {
			if i >= len(header) {
				break
			}
			v, ok := parseCell(cell)
			switch i {
			case timeCol:
				if !ok {
					return nil, fmt.Errorf("track %q: row %d: bad time %q", label, line+2, cell)
				}
				s.Time = v
			case fehCol:
				s.FeH = v
			default:
				if ok {
					s.Ratios[strings.TrimSpace(header[i])] = v
				}
			}
		}
		t.Samples = append(t.Samples, s)
	}
	return t, nil
}

func parseCell(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 10, 64)
}
