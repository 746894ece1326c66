package storage

import (
	"encoding/json"
	"io"
	"math"

	"github.com/san-kum/rprocfit/internal/track"
)

// ExportData is the JSON export of one run. Missing values are null.
type ExportData struct {
	Run    *RunMetadata          `json:"run,omitempty"`
	Steps  int                   `json:"steps"`
	Times  []float64             `json:"times"`
	FeH    []*float64            `json:"feh"`
	Ratios map[string][]*float64 `json:"ratios"`
}

func NewExportData(meta *RunMetadata, t *track.Track) ExportData {
	data := ExportData{
		Run:    meta,
		Steps:  len(t.Samples),
		Times:  make([]float64, len(t.Samples)),
		FeH:    make([]*float64, len(t.Samples)),
		Ratios: make(map[string][]*float64),
	}
	names := t.Ratios()
	for _, name := range names {
		data.Ratios[name] = make([]*float64, len(t.Samples))
	}
	for i, s := range t.Samples {
		data.Times[i] = s.Time
		data.FeH[i] = nullable(s.FeH)
		for _, name := range names {
			if v, ok := s.Ratios[name]; ok {
				data.Ratios[name][i] = nullable(v)
			}
		}
	}
	return data
}

func ExportJSON(w io.Writer, meta *RunMetadata, t *track.Track) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(meta, t))
}

func ExportCSV(w io.Writer, t *track.Track) error {
	return track.WriteCSV(w, t)
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
