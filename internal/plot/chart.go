package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rprocfit/internal/catalog"
	"github.com/san-kum/rprocfit/internal/dtd"
	"github.com/san-kum/rprocfit/internal/track"
)

var ErrNothingToPlot = errors.New("plot: no series with at least two points")

type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png", "":
		return PNG, nil
	case "svg":
		return SVG, nil
	}
	return "", fmt.Errorf("plot: unsupported format %q", s)
}

func (f Format) renderer() chart.RendererProvider {
	if f == SVG {
		return chart.SVG
	}
	return chart.PNG
}

// Default figure size in pixels.
const (
	Width  = 900
	Height = 600
)

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	{R: 255, G: 165, B: 0, A: 255},
	{R: 128, G: 0, B: 128, A: 255},
	chart.ColorCyan,
}

var starColor = drawing.Color{R: 40, G: 40, B: 40, A: 200}

// Abundance draws one line per track (y against x) and overlays the stars
// when x is [Fe/H].
func Abundance(w io.Writer, f Format, tracks []*track.Track, stars []catalog.Star, x, y string) error {
	var series []chart.Series
	for i, t := range tracks {
		xs, ys, err := t.Series(x, y)
		if err != nil || len(xs) < 2 {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    t.Label,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: 2.0,
			},
		})
	}
	if len(series) == 0 {
		return ErrNothingToPlot
	}

	if x == track.AxisFeH && len(stars) > 0 {
		var sx, sy []float64
		for _, s := range stars {
			v, ok := s.Ratio(y)
			if !ok || math.IsNaN(s.FeH) {
				continue
			}
			sx = append(sx, s.FeH)
			sy = append(sy, v)
		}
		if len(sx) > 0 {
			series = append(series, chart.ContinuousSeries{
				Name:    fmt.Sprintf("observed (%d)", len(sx)),
				XValues: sx,
				YValues: sy,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    4,
					DotColor:    starColor,
				},
			})
		}
	}

	graph := chart.Chart{
		Width:  Width,
		Height: Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis:  chart.XAxis{Name: x, Style: chart.Style{FontSize: 10.0}},
		YAxis:  chart.YAxis{Name: y, Style: chart.Style{FontSize: 10.0}},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(f.renderer(), w)
}

// DTD draws rate against delay time in Gyr.
func DTD(w io.Writer, f Format, c dtd.Curve, title string) error {
	if len(c) < 2 {
		return ErrNothingToPlot
	}
	xs := c.Times()
	floats.Scale(1e-9, xs)
	ys := c.Rates()
	// go-chart refuses a zero-height range
	if maxOf(ys) == 0 {
		ys = append([]float64(nil), ys...)
		ys[len(ys)-1] = 1e-12
	}

	graph := chart.Chart{
		Title:  title,
		Width:  Width,
		Height: Height / 2,
		XAxis:  chart.XAxis{Name: "delay [Gyr]", Style: chart.Style{FontSize: 10.0}},
		YAxis: chart.YAxis{
			Name:  "relative rate",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(1.05, maxOf(ys)*1.05)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "DTD",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2.0},
			},
		},
	}
	return graph.Render(f.renderer(), w)
}

// Save creates path (and its directory) and renders into it with the format
// implied by the extension.
func Save(path string, render func(io.Writer, Format) error) error {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(out, f); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}

func maxOf(vs []float64) float64 {
	m := math.Inf(-1)
	for _, v := range vs {
		m = math.Max(m, v)
	}
	return m
}
