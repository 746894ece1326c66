package plot

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rprocfit/internal/compare"
	"github.com/san-kum/rprocfit/internal/track"
)

// ASCII plots values against their index.
func ASCII(values []float64, caption string, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// TrackASCII resamples y onto width evenly spaced x positions so the terminal
// plot has a true x axis rather than sample order.
func TrackASCII(t *track.Track, x, y string, width, height int) (string, error) {
	xs, ys, err := t.Series(x, y)
	if err != nil {
		return "", err
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range xs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if width < 2 {
		width = 2
	}
	at := make([]float64, width)
	for i := range at {
		at[i] = lo + (hi-lo)*float64(i)/float64(width-1)
	}
	vals, _, err := compare.Resample(xs, ys, at, compare.Overlap)
	if err != nil {
		return "", err
	}
	caption := fmt.Sprintf("%s vs %s [%.3g, %.3g]", y, x, lo, hi)
	return ASCII(vals, caption, width, height), nil
}
