package compare

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rprocfit/internal/abund"
	"github.com/san-kum/rprocfit/internal/catalog"
	"github.com/san-kum/rprocfit/internal/optim"
	"github.com/san-kum/rprocfit/internal/track"
)

// Score is the outcome of one comparison. Excluded counts observations that
// were skipped for missing values or, under Overlap, for lying outside the
// track.
type Score struct {
	RMS      float64 `json:"rms"`
	N        int     `json:"n"`
	Excluded int     `json:"excluded"`
}

// DerivedRatio returns [A/B] from two ratios over a common element C.
func DerivedRatio(aOverC, bOverC float64) float64 {
	return abund.Derive(aOverC, bOverC)
}

// rms is sqrt(mean((a-b)^2)).
func rms(a, b []float64) float64 {
	if len(a) == 0 {
		return math.NaN()
	}
	return floats.Distance(a, b, 2) / math.Sqrt(float64(len(a)))
}

// Tracks resamples b onto a's x positions and returns the RMS of y(a) - y(b).
func Tracks(a, b *track.Track, x, y string, policy Policy) (Score, error) {
	ax, ay, err := a.Series(x, y)
	if err != nil {
		return Score{}, err
	}
	bx, by, err := b.Series(x, y)
	if err != nil {
		return Score{}, err
	}
	vals, kept, err := Resample(bx, by, ax, policy)
	if err != nil {
		return Score{}, fmt.Errorf("track %q onto %q: %w", b.Label, a.Label, err)
	}
	if len(kept) == 0 {
		return Score{}, fmt.Errorf("%w: tracks %q and %q do not overlap in %s", ErrNoObservations, a.Label, b.Label, x)
	}
	ref := make([]float64, len(kept))
	for i, k := range kept {
		ref[i] = ay[k]
	}
	return Score{RMS: rms(ref, vals), N: len(kept), Excluded: len(ax) - len(kept)}, nil
}

// Residual interpolates the track's target ratio against [Fe/H] at each
// star's [Fe/H] and returns the RMS of observed minus model. Stars lacking
// [Fe/H] or the target ratio are excluded.
func Residual(t *track.Track, stars []catalog.Star, target string, policy Policy) (Score, error) {
	xs, ys, err := t.Series(track.AxisFeH, target)
	if err != nil {
		return Score{}, err
	}

	var at, obs []float64
	excluded := 0
	for _, s := range stars {
		v, ok := s.Ratio(target)
		if !ok || math.IsNaN(s.FeH) {
			excluded++
			continue
		}
		at = append(at, s.FeH)
		obs = append(obs, v)
	}
	if len(at) == 0 {
		return Score{Excluded: excluded}, fmt.Errorf("%w: %d stars, none with %s", ErrNoObservations, len(stars), target)
	}

	model, kept, err := Resample(xs, ys, at, policy)
	if err != nil {
		return Score{Excluded: excluded}, fmt.Errorf("track %q: %w", t.Label, err)
	}
	excluded += len(at) - len(kept)
	if len(kept) == 0 {
		return Score{Excluded: excluded}, fmt.Errorf("%w: no star inside the track's [Fe/H] range", ErrNoObservations)
	}
	observed := make([]float64, len(kept))
	for i, k := range kept {
		observed[i] = obs[k]
	}
	return Score{RMS: rms(observed, model), N: len(kept), Excluded: excluded}, nil
}

// BestFit returns the index and score of the lowest RMS. Ties go to the first
// candidate. It returns -1 for an empty slice.
func BestFit(scores []Score) (int, Score) {
	vals := make([]float64, len(scores))
	for i, s := range scores {
		vals[i] = s.RMS
	}
	idx, _ := optim.Argmin(vals)
	if idx < 0 {
		return -1, Score{}
	}
	return idx, scores[idx]
}
