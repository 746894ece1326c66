package compare_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rprocfit/internal/catalog"
	"github.com/san-kum/rprocfit/internal/compare"
	"github.com/san-kum/rprocfit/internal/track"
)

func star(id string, feh, euFe float64) catalog.Star {
	return catalog.Star{
		ID:     id,
		Galaxy: "For",
		FeH:    feh,
		Elements: map[string]catalog.Abundance{
			"Eu": {LogEps: math.NaN(), Err: 0.1, XH: math.NaN(), XFe: euFe},
		},
	}
}

func linearTrack(label string) *track.Track {
	// [Eu/Fe] = 0.5 + 0.25*[Fe/H] over [Fe/H] in [-3, 0]
	t := &track.Track{Label: label}
	for i := 0; i <= 6; i++ {
		feh := -3 + 0.5*float64(i)
		t.Samples = append(t.Samples, track.Sample{
			Time:   float64(i) * 1e9,
			FeH:    feh,
			Ratios: map[string]float64{"[Eu/Fe]": 0.5 + 0.25*feh},
		})
	}
	return t
}

var _ = Describe("Resample", func() {
	It("interpolates linearly between samples", func() {
		vals, kept, err := compare.Resample([]float64{0, 1, 2}, []float64{0, 10, 0}, []float64{0.5, 1.5}, compare.Strict)
		Expect(err).NotTo(HaveOccurred())
		Expect(kept).To(Equal([]int{0, 1}))
		Expect(vals[0]).To(BeNumerically("~", 5, 1e-12))
		Expect(vals[1]).To(BeNumerically("~", 5, 1e-12))
	})

	It("accepts unsorted input with repeated positions", func() {
		vals, _, err := compare.Resample([]float64{2, 0, 1, 1}, []float64{4, 0, 2, 99}, []float64{1.5}, compare.Strict)
		Expect(err).NotTo(HaveOccurred())
		Expect(vals[0]).To(BeNumerically("~", 3, 1e-12))
	})

	It("refuses to extrapolate under the strict policy", func() {
		_, _, err := compare.Resample([]float64{0, 1}, []float64{0, 1}, []float64{0.5, 2}, compare.Strict)
		Expect(errors.Is(err, compare.ErrOutOfRange)).To(BeTrue())
	})

	It("drops outside positions under the overlap policy", func() {
		vals, kept, err := compare.Resample([]float64{0, 1}, []float64{0, 1}, []float64{-1, 0.25, 2}, compare.Overlap)
		Expect(err).NotTo(HaveOccurred())
		Expect(kept).To(Equal([]int{1}))
		Expect(vals).To(HaveLen(1))
		Expect(vals[0]).To(BeNumerically("~", 0.25, 1e-12))
	})

	It("fails on a series without usable samples", func() {
		_, _, err := compare.Resample([]float64{math.NaN()}, []float64{1}, []float64{0}, compare.Strict)
		Expect(errors.Is(err, compare.ErrTooFewSamples)).To(BeTrue())
	})
})

var _ = Describe("ParsePolicy", func() {
	DescribeTable("names",
		func(in string, want compare.Policy, ok bool) {
			got, err := compare.ParsePolicy(in)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("empty", "", compare.Strict, true),
		Entry("strict", "strict", compare.Strict, true),
		Entry("overlap", "Overlap", compare.Overlap, true),
		Entry("unknown", "extend", compare.Strict, false),
	)
})

var _ = Describe("DerivedRatio", func() {
	It("subtracts brackets sharing a denominator", func() {
		Expect(compare.DerivedRatio(0.3, 0.5)).To(BeNumerically("~", -0.2, 1e-12))
	})
})

var _ = Describe("Residual", func() {
	It("reduces to the absolute difference for one star", func() {
		t := &track.Track{Label: "single", Samples: []track.Sample{
			{Time: 1e9, FeH: -2.0, Ratios: map[string]float64{"[Eu/Fe]": 0.4}},
		}}
		score, err := compare.Residual(t, []catalog.Star{star("s1", -2.0, 0.5)}, "[Eu/Fe]", compare.Strict)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.N).To(Equal(1))
		Expect(score.RMS).To(BeNumerically("~", 0.1, 1e-12))
	})

	It("excludes stars with missing values instead of counting them as zero", func() {
		stars := []catalog.Star{
			star("a", -2.0, 0.1),
			star("b", -1.0, math.NaN()),
			star("c", math.NaN(), 0.3),
			star("d", -1.0, 0.25),
		}
		score, err := compare.Residual(linearTrack("m"), stars, "[Eu/Fe]", compare.Strict)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.N).To(Equal(2))
		Expect(score.Excluded).To(Equal(2))
		// model: 0.0 at -2, 0.25 at -1; residuals 0.1 and 0
		Expect(score.RMS).To(BeNumerically("~", math.Sqrt(0.01/2), 1e-12))
	})

	It("fails when no star carries the target", func() {
		_, err := compare.Residual(linearTrack("m"), []catalog.Star{star("a", -1, math.NaN())}, "[Eu/Fe]", compare.Strict)
		Expect(errors.Is(err, compare.ErrNoObservations)).To(BeTrue())
	})

	It("honours the extrapolation policy", func() {
		stars := []catalog.Star{star("a", -1.0, 0.25), star("b", -4.0, 0.0), star("c", -1.5, math.NaN())}
		score, err := compare.Residual(linearTrack("m"), stars, "[Eu/Fe]", compare.Strict)
		Expect(errors.Is(err, compare.ErrOutOfRange)).To(BeTrue())
		Expect(score.Excluded).To(Equal(1), "stars without the target are still counted")

		score, err = compare.Residual(linearTrack("m"), stars, "[Eu/Fe]", compare.Overlap)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.N).To(Equal(1))
		Expect(score.Excluded).To(Equal(2))
		Expect(score.RMS).To(BeNumerically("~", 0, 1e-12))
	})

	It("scores derived ratios", func() {
		t := &track.Track{Label: "bamg", Samples: []track.Sample{
			{FeH: -3, Ratios: map[string]float64{"[Ba/Fe]": 0.3, "[Mg/Fe]": 0.5}},
			{FeH: 0, Ratios: map[string]float64{"[Ba/Fe]": 0.3, "[Mg/Fe]": 0.5}},
		}}
		s := catalog.Star{ID: "x", FeH: -1, Elements: map[string]catalog.Abundance{
			"Ba": {XH: math.NaN(), XFe: 0.0},
			"Mg": {XH: math.NaN(), XFe: 0.0},
		}}
		score, err := compare.Residual(t, []catalog.Star{s}, "[Ba/Mg]", compare.Strict)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.RMS).To(BeNumerically("~", 0.2, 1e-12))
	})
})

var _ = Describe("Tracks", func() {
	It("is zero for identical tracks", func() {
		score, err := compare.Tracks(linearTrack("a"), linearTrack("b"), track.AxisFeH, "[Eu/Fe]", compare.Strict)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.N).To(Equal(7))
		Expect(score.RMS).To(BeNumerically("~", 0, 1e-12))
	})

	It("resamples onto mismatched grids", func() {
		b := &track.Track{Label: "b", Samples: []track.Sample{
			{FeH: -3, Ratios: map[string]float64{"[Eu/Fe]": 0.5 + 0.25*-3 + 0.1}},
			{FeH: 0, Ratios: map[string]float64{"[Eu/Fe]": 0.5 + 0.1}},
		}}
		score, err := compare.Tracks(linearTrack("a"), b, track.AxisFeH, "[Eu/Fe]", compare.Strict)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.RMS).To(BeNumerically("~", 0.1, 1e-12))
	})
})

var _ = Describe("BestFit", func() {
	It("picks the lowest RMS and the first on ties", func() {
		idx, s := compare.BestFit([]compare.Score{{RMS: 0.3}, {RMS: 0.1, N: 1}, {RMS: 0.1, N: 2}})
		Expect(idx).To(Equal(1))
		Expect(s.N).To(Equal(1))
	})

	It("returns -1 for no candidates", func() {
		idx, _ := compare.BestFit(nil)
		Expect(idx).To(Equal(-1))
	})
})
