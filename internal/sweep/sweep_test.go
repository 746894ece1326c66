package sweep_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rprocfit/internal/catalog"
	"github.com/san-kum/rprocfit/internal/dtd"
	"github.com/san-kum/rprocfit/internal/engine"
	"github.com/san-kum/rprocfit/internal/experiment"
	"github.com/san-kum/rprocfit/internal/optim"
	"github.com/san-kum/rprocfit/internal/sweep"
	"github.com/san-kum/rprocfit/internal/track"
)

// rateEngine returns a flat [Eu/Fe] equal to RatePerMass * 1e5.
func rateEngine(calls *atomic.Int32) engine.Engine {
	return engine.Func(func(_ context.Context, cfg engine.Config) (*track.Track, error) {
		calls.Add(1)
		v := cfg.RatePerMass * 1e5
		return &track.Track{Samples: []track.Sample{
			{Time: 1e8, FeH: -4, Ratios: map[string]float64{"[Eu/Fe]": v}},
			{Time: 1e10, FeH: 0.5, Ratios: map[string]float64{"[Eu/Fe]": v}},
		}}, nil
	})
}

func base() experiment.Scenario {
	return experiment.Scenario{
		Name:          "sweep",
		Kind:          experiment.KindPrompt,
		Enabled:       true,
		RatePerMass:   1e-6,
		Window:        dtd.Window{Start: 3e6, Stop: 3e8},
		TEnd:          13e9,
		Metallicities: []float64{1e-4, 1e-3},
	}
}

func stars(euFe ...float64) []catalog.Star {
	out := make([]catalog.Star, len(euFe))
	for i, v := range euFe {
		out[i] = catalog.Star{ID: string(rune('a' + i)), Galaxy: "For", FeH: -2 + 0.5*float64(i),
			Elements: map[string]catalog.Abundance{"Eu": {LogEps: math.NaN(), XH: math.NaN(), XFe: v}}}
	}
	return out
}

func rateGrid(rates ...float64) *optim.GridSearch {
	g, err := optim.NewGridSearch([]string{experiment.ParamRatePerMass}, [][]float64{rates})
	Expect(err).NotTo(HaveOccurred())
	return g
}

var _ = Describe("Runner", func() {
	var calls atomic.Int32

	BeforeEach(func() { calls.Store(0) })

	It("picks the rate closest to the observations", func() {
		r := &sweep.Runner{Engine: rateEngine(&calls), Stars: stars(0.4, 0.4, 0.4)}
		out, err := r.Grid(context.Background(), base(), rateGrid(1e-6, 4e-6, 8e-6))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Results).To(HaveLen(3))
		Expect(out.Best).To(Equal(1))
		Expect(out.BestResult().Params[experiment.ParamRatePerMass]).To(Equal(4e-6))
		Expect(out.BestResult().Score.RMS).To(BeNumerically("~", 0, 1e-9))
		Expect(calls.Load()).To(BeEquivalentTo(3))
	})

	It("breaks ties by candidate order", func() {
		r := &sweep.Runner{Engine: rateEngine(&calls), Stars: stars(0.3)}
		out, err := r.Grid(context.Background(), base(), rateGrid(1e-6, 3e-6, 3e-6))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Results[1].Score).To(Equal(out.Results[2].Score))
		Expect(out.Best).To(Equal(1))
	})

	It("returns the same ordered results with workers", func() {
		seq := &sweep.Runner{Engine: rateEngine(&calls), Stars: stars(0.2, 0.5)}
		par := &sweep.Runner{Engine: rateEngine(&calls), Stars: stars(0.2, 0.5), Workers: 4}
		grid := rateGrid(1e-6, 2e-6, 3e-6, 4e-6, 5e-6, 6e-6)

		a, err := seq.Grid(context.Background(), base(), grid)
		Expect(err).NotTo(HaveOccurred())
		b, err := par.Grid(context.Background(), base(), grid)
		Expect(err).NotTo(HaveOccurred())

		Expect(b.Best).To(Equal(a.Best))
		for i := range a.Results {
			Expect(b.Results[i].Params).To(Equal(a.Results[i].Params))
			Expect(b.Results[i].Score).To(Equal(a.Results[i].Score))
		}
	})

	It("validates every candidate before running any", func() {
		r := &sweep.Runner{Engine: rateEngine(&calls), Stars: stars(0.4)}
		g, err := optim.NewGridSearch([]string{experiment.ParamWindowStop}, [][]float64{{3e8, 1e6}})
		Expect(err).NotTo(HaveOccurred())
		_, err = r.Grid(context.Background(), base(), g)
		Expect(errors.Is(err, dtd.ErrInvalidWindow)).To(BeTrue())
		Expect(calls.Load()).To(BeZero())
	})

	It("aborts on an engine failure", func() {
		boom := errors.New("engine crashed")
		var n atomic.Int32
		eng := engine.Func(func(ctx context.Context, cfg engine.Config) (*track.Track, error) {
			if n.Add(1) == 2 {
				return nil, boom
			}
			return rateEngine(&calls).Run(ctx, cfg)
		})
		for _, workers := range []int{1, 3} {
			n.Store(0)
			r := &sweep.Runner{Engine: eng, Stars: stars(0.4), Workers: workers}
			out, err := r.Grid(context.Background(), base(), rateGrid(1e-6, 2e-6, 3e-6))
			Expect(err).To(MatchError(boom))
			Expect(out).To(BeNil())
		}
	})

	It("needs candidates and a catalog", func() {
		r := &sweep.Runner{Engine: rateEngine(&calls)}
		_, err := r.Run(context.Background(), nil)
		Expect(err).To(MatchError(sweep.ErrNoCandidates))
		_, err = r.Run(context.Background(), []experiment.Scenario{base()})
		Expect(err).To(MatchError(sweep.ErrNoCatalog))
	})

	It("rejects overrides the scenario does not know", func() {
		g, err := optim.NewGridSearch([]string{"seed"}, [][]float64{{1}})
		Expect(err).NotTo(HaveOccurred())
		_, err = sweep.Expand(base(), g)
		Expect(errors.Is(err, experiment.ErrUnknownParam)).To(BeTrue())
	})
})
