package experiment_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rprocfit/internal/catalog"
	"github.com/san-kum/rprocfit/internal/dtd"
	"github.com/san-kum/rprocfit/internal/engine"
	"github.com/san-kum/rprocfit/internal/experiment"
	"github.com/san-kum/rprocfit/internal/optim"
	"github.com/san-kum/rprocfit/internal/track"
)

type recorded struct {
	scenario, status string
}

type fakeRecorder struct{ runs []recorded }

func (r *fakeRecorder) ObserveRun(scenario, status string, _ time.Duration) {
	r.runs = append(r.runs, recorded{scenario, status})
}

// flatEngine answers with a constant [Eu/Fe] = RatePerMass * 1e5 over [Fe/H] in [-3, 0].
func flatEngine(calls *int) engine.Engine {
	return engine.Func(func(_ context.Context, cfg engine.Config) (*track.Track, error) {
		*calls++
		if cfg.DTD != nil {
			cfg.DTD.Sources[0][0][2].Rate = 99
		}
		v := cfg.RatePerMass * 1e5
		return &track.Track{Samples: []track.Sample{
			{Time: 1e8, FeH: -3, Ratios: map[string]float64{"[Eu/Fe]": v}},
			{Time: 1e10, FeH: 0, Ratios: map[string]float64{"[Eu/Fe]": v}},
		}}, nil
	})
}

func promptScenario() experiment.Scenario {
	return experiment.Scenario{
		Name:          "mrd-prompt",
		Kind:          experiment.KindPrompt,
		Enabled:       true,
		RatePerMass:   4e-6,
		Window:        dtd.Window{Start: 3e6, Stop: 3e8},
		TEnd:          13e9,
		Metallicities: []float64{1e-4, 5e-4, 1e-3},
	}
}

func fornaxStar(id string, feh, euFe float64) catalog.Star {
	return catalog.Star{ID: id, Galaxy: "For", FeH: feh, Elements: map[string]catalog.Abundance{
		"Eu": {LogEps: math.NaN(), XH: math.NaN(), XFe: euFe},
	}}
}

var _ = Describe("Experiment", func() {
	var calls int

	BeforeEach(func() { calls = 0 })

	It("refuses to run before setup", func() {
		_, err := experiment.New(promptScenario(), flatEngine(&calls)).Run(context.Background())
		Expect(err).To(MatchError(experiment.ErrNotSetup))
		Expect(calls).To(BeZero())
	})

	DescribeTable("fails setup before any engine call",
		func(mutate func(*experiment.Scenario), want error) {
			s := promptScenario()
			mutate(&s)
			e := experiment.New(s, flatEngine(&calls))
			err := e.Setup()
			Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			_, err = e.Run(context.Background())
			Expect(err).To(MatchError(experiment.ErrNotSetup))
			Expect(calls).To(BeZero())
		},
		Entry("inverted window", func(s *experiment.Scenario) { s.Window = dtd.Window{Start: 3e8, Stop: 3e6} }, dtd.ErrInvalidWindow),
		Entry("empty grid", func(s *experiment.Scenario) { s.Metallicities = nil }, dtd.ErrEmptyGrid),
		Entry("unknown kind", func(s *experiment.Scenario) { s.Kind = "delayed" }, experiment.ErrUnknownKind),
		Entry("missing yield table", func(s *experiment.Scenario) { s.YieldTable = "/no/such/yields.txt" }, engine.ErrMissingYieldTable),
		Entry("stochastic without events", func(s *experiment.Scenario) {
			s.Kind = experiment.KindStochastic
			s.Width = 2e7
		}, dtd.ErrEmptyEvents),
	)

	It("scores the track against the catalog", func() {
		stars := []catalog.Star{fornaxStar("a", -2, 0.5), fornaxStar("b", -1, 0.3)}
		rec := &fakeRecorder{}
		e := experiment.New(promptScenario(), flatEngine(&calls),
			experiment.WithCatalog(stars), experiment.WithRecorder(rec))
		Expect(e.Setup()).To(Succeed())

		res, err := e.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(1))
		Expect(res.Scored).To(BeTrue())
		Expect(res.Score.N).To(Equal(2))
		Expect(res.Score.RMS).To(BeNumerically("~", 0.1, 1e-9))
		Expect(res.Track.Label).To(Equal("mrd-prompt"))
		Expect(res.Params).To(HaveKeyWithValue(experiment.ParamWindowStart, 3e6))
		Expect(rec.runs).To(Equal([]recorded{{"mrd-prompt", "ok"}}))
	})

	It("hands the engine its own copy of the DTD", func() {
		e := experiment.New(promptScenario(), flatEngine(&calls))
		Expect(e.Setup()).To(Succeed())
		_, err := e.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Table().Sources[0][0][2].Rate).To(Equal(1.0))
	})

	It("runs a disabled source without a DTD", func() {
		s := promptScenario()
		s.Enabled = false
		s.Window = dtd.Window{}
		e := experiment.New(s, flatEngine(&calls))
		Expect(e.Setup()).To(Succeed())
		Expect(e.Table()).To(BeNil())
		res, err := e.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Scored).To(BeFalse())
	})

	It("reports engine failures", func() {
		boom := errors.New("boom")
		rec := &fakeRecorder{}
		eng := engine.Func(func(context.Context, engine.Config) (*track.Track, error) { return nil, boom })
		e := experiment.New(promptScenario(), eng, experiment.WithRecorder(rec))
		Expect(e.Setup()).To(Succeed())
		_, err := e.Run(context.Background())
		Expect(err).To(MatchError(boom))
		Expect(rec.runs).To(Equal([]recorded{{"mrd-prompt", "error"}}))
	})
})

var _ = Describe("Scenario", func() {
	It("applies overrides without touching the original", func() {
		base := promptScenario()
		s, err := base.With(optim.Params{experiment.ParamRatePerMass: 1e-6, experiment.ParamWindowStop: 1e9})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.RatePerMass).To(Equal(1e-6))
		Expect(s.Window.Stop).To(Equal(1e9))
		Expect(base.Window.Stop).To(Equal(3e8))
	})

	It("rejects unknown overrides", func() {
		_, err := promptScenario().With(optim.Params{"seed": 1})
		Expect(err).To(MatchError(ContainSubstring("seed")))
		Expect(errors.Is(err, experiment.ErrUnknownParam)).To(BeTrue())
	})

	It("lists kind-specific parameters", func() {
		s := promptScenario()
		s.Kind = experiment.KindStochastic
		s.Width = 2e7
		Expect(s.Params()).To(HaveKey(experiment.ParamWidth))
		Expect(s.Params()).NotTo(HaveKey(experiment.ParamWindowStart))
	})
})

var _ = Describe("Registry", func() {
	It("knows the built-in kinds and accepts new ones", func() {
		r := experiment.NewRegistry()
		Expect(r.Kinds()).To(Equal([]string{"prompt", "stochastic"}))
		r.Register("constant", func(s experiment.Scenario) (*dtd.Table, error) {
			return &dtd.Table{Grid: s.Metallicities, Sources: [][]dtd.Curve{{{{T: 0}, {T: s.TEnd}}}}}, nil
		})
		s := promptScenario()
		s.Kind = "constant"
		s.Metallicities = []float64{1e-3}
		table, err := r.Build(s)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Validate()).To(Succeed())
	})
})
