package experiment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/rprocfit/internal/abund"
	"github.com/san-kum/rprocfit/internal/catalog"
	"github.com/san-kum/rprocfit/internal/compare"
	"github.com/san-kum/rprocfit/internal/dtd"
	"github.com/san-kum/rprocfit/internal/engine"
	"github.com/san-kum/rprocfit/internal/optim"
	"github.com/san-kum/rprocfit/internal/track"
)

// DefaultTarget is the ratio runs are scored on unless told otherwise.
const DefaultTarget = "[Eu/Fe]"

// Recorder receives one observation per finished run.
type Recorder interface {
	ObserveRun(scenario, status string, elapsed time.Duration)
}

// Result is everything one run produced.
type Result struct {
	Scenario Scenario      `json:"scenario"`
	Params   optim.Params  `json:"params"`
	Target   string        `json:"target"`
	DTD      *dtd.Table    `json:"-"`
	Track    *track.Track  `json:"-"`
	Score    compare.Score `json:"score"`
	Scored   bool          `json:"scored"`
	Elapsed  time.Duration `json:"elapsed"`
}

type Option func(*Experiment)

func WithRegistry(r *Registry) Option { return func(e *Experiment) { e.registry = r } }

// WithCatalog scores runs against stars. Without it Run only produces a track.
func WithCatalog(stars []catalog.Star) Option { return func(e *Experiment) { e.stars = stars } }

func WithTarget(target string) Option { return func(e *Experiment) { e.target = target } }

func WithPolicy(p compare.Policy) Option { return func(e *Experiment) { e.policy = p } }

func WithLogger(l *zap.Logger) Option { return func(e *Experiment) { e.log = l } }

func WithRecorder(r Recorder) Option { return func(e *Experiment) { e.recorder = r } }

type Experiment struct {
	scn      Scenario
	engine   engine.Engine
	registry *Registry
	stars    []catalog.Star
	target   string
	policy   compare.Policy
	log      *zap.Logger
	recorder Recorder

	cfg   engine.Config
	ready bool
}

func New(s Scenario, eng engine.Engine, opts ...Option) *Experiment {
	e := &Experiment{
		scn:    s.Clone(),
		engine: eng,
		target: DefaultTarget,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	return e
}

// Setup validates everything that can fail before the engine is touched:
// the target ratio, the DTD table and the yield table.
func (e *Experiment) Setup() error {
	e.ready = false
	if e.engine == nil {
		return fmt.Errorf("experiment %q: no engine", e.scn.Name)
	}
	if _, err := abund.Parse(e.target); err != nil {
		return err
	}

	cfg := engine.Config{
		Label:       e.scn.Name,
		Enabled:     e.scn.Enabled,
		RatePerMass: e.scn.RatePerMass,
		YieldTable:  e.scn.YieldTable,
		Params:      e.scn.Extra,
	}
	if e.scn.Enabled {
		table, err := e.registry.Build(e.scn)
		if err != nil {
			return fmt.Errorf("experiment %q: %w", e.scn.Name, err)
		}
		cfg.DTD = table
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("experiment %q: %w", e.scn.Name, err)
	}

	e.cfg = cfg
	e.ready = true
	return nil
}

// Run executes the engine once and scores the track when a catalog is set.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if !e.ready {
		return nil, ErrNotSetup
	}
	log := e.log.With(zap.String("scenario", e.scn.Name))
	start := time.Now()

	tr, err := e.engine.Run(ctx, e.cfg.Clone())
	if err != nil {
		e.observe("error", start)
		return nil, fmt.Errorf("experiment %q: %w", e.scn.Name, err)
	}
	if tr.Label == "" {
		tr.Label = e.scn.Name
	}

	res := &Result{
		Scenario: e.scn.Clone(),
		Params:   e.scn.Params(),
		Target:   e.target,
		DTD:      e.cfg.DTD,
		Track:    tr,
	}
	if len(e.stars) > 0 {
		score, err := compare.Residual(tr, e.stars, e.target, e.policy)
		if err != nil {
			e.observe("error", start)
			return nil, fmt.Errorf("experiment %q: %w", e.scn.Name, err)
		}
		res.Score = score
		res.Scored = true
	}
	res.Elapsed = time.Since(start)
	e.observe("ok", start)

	log.Debug("run finished",
		zap.Duration("elapsed", res.Elapsed),
		zap.Int("samples", len(tr.Samples)),
		zap.Float64("rms", res.Score.RMS),
		zap.Int("stars", res.Score.N))
	return res, nil
}

func (e *Experiment) Scenario() Scenario { return e.scn.Clone() }

// Table returns the DTD built by Setup, nil for a disabled source.
func (e *Experiment) Table() *dtd.Table { return e.cfg.DTD }

func (e *Experiment) observe(status string, start time.Time) {
	if e.recorder != nil {
		e.recorder.ObserveRun(e.scn.Name, status, time.Since(start))
	}
}
