// Package sweep evaluates a set of scenarios against one catalog and picks
// the best fit.
//
// Every candidate is set up (DTD built, yield table checked) before the first
// engine run, so a bad parameter combination fails the sweep up front. Runs
// are sequential unless Workers > 1; results always come back in candidate
// order, which keeps the tie-break on equal RMS deterministic.
package sweep

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/rprocfit/internal/catalog"
	"github.com/san-kum/rprocfit/internal/compare"
	"github.com/san-kum/rprocfit/internal/engine"
	"github.com/san-kum/rprocfit/internal/experiment"
	"github.com/san-kum/rprocfit/internal/optim"
)

var (
	ErrNoCandidates = errors.New("sweep: no candidates")
	ErrNoCatalog    = errors.New("sweep: no observations to score against")
)

type Runner struct {
	Engine   engine.Engine
	Stars    []catalog.Star
	Target   string
	Policy   compare.Policy
	Workers  int
	Registry *experiment.Registry
	Recorder experiment.Recorder
	Logger   *zap.Logger
}

// Outcome holds one result per candidate, in candidate order.
type Outcome struct {
	Results []*experiment.Result
	Best    int
}

func (o *Outcome) BestResult() *experiment.Result {
	if o == nil || o.Best < 0 || o.Best >= len(o.Results) {
		return nil
	}
	return o.Results[o.Best]
}

// Expand applies every grid candidate to base.
func Expand(base experiment.Scenario, grid *optim.GridSearch) ([]experiment.Scenario, error) {
	var out []experiment.Scenario
	for _, p := range grid.Candidates() {
		s, err := base.With(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Grid expands base over grid and runs every candidate.
func (r *Runner) Grid(ctx context.Context, base experiment.Scenario, grid *optim.GridSearch) (*Outcome, error) {
	scenarios, err := Expand(base, grid)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, scenarios)
}

// Run sets up all scenarios, runs them and selects the lowest RMS. Any
// failure aborts the whole sweep.
func (r *Runner) Run(ctx context.Context, scenarios []experiment.Scenario) (*Outcome, error) {
	if len(scenarios) == 0 {
		return nil, ErrNoCandidates
	}
	if len(r.Stars) == 0 {
		return nil, ErrNoCatalog
	}
	log := r.logger()

	exps := make([]*experiment.Experiment, len(scenarios))
	for i, s := range scenarios {
		e := experiment.New(s, r.Engine, r.options()...)
		if err := e.Setup(); err != nil {
			return nil, fmt.Errorf("sweep: candidate %d: %w", i, err)
		}
		exps[i] = e
	}
	log.Info("sweep starting", zap.Int("candidates", len(exps)), zap.Int("workers", r.workers()))

	results := make([]*experiment.Result, len(exps))
	if r.workers() <= 1 {
		for i, e := range exps {
			res, err := e.Run(ctx)
			if err != nil {
				return nil, fmt.Errorf("sweep: candidate %d: %w", i, err)
			}
			results[i] = res
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers())
		for i, e := range exps {
			i, e := i, e
			g.Go(func() error {
				res, err := e.Run(gctx)
				if err != nil {
					return fmt.Errorf("sweep: candidate %d: %w", i, err)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	scores := make([]compare.Score, len(results))
	for i, res := range results {
		scores[i] = res.Score
		log.Debug("candidate scored",
			zap.Int("index", i),
			zap.Any("params", res.Params),
			zap.Float64("rms", res.Score.RMS))
	}
	best, score := compare.BestFit(scores)
	if best < 0 {
		return nil, fmt.Errorf("sweep: %w", compare.ErrNoObservations)
	}
	log.Info("sweep finished", zap.Int("best", best), zap.Float64("rms", score.RMS))
	return &Outcome{Results: results, Best: best}, nil
}

func (r *Runner) options() []experiment.Option {
	opts := []experiment.Option{
		experiment.WithCatalog(r.Stars),
		experiment.WithPolicy(r.Policy),
		experiment.WithLogger(r.logger()),
	}
	if r.Target != "" {
		opts = append(opts, experiment.WithTarget(r.Target))
	}
	if r.Registry != nil {
		opts = append(opts, experiment.WithRegistry(r.Registry))
	}
	if r.Recorder != nil {
		opts = append(opts, experiment.WithRecorder(r.Recorder))
	}
	return opts
}

func (r *Runner) workers() int {
	if r.Workers < 1 {
		return 1
	}
	return r.Workers
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
