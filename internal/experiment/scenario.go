package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/rprocfit/internal/dtd"
	"github.com/san-kum/rprocfit/internal/optim"
)

// DTD kinds understood by the default registry.
const (
	KindPrompt     = "prompt"
	KindStochastic = "stochastic"
)

// Parameters a sweep may override on a scenario.
const (
	ParamRatePerMass = "rate_per_mass"
	ParamWindowStart = "window_start"
	ParamWindowStop  = "window_stop"
	ParamWidth       = "width"
	ParamTEnd        = "t_end"
)

// Scenario describes one r-process enrichment hypothesis. Times are in years,
// RatePerMass in events per solar mass formed.
type Scenario struct {
	Name          string             `yaml:"name" json:"name"`
	Kind          string             `yaml:"kind" json:"kind"`
	Enabled       bool               `yaml:"enabled" json:"enabled"`
	RatePerMass   float64            `yaml:"rate_per_mass" json:"rate_per_mass"`
	Window        dtd.Window         `yaml:"window" json:"window"`
	Events        []float64          `yaml:"events,omitempty" json:"events,omitempty"`
	Width         float64            `yaml:"width,omitempty" json:"width,omitempty"`
	TEnd          float64            `yaml:"t_end" json:"t_end"`
	Metallicities []float64          `yaml:"metallicities" json:"metallicities"`
	YieldTable    string             `yaml:"yield_table,omitempty" json:"yield_table,omitempty"`
	Extra         map[string]float64 `yaml:"extra,omitempty" json:"extra,omitempty"`
}

func (s Scenario) Clone() Scenario {
	out := s
	out.Events = append([]float64(nil), s.Events...)
	out.Metallicities = append([]float64(nil), s.Metallicities...)
	if s.Extra != nil {
		out.Extra = make(map[string]float64, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Params reports the overridable parameters that apply to the scenario's kind.
func (s Scenario) Params() optim.Params {
	p := optim.Params{
		ParamRatePerMass: s.RatePerMass,
		ParamTEnd:        s.TEnd,
	}
	switch s.Kind {
	case KindPrompt:
		p[ParamWindowStart] = s.Window.Start
		p[ParamWindowStop] = s.Window.Stop
	case KindStochastic:
		p[ParamWidth] = s.Width
	}
	return p
}

// With returns a copy of s with the given parameters applied. Unknown names
// fail with ErrUnknownParam.
func (s Scenario) With(p optim.Params) (Scenario, error) {
	out := s.Clone()
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		v := p[k]
		switch k {
		case ParamRatePerMass:
			out.RatePerMass = v
		case ParamWindowStart:
			out.Window.Start = v
		case ParamWindowStop:
			out.Window.Stop = v
		case ParamWidth:
			out.Width = v
		case ParamTEnd:
			out.TEnd = v
		default:
			return s, fmt.Errorf("%w: %q", ErrUnknownParam, k)
		}
	}
	return out, nil
}
