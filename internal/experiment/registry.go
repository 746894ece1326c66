package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/rprocfit/internal/dtd"
)

// Builder turns a scenario into the DTD table handed to the engine.
type Builder func(s Scenario) (*dtd.Table, error)

type Registry struct {
	builders map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}

	r.Register(KindPrompt, func(s Scenario) (*dtd.Table, error) {
		return dtd.BuildPrompt(s.Metallicities, s.Window, s.TEnd)
	})
	r.Register(KindStochastic, func(s Scenario) (*dtd.Table, error) {
		return dtd.BuildStochastic(s.Metallicities, s.Events, s.Width, s.TEnd)
	})

	return r
}

// Register adds or replaces the builder for kind.
func (r *Registry) Register(kind string, b Builder) {
	r.builders[kind] = b
}

func (r *Registry) Build(s Scenario) (*dtd.Table, error) {
	fn, ok := r.builders[s.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
	return fn(s)
}

func (r *Registry) Kinds() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
