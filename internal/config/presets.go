package config

import (
	"sort"

	"github.com/san-kum/rprocfit/internal/dtd"
	"github.com/san-kum/rprocfit/internal/experiment"
)

// Presets build full configurations on top of DefaultConfig.
var Presets = map[string]func() *Config{
	"mrd-prompt": func() *Config {
		cfg := DefaultConfig()
		cfg.Scenario.Name = "mrd-prompt"
		cfg.Scenario.Window = dtd.Window{Start: 3e6, Stop: 3e8}
		cfg.Scenario.YieldTable = "yield_tables/r_process_nishimura2017_mrd.txt"
		cfg.Catalog = CatalogConfig{Path: "observations/reichert2020_fornax.csv", Galaxy: "For"}
		return cfg
	},
	"nsm-stochastic": func() *Config {
		cfg := DefaultConfig()
		cfg.Scenario.Name = "nsm-stochastic"
		cfg.Scenario.Kind = experiment.KindStochastic
		cfg.Scenario.Window = dtd.Window{}
		cfg.Scenario.Events = []float64{1e8, 5e8, 1.2e9, 3e9}
		cfg.Scenario.Width = DefaultWidth
		cfg.Catalog = CatalogConfig{Path: "observations/reichert2020_fornax.csv", Galaxy: "For"}
		return cfg
	},
	"mrd-sweep": func() *Config {
		cfg := DefaultConfig()
		cfg.Scenario.Name = "mrd-sweep"
		cfg.Scenario.YieldTable = "yield_tables/r_process_nishimura2017_mrd.txt"
		cfg.Catalog = CatalogConfig{Path: "observations/reichert2020_fornax.csv", Galaxy: "For"}
		cfg.Sweep = SweepConfig{
			Workers: 4,
			Params: []ParamRange{
				{Name: experiment.ParamRatePerMass, Min: 1e-6, Max: 1e-4, Steps: 5, Log: true},
				{Name: experiment.ParamWindowStop, Values: []float64{1e8, 3e8, 1e9}},
			},
		}
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
