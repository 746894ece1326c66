package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/san-kum/rprocfit/internal/abund"
	"github.com/san-kum/rprocfit/internal/compare"
	"github.com/san-kum/rprocfit/internal/dtd"
	"github.com/san-kum/rprocfit/internal/experiment"
)

// EnvPrefix marks environment overrides. A double underscore descends one
// level: RPROCFIT_ENGINE__TIMEOUT sets engine.timeout.
const EnvPrefix = "RPROCFIT_"

const (
	DefaultDataDir     = ".rprocfit"
	DefaultRatePerMass = 1e-5
	DefaultTEnd        = 13e9
	DefaultWindowStart = 3e6
	DefaultWindowStop  = 3e8
	DefaultWidth       = 2e7
	DefaultLogLevel    = "info"
	DefaultNamespace   = "rprocfit"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

type Config struct {
	DataDir  string              `yaml:"data_dir"`
	Scenario experiment.Scenario `yaml:"scenario"`
	Catalog  CatalogConfig       `yaml:"catalog"`
	Fit      FitConfig           `yaml:"fit"`
	Engine   EngineConfig        `yaml:"engine"`
	Sweep    SweepConfig         `yaml:"sweep"`
	Log      LogConfig           `yaml:"log"`
	Metrics  MetricsConfig       `yaml:"metrics"`
}

type CatalogConfig struct {
	Path    string `yaml:"path"`
	Galaxy  string `yaml:"galaxy,omitempty"`
	Require string `yaml:"require,omitempty"`
}

type FitConfig struct {
	Target string `yaml:"target"`
	Policy string `yaml:"policy"`
}

type EngineConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args,omitempty"`
	Dir     string        `yaml:"dir,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

type SweepConfig struct {
	Workers int          `yaml:"workers"`
	Params  []ParamRange `yaml:"params,omitempty"`
}

// ParamRange is one sweep axis. Explicit Values win; otherwise Steps values
// span [Min, Max], log-spaced when Log is set.
type ParamRange struct {
	Name   string    `yaml:"name"`
	Values []float64 `yaml:"values,omitempty"`
	Min    float64   `yaml:"min,omitempty"`
	Max    float64   `yaml:"max,omitempty"`
	Steps  int       `yaml:"steps,omitempty"`
	Log    bool      `yaml:"log,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig names the Prometheus metrics. File, when set, receives the
// registry in text exposition format when the command exits.
type MetricsConfig struct {
	Namespace       string    `yaml:"namespace"`
	Subsystem       string    `yaml:"subsystem,omitempty"`
	DurationBuckets []float64 `yaml:"duration_buckets,omitempty"`
	File            string    `yaml:"file,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Scenario: experiment.Scenario{
			Name:          "prompt",
			Kind:          experiment.KindPrompt,
			Enabled:       true,
			RatePerMass:   DefaultRatePerMass,
			Window:        dtd.Window{Start: DefaultWindowStart, Stop: DefaultWindowStop},
			TEnd:          DefaultTEnd,
			Metallicities: []float64{1e-4, 1e-3, 6e-3, 1e-2, 2e-2},
		},
		Fit: FitConfig{
			Target: experiment.DefaultTarget,
			Policy: compare.Strict.String(),
		},
		Sweep:   SweepConfig{Workers: 1},
		Log:     LogConfig{Level: DefaultLogLevel},
		Metrics: MetricsConfig{Namespace: DefaultNamespace},
	}
}

// Load layers defaults, the YAML file at path (skipped when path is empty)
// and RPROCFIT_* environment variables, then validates the result.
func Load(path string) (*Config, error) {
	return LoadOver(DefaultConfig(), path)
}

// LoadOver is Load with base in place of the defaults, e.g. a preset.
// base is modified and returned.
func LoadOver(base *Config, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := base
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(cfg *Config, path string) error {
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if kinds := experiment.NewRegistry().Kinds(); !slices.Contains(kinds, c.Scenario.Kind) {
		return fmt.Errorf("%w: scenario kind %q (known: %v)", ErrInvalidConfig, c.Scenario.Kind, kinds)
	}
	if len(c.Scenario.Metallicities) == 0 {
		return fmt.Errorf("%w: scenario has no metallicities", ErrInvalidConfig)
	}
	if _, err := abund.Parse(c.Fit.Target); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := compare.ParsePolicy(c.Fit.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Engine.Timeout < 0 {
		return fmt.Errorf("%w: negative engine timeout", ErrInvalidConfig)
	}
	if c.Sweep.Workers < 0 {
		return fmt.Errorf("%w: negative worker count", ErrInvalidConfig)
	}
	for i := 1; i < len(c.Metrics.DurationBuckets); i++ {
		if c.Metrics.DurationBuckets[i] <= c.Metrics.DurationBuckets[i-1] {
			return fmt.Errorf("%w: metrics duration buckets must be increasing", ErrInvalidConfig)
		}
	}
	for _, p := range c.Sweep.Params {
		if err := p.validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if _, err := c.Scenario.With(map[string]float64{p.Name: 0}); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (c *Config) Policy() compare.Policy {
	p, _ := compare.ParsePolicy(c.Fit.Policy)
	return p
}
