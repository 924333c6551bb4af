// Package config loads the SEMDR run configuration from a yaml or json file
// with SEMDR_-prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/karimcy/SEMDR/core/timegrid"
	"github.com/karimcy/SEMDR/infra/mqtt"
)

type Config struct {
	Study      StudyConfig      `json:"study"`
	Window     WindowConfig     `json:"window"`
	Components ComponentsConfig `json:"components"`
	Solver     SolverConfig     `json:"solver"`
	Sweep      SweepConfig      `json:"sweep"`
	Metrics    MetricsConfig    `json:"metrics"`
	MQTT       MQTTConfig       `json:"mqtt"`
	Results    ResultsConfig    `json:"results"`
}

// StudyConfig identifies the case study.
type StudyConfig struct {
	Name           string `json:"name"`
	Doc            string `json:"doc"`
	Year           int    `json:"year"`
	Freq           string `json:"freq"`
	ConsiderInvest bool   `json:"consider_invest"`
}

func (c *StudyConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = "semdr"
	}
	if c.Year == 0 {
		c.Year = 2024
	}
	if c.Freq == "" {
		c.Freq = "60min"
	}
}

func (c *StudyConfig) Validate() error {
	if _, err := timegrid.ParseFreq(c.Freq); err != nil {
		return fmt.Errorf("study.freq: %w", err)
	}
	return nil
}

// WindowConfig narrows the optimization horizon inside the study year.
// Start/End accept the date forms the time grid resolves ("Jan2 15:04",
// "Jan2", "01-02 15:04", "01-02"); Steps is an alternative to End.
type WindowConfig struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Steps int    `json:"steps"`
}

// Apply narrows the grid window according to the configuration. An empty
// window keeps the full year.
func (c WindowConfig) Apply(g *timegrid.Grid) error {
	if c.Start == "" && c.End == "" && c.Steps == 0 {
		return nil
	}
	start := timegrid.Bound{}
	if c.Start != "" {
		start = timegrid.On(c.Start)
	}
	if c.Steps > 0 {
		return g.SetWindowSteps(start, c.Steps)
	}
	return g.SetWindow(start, timegrid.On(c.End))
}

// SolverConfig bounds a single solve.
type SolverConfig struct {
	TimeLimitSec float64 `json:"time_limit_sec"`
	Tol          float64 `json:"tol"`
	Parallel     bool    `json:"parallel"`
	Workers      int     `json:"workers"`
}

func (c *SolverConfig) SetDefaults() {
	if c.TimeLimitSec == 0 {
		c.TimeLimitSec = 300
	}
}

// TimeLimit returns the per-solve deadline as a duration.
func (c SolverConfig) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSec * float64(time.Second))
}

// SweepConfig expands the reference scenario into a scenario family.
type SweepConfig struct {
	Axes          []SweepAxis `json:"axes"`
	NParetoPoints int         `json:"n_pareto_points"`
	RemoveBase    bool        `json:"remove_base"`
	// NormalizePareto runs the two-extreme-point norm-factor calibration
	// before expanding pareto points.
	NormalizePareto bool `json:"normalize_pareto"`
}

type SweepAxis struct {
	Name   string    `json:"name"`
	Short  string    `json:"short"`
	Values []float64 `json:"values"`
}

// MetricsConfig wires the optional solve-event sinks.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// MQTTConfig wires the optional demand-response signal publisher.
type MQTTConfig struct {
	Enabled bool        `json:"enabled"`
	Client  mqtt.Config `json:"client"`
	// DeviceID receives the load-shedding signals.
	DeviceID string  `json:"device_id"`
	MinKW    float64 `json:"min_kw"`
}

type ResultsConfig struct {
	Dir    string `json:"dir"`
	Suffix string `json:"suffix"`
}

func (c *ResultsConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "results"
	}
}

// Load reads the configuration file, applies SEMDR_ environment overrides
// (double underscore for nesting, e.g. SEMDR_STUDY__YEAR), fills defaults and
// validates.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("SEMDR_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "semdr_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Study.SetDefaults()
	cfg.Solver.SetDefaults()
	cfg.Results.SetDefaults()
	if err := cfg.Study.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Components.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
