package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/glassfire"
)

// Config controls a cluster command run.
//
// Example run.yaml:
//
//	cell_size: 8
//	minimal_count: 10
//	neighborhood: fixed
//	regularize: 0.01
//	skip_columns: 2
type Config struct {
	// SkipColumns is the number of leading fields ignored on every input line.
	SkipColumns int `yaml:"skip_columns"`

	CellSize           float64 `yaml:"cell_size"`
	MinimalCount       int     `yaml:"minimal_count"`
	RatioOfMinimumDiff float64 `yaml:"ratio_of_minimum_diff"`
	Neighborhood       string  `yaml:"neighborhood"`

	// Regularize is the ridge term used when querying models per point.
	Regularize float64 `yaml:"regularize"`
	// NearestCount is the number of candidate clusters per query; 0 uses the default.
	NearestCount int `yaml:"nearest_count"`

	Workers                 int `yaml:"workers"`
	MaxIterations           int `yaml:"max_iterations"`
	WarmupIterations        int `yaml:"warmup_iterations"`
	MaxCovarianceIterations int `yaml:"max_covariance_iterations"`

	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given. The
// cell size has no default and must be set.
func DefaultConfig() *Config {
	return &Config{
		MinimalCount:            1,
		RatioOfMinimumDiff:      0.01,
		Neighborhood:            "adaptive",
		Workers:                 1,
		MaxIterations:           1000,
		WarmupIterations:        2,
		MaxCovarianceIterations: 200,
		LogLevel:                "warn",
	}
}

// LoadConfig reads a YAML configuration from path. Fields missing from the
// file keep their defaults; unknown fields are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// applyFlags overrides c with every flag set on the command line.
func (c *Config) applyFlags(fs *pflag.FlagSet) error {
	var err error
	set := func(name string, fn func() error) {
		if err == nil && fs.Changed(name) {
			err = fn()
		}
	}

	set("skip-columns", func() (e error) { c.SkipColumns, e = fs.GetInt("skip-columns"); return })
	set("cell-size", func() (e error) { c.CellSize, e = fs.GetFloat64("cell-size"); return })
	set("minimal-count", func() (e error) { c.MinimalCount, e = fs.GetInt("minimal-count"); return })
	set("ratio", func() (e error) { c.RatioOfMinimumDiff, e = fs.GetFloat64("ratio"); return })
	set("neighborhood", func() (e error) { c.Neighborhood, e = fs.GetString("neighborhood"); return })
	set("regularize", func() (e error) { c.Regularize, e = fs.GetFloat64("regularize"); return })
	set("nearest", func() (e error) { c.NearestCount, e = fs.GetInt("nearest"); return })
	set("workers", func() (e error) { c.Workers, e = fs.GetInt("workers"); return })
	set("max-iterations", func() (e error) { c.MaxIterations, e = fs.GetInt("max-iterations"); return })
	set("log-level", func() (e error) { c.LogLevel, e = fs.GetString("log-level"); return })

	return err
}

func (c *Config) engineOptions(logOut io.Writer) ([]glassfire.Option, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	logger := glassfire.NewLogger(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	return []glassfire.Option{
		glassfire.WithLogger(logger),
		glassfire.WithWorkers(c.Workers),
		glassfire.WithMaxIterations(c.MaxIterations),
		glassfire.WithWarmupIterations(c.WarmupIterations),
		glassfire.WithMaxCovarianceIterations(c.MaxCovarianceIterations),
	}, nil
}

func (c *Config) runOptions() ([]glassfire.RunOption, error) {
	n, err := parseNeighborhood(c.Neighborhood)
	if err != nil {
		return nil, err
	}
	return []glassfire.RunOption{
		glassfire.WithMinimalCount(c.MinimalCount),
		glassfire.WithRatioOfMinimumDiff(c.RatioOfMinimumDiff),
		glassfire.WithNeighborhood(n),
	}, nil
}

func parseNeighborhood(s string) (glassfire.Neighborhood, error) {
	for _, n := range []glassfire.Neighborhood{glassfire.NeighborhoodAdaptive, glassfire.NeighborhoodFixed} {
		if n.String() == s {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unknown neighborhood %q (want adaptive or fixed)", s)
}
