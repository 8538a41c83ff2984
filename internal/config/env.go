package config

import (
	"errors"
	"flag"
	"fmt"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// RunConfig holds the settings of one forestsim invocation.
type RunConfig struct {
	ParamsPath string  `env:"FORESTSIM_PARAMS"`
	Area       float64 `env:"FORESTSIM_AREA" envDefault:"1"`
	Trials     int     `env:"FORESTSIM_TRIALS" envDefault:"5"`
	Years      int     `env:"FORESTSIM_YEARS" envDefault:"30"`
	Seed       int64   `env:"FORESTSIM_SEED" envDefault:"12345"`
	Workers    int     `env:"FORESTSIM_WORKERS"`
	Out        string  `env:"FORESTSIM_OUT" envDefault:"results.json"`
	DBPath     string  `env:"FORESTSIM_DB"`
	LogFormat  string  `env:"FORESTSIM_LOG_FORMAT" envDefault:"text"`
	Debug      bool    `env:"FORESTSIM_DEBUG"`
	Verify     bool    `env:"FORESTSIM_VERIFY"`

	Tracing TracingConfig
}

// TracingConfig selects the OTLP trace exporter. Tracing stays off until an
// endpoint is set.
type TracingConfig struct {
	Endpoint    string  `env:"FORESTSIM_OTEL_ENDPOINT"`
	Enabled     bool    `env:"FORESTSIM_OTEL_ENABLED" envDefault:"true"`
	SampleRatio float64 `env:"FORESTSIM_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// Active reports whether spans should be exported.
func (t TracingConfig) Active() bool { return t.Enabled && t.Endpoint != "" }

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseRunConfig loads env defaults and then lets flags override them.
func ParseRunConfig(fs *flag.FlagSet, args []string) (RunConfig, error) {
	if fs == nil {
		return RunConfig{}, errors.New("flag parser is required")
	}
	var cfg RunConfig
	if err := ParseEnv(&cfg); err != nil {
		return RunConfig{}, err
	}
	fs.StringVar(&cfg.ParamsPath, "params", cfg.ParamsPath, "parameters YAML file (empty = built-in defaults)")
	fs.Float64Var(&cfg.Area, "area", cfg.Area, "site area in hectares")
	fs.IntVar(&cfg.Trials, "trials", cfg.Trials, "number of Monte Carlo trials")
	fs.IntVar(&cfg.Years, "years", cfg.Years, "simulated years per trial")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "batch seed")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel trials (0 = GOMAXPROCS)")
	fs.StringVar(&cfg.Out, "out", cfg.Out, "JSON results file (empty = none)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite results database (empty = none)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug logging")
	fs.BoolVar(&cfg.Verify, "verify", cfg.Verify, "check tree invariants every year")
	fs.StringVar(&cfg.Tracing.Endpoint, "otel-endpoint", cfg.Tracing.Endpoint, "OTLP/HTTP trace endpoint URL (empty = tracing off)")
	fs.Float64Var(&cfg.Tracing.SampleRatio, "otel-sample-ratio", cfg.Tracing.SampleRatio, "fraction of trials traced")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return RunConfig{}, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// Validate checks the run invocation bounds.
func (c RunConfig) Validate() error {
	ce := &ConfigurationError{}
	positive(ce, "area", c.Area)
	probability(ce, "otel_sample_ratio", c.Tracing.SampleRatio)
	if c.Trials < 1 {
		ce.add("trials", "must be >= 1, got %d", c.Trials)
	}
	if c.Years < 1 {
		ce.add("years", "must be >= 1, got %d", c.Years)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		ce.addSuggested("log_format", closest(c.LogFormat, []string{"text", "json"}), "unknown format %q", c.LogFormat)
	}
	if len(ce.Fields) > 0 {
		return ce
	}
	return nil
}
